package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentwheels/internal/app/commands"
	"rentwheels/internal/app/handlers/orderapp"
)

type OrderHandler struct {
	Commands commands.Bus
}

type createOrderRequest struct {
	VehicleID  string    `json:"vehicle_id" binding:"required"`
	PickupTime time.Time `json:"pickup_time" binding:"required"`
	ReturnTime time.Time `json:"return_time" binding:"required"`
	CouponCode string    `json:"coupon_code"`
}

func (h OrderHandler) Create(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := orderapp.CreateOrderCommand{
		VehicleID:       req.VehicleID,
		CustomerID:      user.ID,
		Pickup:          req.PickupTime,
		Return:          req.ReturnTime,
		CouponCode:      req.CouponCode,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[orderapp.CreateOrderCommand, *orderapp.CreateOrderResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ OrderHTTP = OrderHandler{}
