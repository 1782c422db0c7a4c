package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentwheels/internal/app/handlers/couponapp"
	"rentwheels/internal/app/queries"
)

type CouponHandler struct {
	Queries queries.Bus
}

type validateCouponRequest struct {
	Code       string `json:"code" binding:"required"`
	OrderTotal int64  `json:"order_total" binding:"required"`
}

func (h CouponHandler) Validate(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := couponapp.ValidateCouponQuery{
		Code:       req.Code,
		CustomerID: user.ID,
		OrderTotal: req.OrderTotal,
	}
	result, err := queries.Ask[couponapp.ValidateCouponQuery, *couponapp.ValidateCouponResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CouponHTTP = CouponHandler{}
