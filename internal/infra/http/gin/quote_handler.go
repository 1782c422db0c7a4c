package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentwheels/internal/app/handlers/quoteapp"
	"rentwheels/internal/app/queries"
)

type QuoteHandler struct {
	Queries queries.Bus
}

type quoteRequest struct {
	VehicleID  string    `json:"vehicle_id" binding:"required"`
	PickupTime time.Time `json:"pickup_time" binding:"required"`
	ReturnTime time.Time `json:"return_time" binding:"required"`
	Discount   int64     `json:"discount"`
}

func (h QuoteHandler) Get(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := quoteapp.GetQuoteQuery{
		VehicleID: req.VehicleID,
		Pickup:    req.PickupTime,
		Return:    req.ReturnTime,
		Discount:  req.Discount,
	}
	result, err := queries.Ask[quoteapp.GetQuoteQuery, *quoteapp.GetQuoteResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
