package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentwheels/internal/app/commands"
	"rentwheels/internal/app/handlers/bookingflow"
	"rentwheels/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type completeBookingRequest struct {
	VehicleID string `json:"vehicle_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
}

func (h BookingHandler) Complete(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req completeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingflow.CompleteBookingCommand{
		VehicleID:       req.VehicleID,
		CustomerID:      user.ID,
		PaymentID:       req.PaymentID,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingflow.CompleteBookingCommand, *bookingflow.BookingSummary](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	_ = c.ShouldBindJSON(&req)
	cmd := bookingflow.CancelBookingCommand{
		BookingID:  c.Param("id"),
		CustomerID: user.ID,
		Reason:     req.Reason,
	}
	result, err := commands.Dispatch[bookingflow.CancelBookingCommand, *bookingflow.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	q := bookingflow.GetBookingQuery{BookingID: c.Param("id"), CustomerID: user.ID}
	result, err := queries.Ask[bookingflow.GetBookingQuery, *bookingflow.BookingSummary](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	q := bookingflow.ListBookingsQuery{CustomerID: user.ID}
	result, err := queries.Ask[bookingflow.ListBookingsQuery, *bookingflow.ListBookingsResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
