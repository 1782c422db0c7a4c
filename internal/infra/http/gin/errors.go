package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentwheels/internal/app/handlers/bookingflow"
	"rentwheels/internal/app/handlers/orderapp"
	"rentwheels/internal/app/policies"
	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domaincustomer "rentwheels/internal/domain/customer"
	domainlock "rentwheels/internal/domain/lock"
	domainpricing "rentwheels/internal/domain/pricing"
	domainrange "rentwheels/internal/domain/shared/timerange"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

// respondError maps application errors onto the wire. Validation and conflict
// errors surface verbatim; integrity and upstream failures stay generic so
// internals never leak to a potentially hostile caller.
func respondError(c *gin.Context, err error) {
	var lockedBy *domainlock.LockedByOtherError
	if errors.As(err, &lockedBy) {
		c.JSON(http.StatusConflict, gin.H{
			"error":        "vehicle is reserved by another customer",
			"locked_until": lockedBy.ExpiresAt.Format(time.RFC3339),
			"vehicle_id":   lockedBy.VehicleID,
		})
		return
	}
	var unavailable *domainbooking.UnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusConflict, gin.H{
			"error":          "requested window is unavailable",
			"conflict_start": unavailable.Conflict.Start.Format(time.RFC3339),
			"conflict_end":   unavailable.Conflict.End.Format(time.RFC3339),
		})
		return
	}

	switch {
	case errors.Is(err, domainlock.ErrHeldByOther):
		c.JSON(http.StatusConflict, gin.H{"error": "vehicle is reserved by another customer"})
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainpricing.ErrInvalidWindow),
		errors.Is(err, domainpricing.ErrInvalidRate),
		errors.Is(err, orderapp.ErrWindowTooShort),
		errors.Is(err, orderapp.ErrPriceOutOfBounds),
		errors.Is(err, domaincoupon.ErrExpired),
		errors.Is(err, domaincoupon.ErrMinAmount),
		errors.Is(err, domaincoupon.ErrExhausted),
		errors.Is(err, domaincoupon.ErrAlreadyUsed),
		errors.Is(err, domaincoupon.ErrPrerequisite),
		errors.Is(err, domainbooking.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainlock.ErrNotFound),
		errors.Is(err, domainvehicle.ErrNotFound),
		errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domaincoupon.ErrNotFound),
		errors.Is(err, domaincustomer.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bookingflow.ErrPaymentNotCaptured),
		errors.Is(err, bookingflow.ErrAmountMismatch),
		errors.Is(err, bookingflow.ErrVehicleMismatch),
		errors.Is(err, bookingflow.ErrUserMismatch),
		errors.Is(err, policies.ErrMalformedNotes):
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking could not be completed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
