package ginserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"rentwheels/internal/app/handlers/bookingflow"
	"rentwheels/internal/app/handlers/orderapp"
	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domainlock "rentwheels/internal/domain/lock"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

func respond(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	respondError(c, err)
	return rec
}

func TestRespondErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", orderapp.ErrWindowTooShort, http.StatusBadRequest},
		{"coupon rule", domaincoupon.ErrMinAmount, http.StatusBadRequest},
		{"price ceiling", orderapp.ErrPriceOutOfBounds, http.StatusBadRequest},
		{"vehicle missing", domainvehicle.ErrNotFound, http.StatusNotFound},
		{"booking missing", domainbooking.ErrNotFound, http.StatusNotFound},
		{"integrity", bookingflow.ErrAmountMismatch, http.StatusBadRequest},
		{"upstream", errors.New("gateway exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := respond(t, tc.err)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestRespondErrorLockConflictCarriesExpiry(t *testing.T) {
	expiry := time.Date(2026, 3, 10, 10, 15, 0, 0, time.UTC)
	rec := respond(t, &domainlock.LockedByOtherError{VehicleID: "veh-1", ExpiresAt: expiry})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "2026-03-10T10:15:00Z")
	assert.Contains(t, rec.Body.String(), "veh-1")
}

func TestRespondErrorOverlapConflictCarriesWindow(t *testing.T) {
	rec := respond(t, &domainbooking.UnavailableError{Conflict: domainbooking.Conflict{
		Start: time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC),
	}})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "conflict_start")
	assert.Contains(t, rec.Body.String(), "2026-03-10T19:00:00Z")
}

func TestRespondErrorIntegrityStaysGeneric(t *testing.T) {
	for _, err := range []error{
		bookingflow.ErrPaymentNotCaptured,
		bookingflow.ErrAmountMismatch,
		bookingflow.ErrVehicleMismatch,
		bookingflow.ErrUserMismatch,
	} {
		rec := respond(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "booking could not be completed")
		assert.NotContains(t, rec.Body.String(), "mismatch", "details never reach the caller")
	}
}
