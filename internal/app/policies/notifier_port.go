package policies

import (
	"context"
	"time"
)

// BookingNotice is the summary pushed to the messaging webhook after finalization.
type BookingNotice struct {
	BookingID   string
	CustomerID  string
	Phone       string
	VehicleID   string
	Pickup      time.Time
	Return      time.Time
	TotalRupees int64
}

// Notifier delivers booking confirmations. Implementations are fire-and-forget:
// errors are logged by the caller and never fail the booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, notice BookingNotice) error
}
