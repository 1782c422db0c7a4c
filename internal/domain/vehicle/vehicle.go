package vehicle

import (
	"context"
	"errors"
	"time"

	"rentwheels/internal/domain/shared/money"
)

var ErrNotFound = errors.New("vehicle: not found")

// DefaultBufferHours is the turnaround gap applied after each booking
// before the vehicle is listed as available again.
const DefaultBufferHours = 2

type VehicleID string

type Vehicle struct {
	ID    VehicleID
	City  string
	Make  string
	Model string
	// DailyRate is the server-trusted price source; quotes never accept a
	// client-submitted rate.
	DailyRate     money.Money
	BufferHours   int
	NextAvailable time.Time
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Buffer returns the configured turnaround gap.
func (v *Vehicle) Buffer() time.Duration {
	hours := v.BufferHours
	if hours <= 0 {
		hours = DefaultBufferHours
	}
	return time.Duration(hours) * time.Hour
}

// AdvanceAvailability moves the next-available marker past a finalized booking.
// Kept separate from the overlap check: the buffer only affects this marker.
func (v *Vehicle) AdvanceAvailability(bookingEnd time.Time, now time.Time) {
	next := bookingEnd.UTC().Add(v.Buffer())
	if next.After(v.NextAvailable) {
		v.NextAvailable = next
	}
	v.UpdatedAt = now.UTC()
}

type Repository interface {
	ByID(ctx context.Context, id VehicleID) (*Vehicle, error)
	Save(ctx context.Context, v *Vehicle) error
	SearchByCity(ctx context.Context, city string, availableBy time.Time) ([]*Vehicle, error)
}
