package booking

import (
	"context"
	"errors"
	"time"

	"rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/events"
	"rentwheels/internal/domain/shared/timerange"
	"rentwheels/internal/domain/vehicle"
)

var (
	ErrInvalidState = errors.New("booking: invalid state transition")
	ErrNotFound     = errors.New("booking: not found")
	// ErrWindowUnavailable carries the conflicting window for client display.
	ErrWindowUnavailable = errors.New("booking: window overlaps a confirmed booking")
)

// UnavailableError carries the conflicting window for client display.
// Unwraps to ErrWindowUnavailable.
type UnavailableError struct {
	Conflict Conflict
}

func (e *UnavailableError) Error() string {
	return "booking: window conflicts with confirmed booking [" +
		e.Conflict.Start.Format(time.RFC3339) + ", " + e.Conflict.End.Format(time.RFC3339) + ")"
}

func (e *UnavailableError) Unwrap() error { return ErrWindowUnavailable }

type BookingID string

type State string

const (
	StateConfirmed State = "confirmed"
	StateCancelled State = "cancelled"
)

// Booking is created only after payment verification succeeds; price fields
// come from the verified gateway order notes, never from the client request.
type Booking struct {
	ID            BookingID
	CustomerID    string
	VehicleID     vehicle.VehicleID
	Window        timerange.TimeRange
	Price         pricing.Quote
	PaymentID     string
	OrderID       string
	AppliedCoupon string
	Status        State
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type CreateParams struct {
	ID         BookingID
	CustomerID string
	VehicleID  vehicle.VehicleID
	Window     timerange.TimeRange
	Price      pricing.Quote
	PaymentID  string
	OrderID    string
	Coupon     string
	Now        time.Time
}

func NewConfirmed(params CreateParams) (*Booking, error) {
	if params.CustomerID == "" {
		return nil, errors.New("booking: customer id required")
	}
	if params.PaymentID == "" || params.OrderID == "" {
		return nil, errors.New("booking: payment and order ids required")
	}
	if err := params.Window.Validate(); err != nil {
		return nil, err
	}
	if params.Price.Total.Amount < 0 {
		return nil, errors.New("booking: total cannot be negative")
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:            params.ID,
		CustomerID:    params.CustomerID,
		VehicleID:     params.VehicleID,
		Window:        params.Window,
		Price:         params.Price,
		PaymentID:     params.PaymentID,
		OrderID:       params.OrderID,
		AppliedCoupon: params.Coupon,
		Status:        StateConfirmed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.Record(BookingConfirmed{
		BookingID:  b.ID,
		VehicleID:  string(b.VehicleID),
		CustomerID: b.CustomerID,
		Window:     b.Window,
		Total:      b.Price.Total,
		At:         now,
	})
	return b, nil
}

// Cancel is the only mutation allowed after confirmation.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status != StateConfirmed {
		return ErrInvalidState
	}
	b.Status = StateCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, VehicleID: string(b.VehicleID), Reason: reason, At: b.UpdatedAt})
	return nil
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	// ConfirmedByVehicle lists confirmed bookings for the overlap guard.
	ConfirmedByVehicle(ctx context.Context, vehicleID vehicle.VehicleID) ([]*Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*Booking, error)
}

// Conflict describes the booking window that blocked a candidate.
type Conflict struct {
	Start time.Time
	End   time.Time
}

// FindOverlap checks a candidate window against confirmed bookings using
// half-open semantics: back-to-back bookings do not conflict. Run before
// payment initiation in addition to the lock check, guarding flows that
// predate or bypass locks.
func FindOverlap(ctx context.Context, repo Repository, vehicleID vehicle.VehicleID, candidate timerange.TimeRange) (*Conflict, error) {
	confirmed, err := repo.ConfirmedByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	for _, b := range confirmed {
		if b.Window.Overlaps(candidate) {
			return &Conflict{Start: b.Window.Pickup, End: b.Window.Return}, nil
		}
	}
	return nil, nil
}
