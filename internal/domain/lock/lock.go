package lock

import (
	"context"
	"errors"
	"time"

	"rentwheels/internal/domain/shared/events"
	"rentwheels/internal/domain/shared/timerange"
)

var (
	ErrInvalidState = errors.New("lock: invalid state transition")
	ErrNotFound     = errors.New("lock: not found")
	// ErrHeldByOther is returned when another customer holds an unexpired
	// active lock on the vehicle.
	ErrHeldByOther = errors.New("lock: vehicle locked by another customer")
)

const (
	// InitialTTL is how long a fresh lock reserves the vehicle.
	InitialTTL = 15 * time.Minute
	// RefreshIncrement extends an existing lock from its current expiry,
	// not from now, so repeated refreshes cannot hold a vehicle forever.
	RefreshIncrement = 10 * time.Minute
)

// LockedByOtherError carries the conflicting lock's expiry so the client can
// show a countdown. Unwraps to ErrHeldByOther.
type LockedByOtherError struct {
	VehicleID string
	ExpiresAt time.Time
}

func (e *LockedByOtherError) Error() string {
	return "lock: vehicle " + e.VehicleID + " locked by another customer until " + e.ExpiresAt.Format(time.RFC3339)
}

func (e *LockedByOtherError) Unwrap() error { return ErrHeldByOther }

type LockID string

type State string

const (
	StateActive    State = "active"
	StateExpired   State = "expired"
	StateConverted State = "converted"
)

// Lock is a time-bounded soft reservation of a vehicle for one customer.
type Lock struct {
	ID         LockID
	VehicleID  string
	CustomerID string
	SessionID  string
	Window     timerange.TimeRange
	ExpiresAt  time.Time
	Status     State
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type CreateParams struct {
	ID         LockID
	VehicleID  string
	CustomerID string
	SessionID  string
	Window     timerange.TimeRange
	Now        time.Time
}

func NewLock(params CreateParams) (*Lock, error) {
	if params.VehicleID == "" || params.CustomerID == "" {
		return nil, errors.New("lock: vehicle and customer ids required")
	}
	if err := params.Window.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	l := &Lock{
		ID:         params.ID,
		VehicleID:  params.VehicleID,
		CustomerID: params.CustomerID,
		SessionID:  params.SessionID,
		Window:     params.Window,
		ExpiresAt:  now.Add(InitialTTL),
		Status:     StateActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	l.Record(LockAcquired{LockID: l.ID, VehicleID: l.VehicleID, CustomerID: l.CustomerID, ExpiresAt: l.ExpiresAt, At: now})
	return l, nil
}

// Live reports whether the lock still reserves the vehicle at the given instant.
func (l *Lock) Live(now time.Time) bool {
	return l.Status == StateActive && l.ExpiresAt.After(now.UTC())
}

// HeldBy reports whether the given customer owns this lock.
func (l *Lock) HeldBy(customerID string) bool {
	return l.CustomerID == customerID
}

// Refresh extends an active lock from its current expiry and updates the window
// to the latest requested one. Idempotent for the holder; never changes identity.
func (l *Lock) Refresh(window timerange.TimeRange, now time.Time) error {
	if !l.Live(now) {
		return ErrInvalidState
	}
	if err := window.Validate(); err != nil {
		return err
	}
	l.Window = window
	l.ExpiresAt = l.ExpiresAt.Add(RefreshIncrement)
	l.UpdatedAt = now.UTC()
	l.Record(LockRefreshed{LockID: l.ID, VehicleID: l.VehicleID, ExpiresAt: l.ExpiresAt, At: l.UpdatedAt})
	return nil
}

// Convert finalizes the lock as part of booking creation. Forward-only.
func (l *Lock) Convert(now time.Time) error {
	if l.Status != StateActive {
		return ErrInvalidState
	}
	l.Status = StateConverted
	l.ExpiresAt = now.UTC()
	l.UpdatedAt = now.UTC()
	l.Record(LockConverted{LockID: l.ID, VehicleID: l.VehicleID, At: l.UpdatedAt})
	return nil
}

// Expire marks a stale active lock; used by the sweep, reads already treat
// past-expiry locks as absent.
func (l *Lock) Expire(now time.Time) error {
	if l.Status != StateActive {
		return ErrInvalidState
	}
	l.Status = StateExpired
	l.UpdatedAt = now.UTC()
	l.Record(LockExpired{LockID: l.ID, VehicleID: l.VehicleID, At: l.UpdatedAt})
	return nil
}

type Repository interface {
	ByID(ctx context.Context, id LockID) (*Lock, error)
	// ActiveByVehicle returns the live lock for a vehicle, ErrNotFound if none.
	// Implementations must treat expired locks as absent.
	ActiveByVehicle(ctx context.Context, vehicleID string, now time.Time) (*Lock, error)
	// Create inserts a new active lock; returns ErrHeldByOther if the store's
	// uniqueness guard rejects a second active lock for the vehicle.
	Create(ctx context.Context, l *Lock) error
	Save(ctx context.Context, l *Lock) error
	Delete(ctx context.Context, id LockID) error
	// StaleActive lists active locks whose expiry has passed, for the sweep.
	StaleActive(ctx context.Context, now time.Time, limit int) ([]*Lock, error)
}
