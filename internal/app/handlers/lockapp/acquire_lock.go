package lockapp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rentwheels/internal/app/commands"
	"rentwheels/internal/app/handlers/support"
	"rentwheels/internal/app/outbox"
	"rentwheels/internal/app/uow"
	domainlock "rentwheels/internal/domain/lock"
	domainrange "rentwheels/internal/domain/shared/timerange"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

const acquireLockKey = "lock.acquire"

type AcquireLockCommand struct {
	VehicleID  string
	CustomerID string
	Pickup     time.Time
	Return     time.Time
}

func (c AcquireLockCommand) Key() string { return acquireLockKey }

type LockResult struct {
	LockID    string    `json:"lock_id"`
	SessionID string    `json:"session_id"`
	VehicleID string    `json:"vehicle_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    string    `json:"status"`
}

type AcquireLockHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle implements the soft-reservation protocol: a live lock held by another
// customer rejects the request, the holder's own lock refreshes in place, and
// otherwise a fresh lock is created. The store's uniqueness guard arbitrates
// concurrent creates; the loser sees the conflict as a create rejection.
func (h *AcquireLockHandler) Handle(ctx context.Context, cmd AcquireLockCommand) (*LockResult, error) {
	unit, ctx, managed, err := support.Begin(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	window, err := domainrange.New(cmd.Pickup, cmd.Return)
	if err != nil {
		return nil, err
	}
	now := h.now()

	if _, err := unit.Vehicles().ByID(ctx, domainvehicle.VehicleID(cmd.VehicleID)); err != nil {
		return nil, err
	}

	var held *domainlock.Lock
	existing, err := unit.Locks().ActiveByVehicle(ctx, cmd.VehicleID, now)
	switch {
	case err == nil:
		if !existing.HeldBy(cmd.CustomerID) {
			return nil, &domainlock.LockedByOtherError{VehicleID: cmd.VehicleID, ExpiresAt: existing.ExpiresAt}
		}
		if err := existing.Refresh(window, now); err != nil {
			return nil, err
		}
		if err := unit.Locks().Save(ctx, existing); err != nil {
			return nil, err
		}
		held = existing
	case errors.Is(err, domainlock.ErrNotFound):
		fresh, err := domainlock.NewLock(domainlock.CreateParams{
			ID:         domainlock.LockID(uuid.NewString()),
			VehicleID:  cmd.VehicleID,
			CustomerID: cmd.CustomerID,
			SessionID:  uuid.NewString(),
			Window:     window,
			Now:        now,
		})
		if err != nil {
			return nil, err
		}
		// A create rejection already carries the racing holder's expiry.
		if err := unit.Locks().Create(ctx, fresh); err != nil {
			return nil, err
		}
		held = fresh
	default:
		return nil, err
	}

	evs := held.PendingEvents()
	held.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, evs); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return toResult(held), nil
}

func (h *AcquireLockHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func toResult(l *domainlock.Lock) *LockResult {
	return &LockResult{
		LockID:    string(l.ID),
		SessionID: l.SessionID,
		VehicleID: l.VehicleID,
		ExpiresAt: l.ExpiresAt,
		Status:    string(l.Status),
	}
}

var _ commands.Handler[AcquireLockCommand, *LockResult] = (*AcquireLockHandler)(nil)
