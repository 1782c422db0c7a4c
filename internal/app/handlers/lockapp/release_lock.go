package lockapp

import (
	"context"
	"errors"
	"time"

	"rentwheels/internal/app/commands"
	"rentwheels/internal/app/handlers/support"
	"rentwheels/internal/app/outbox"
	"rentwheels/internal/app/uow"
	domainlock "rentwheels/internal/domain/lock"
	"rentwheels/internal/domain/shared/events"
)

const releaseLockKey = "lock.release"

type ReleaseLockCommand struct {
	VehicleID  string
	CustomerID string
}

func (c ReleaseLockCommand) Key() string { return releaseLockKey }

type ReleaseLockResult struct {
	Released bool `json:"released"`
}

type ReleaseLockHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle invalidates the caller's own active lock; releasing a vehicle with
// no live lock is a no-op, and another customer's lock is never touched.
func (h *ReleaseLockHandler) Handle(ctx context.Context, cmd ReleaseLockCommand) (*ReleaseLockResult, error) {
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

	now := h.now()
	existing, err := unit.Locks().ActiveByVehicle(ctx, cmd.VehicleID, now)
	if err != nil {
		if errors.Is(err, domainlock.ErrNotFound) {
			return &ReleaseLockResult{Released: false}, nil
		}
		return nil, err
	}
	if !existing.HeldBy(cmd.CustomerID) {
		return &ReleaseLockResult{Released: false}, nil
	}

	if err := unit.Locks().Delete(ctx, existing.ID); err != nil {
		return nil, err
	}
	released := domainlock.LockReleased{LockID: existing.ID, VehicleID: existing.VehicleID, At: now}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{released}); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &ReleaseLockResult{Released: true}, nil
}

func (h *ReleaseLockHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ReleaseLockCommand, *ReleaseLockResult] = (*ReleaseLockHandler)(nil)
