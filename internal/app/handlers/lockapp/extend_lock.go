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
)

const extendLockKey = "lock.extend"

type ExtendLockCommand struct {
	VehicleID  string
	CustomerID string
}

func (c ExtendLockCommand) Key() string { return extendLockKey }

type ExtendLockHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle extends the caller's live lock keeping its current window.
// Returns lock.ErrNotFound when the caller holds nothing live.
func (h *ExtendLockHandler) Handle(ctx context.Context, cmd ExtendLockCommand) (*LockResult, error) {
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
		return nil, err
	}
	if !existing.HeldBy(cmd.CustomerID) {
		return nil, domainlock.ErrNotFound
	}
	if err := existing.Refresh(existing.Window, now); err != nil {
		if errors.Is(err, domainlock.ErrInvalidState) {
			return nil, domainlock.ErrNotFound
		}
		return nil, err
	}
	if err := unit.Locks().Save(ctx, existing); err != nil {
		return nil, err
	}

	evs := existing.PendingEvents()
	existing.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, evs); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return toResult(existing), nil
}

func (h *ExtendLockHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ExtendLockCommand, *LockResult] = (*ExtendLockHandler)(nil)
