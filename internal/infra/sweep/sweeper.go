package sweep

import (
	"context"
	"log/slog"
	"time"

	appoutbox "rentwheels/internal/app/outbox"
	"rentwheels/internal/app/uow"
)

const defaultBatchSize = 50

// Sweeper marks stale active locks as expired in the background. Reads
// already treat past-expiry locks as absent, so the sweep is about keeping
// the store tidy and emitting expiry events, not about correctness.
type Sweeper struct {
	UoWFactory uow.UoWFactory
	Outbox     appoutbox.Outbox
	Encoder    appoutbox.EventEncoder
	Interval   time.Duration
	BatchSize  int
	Logger     *slog.Logger
	Now        func() time.Time
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.sweepOnce(ctx); err != nil {
				if s.Logger != nil {
					s.Logger.Warn("lock sweep failed", "error", err)
				}
			}
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}

	now := s.now()
	stale, err := unit.Locks().StaleActive(execCtx, now, s.batchSize())
	if err != nil {
		_ = unit.Rollback(execCtx)
		return err
	}
	if len(stale) == 0 {
		_ = unit.Rollback(execCtx)
		return nil
	}
	for _, l := range stale {
		if err := l.Expire(now); err != nil {
			continue
		}
		if err := unit.Locks().Save(execCtx, l); err != nil {
			_ = unit.Rollback(execCtx)
			return err
		}
		if err := appoutbox.RecordDomainEvents(execCtx, s.Outbox, s.Encoder, l.PendingEvents()); err != nil {
			_ = unit.Rollback(execCtx)
			return err
		}
		l.ClearEvents()
	}
	if err := unit.Commit(execCtx); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Debug("expired stale locks", "count", len(stale))
	}
	return nil
}

func (s *Sweeper) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Minute
	}
	return s.Interval
}

func (s *Sweeper) batchSize() int {
	if s.BatchSize <= 0 {
		return defaultBatchSize
	}
	return s.BatchSize
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
