package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlock "rentwheels/internal/domain/lock"
	domainrange "rentwheels/internal/domain/shared/timerange"
	"rentwheels/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func seedLock(t *testing.T, factory memory.Factory, id string) *domainlock.Lock {
	t.Helper()
	window, err := domainrange.New(testNow.Add(time.Hour), testNow.Add(9*time.Hour))
	require.NoError(t, err)
	l, err := domainlock.NewLock(domainlock.CreateParams{
		ID: domainlock.LockID(id), VehicleID: "veh-" + id, CustomerID: "cust-1", Window: window, Now: testNow,
	})
	require.NoError(t, err)
	l.ClearEvents()
	require.NoError(t, factory.LockRepo.Create(context.Background(), l))
	return l
}

func TestSweepExpiresStaleLocks(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	seedLock(t, factory, "lock-1")
	seedLock(t, factory, "lock-2")

	s := &Sweeper{
		UoWFactory: factory,
		Outbox:     box,
		Now:        func() time.Time { return testNow.Add(domainlock.InitialTTL + time.Minute) },
	}
	require.NoError(t, s.sweepOnce(context.Background()))

	for _, id := range []string{"lock-1", "lock-2"} {
		stored, err := factory.LockRepo.ByID(context.Background(), domainlock.LockID(id))
		require.NoError(t, err)
		assert.Equal(t, domainlock.StateExpired, stored.Status)
	}
	records := box.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "lock.expired", records[0].Name)
}

func TestSweepLeavesLiveLocksAlone(t *testing.T) {
	factory := memory.NewFactory()
	seedLock(t, factory, "lock-1")

	s := &Sweeper{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
		Now:        func() time.Time { return testNow.Add(time.Minute) },
	}
	require.NoError(t, s.sweepOnce(context.Background()))

	stored, err := factory.LockRepo.ByID(context.Background(), "lock-1")
	require.NoError(t, err)
	assert.Equal(t, domainlock.StateActive, stored.Status)
}

func TestSweepRespectsBatchSize(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	for _, id := range []string{"lock-1", "lock-2", "lock-3"} {
		seedLock(t, factory, id)
	}

	s := &Sweeper{
		UoWFactory: factory,
		Outbox:     box,
		BatchSize:  2,
		Now:        func() time.Time { return testNow.Add(domainlock.InitialTTL + time.Minute) },
	}
	require.NoError(t, s.sweepOnce(context.Background()))
	assert.Len(t, box.Records(), 2, "one pass expires at most a batch")

	require.NoError(t, s.sweepOnce(context.Background()))
	assert.Len(t, box.Records(), 3, "the next pass picks up the remainder")
}
