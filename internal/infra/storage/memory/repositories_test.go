package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlock "rentwheels/internal/domain/lock"
	domainrange "rentwheels/internal/domain/shared/timerange"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newLock(t *testing.T, id, customerID string, now time.Time) *domainlock.Lock {
	t.Helper()
	window, err := domainrange.New(now.Add(time.Hour), now.Add(9*time.Hour))
	require.NoError(t, err)
	l, err := domainlock.NewLock(domainlock.CreateParams{
		ID: domainlock.LockID(id), VehicleID: "veh-1", CustomerID: customerID, Window: window, Now: now,
	})
	require.NoError(t, err)
	l.ClearEvents()
	return l
}

func TestLockCreateRejectsLiveHolder(t *testing.T) {
	repo := NewLockRepository()
	first := newLock(t, "lock-1", "cust-1", testNow)
	require.NoError(t, repo.Create(context.Background(), first))

	err := repo.Create(context.Background(), newLock(t, "lock-2", "cust-2", testNow.Add(5*time.Minute)))
	require.ErrorIs(t, err, domainlock.ErrHeldByOther)

	var lockedErr *domainlock.LockedByOtherError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, first.ExpiresAt, lockedErr.ExpiresAt)
}

func TestLockCreateReplacesExpiredRow(t *testing.T) {
	repo := NewLockRepository()
	require.NoError(t, repo.Create(context.Background(), newLock(t, "lock-1", "cust-1", testNow)))

	later := testNow.Add(domainlock.InitialTTL + time.Second)
	fresh := newLock(t, "lock-2", "cust-2", later)
	require.NoError(t, repo.Create(context.Background(), fresh), "a lapsed hold reads as absent")

	old, err := repo.ByID(context.Background(), "lock-1")
	require.NoError(t, err)
	assert.Equal(t, domainlock.StateExpired, old.Status)

	active, err := repo.ActiveByVehicle(context.Background(), "veh-1", later)
	require.NoError(t, err)
	assert.Equal(t, domainlock.LockID("lock-2"), active.ID)
}
