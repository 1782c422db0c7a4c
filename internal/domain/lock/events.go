package lock

import "time"

type LockAcquired struct {
	LockID     LockID
	VehicleID  string
	CustomerID string
	ExpiresAt  time.Time
	At         time.Time
}

func (e LockAcquired) EventName() string     { return "lock.acquired" }
func (e LockAcquired) AggregateID() string   { return string(e.LockID) }
func (e LockAcquired) OccurredAt() time.Time { return e.At }

type LockRefreshed struct {
	LockID    LockID
	VehicleID string
	ExpiresAt time.Time
	At        time.Time
}

func (e LockRefreshed) EventName() string     { return "lock.refreshed" }
func (e LockRefreshed) AggregateID() string   { return string(e.LockID) }
func (e LockRefreshed) OccurredAt() time.Time { return e.At }

type LockReleased struct {
	LockID    LockID
	VehicleID string
	At        time.Time
}

func (e LockReleased) EventName() string     { return "lock.released" }
func (e LockReleased) AggregateID() string   { return string(e.LockID) }
func (e LockReleased) OccurredAt() time.Time { return e.At }

type LockConverted struct {
	LockID    LockID
	VehicleID string
	At        time.Time
}

func (e LockConverted) EventName() string     { return "lock.converted" }
func (e LockConverted) AggregateID() string   { return string(e.LockID) }
func (e LockConverted) OccurredAt() time.Time { return e.At }

type LockExpired struct {
	LockID    LockID
	VehicleID string
	At        time.Time
}

func (e LockExpired) EventName() string     { return "lock.expired" }
func (e LockExpired) AggregateID() string   { return string(e.LockID) }
func (e LockExpired) OccurredAt() time.Time { return e.At }
