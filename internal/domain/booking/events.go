package booking

import (
	"time"

	"rentwheels/internal/domain/shared/money"
	"rentwheels/internal/domain/shared/timerange"
)

type BookingConfirmed struct {
	BookingID  BookingID
	VehicleID  string
	CustomerID string
	Window     timerange.TimeRange
	Total      money.Money
	At         time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	VehicleID string
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
