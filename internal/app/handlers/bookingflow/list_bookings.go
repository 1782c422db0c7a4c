package bookingflow

import (
	"context"

	"rentwheels/internal/app/handlers/support"
	"rentwheels/internal/app/queries"
	"rentwheels/internal/app/uow"
)

const listBookingsKey = "booking.list_by_customer"

type ListBookingsQuery struct {
	CustomerID string
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

type ListBookingsResult struct {
	Bookings []BookingSummary `json:"bookings"`
}

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (*ListBookingsResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Bookings().ListByCustomer(ctx, q.CustomerID)
	if err != nil {
		return nil, err
	}
	result := &ListBookingsResult{Bookings: make([]BookingSummary, 0, len(items))}
	for _, b := range items {
		result.Bookings = append(result.Bookings, BookingSummary{
			BookingID:     string(b.ID),
			VehicleID:     string(b.VehicleID),
			Pickup:        b.Window.Pickup,
			Return:        b.Window.Return,
			Total:         b.Price.Total.Amount,
			PaymentID:     b.PaymentID,
			OrderID:       b.OrderID,
			AppliedCoupon: b.AppliedCoupon,
		})
	}
	return result, nil
}

var _ queries.Handler[ListBookingsQuery, *ListBookingsResult] = (*ListBookingsHandler)(nil)
