package bookingflow

import (
	"context"

	"rentwheels/internal/app/handlers/support"
	"rentwheels/internal/app/queries"
	"rentwheels/internal/app/uow"
	domainbooking "rentwheels/internal/domain/booking"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID  string
	CustomerID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

// GetBookingHandler serves the confirmation page after completion. Foreign
// bookings read as absent.
type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*BookingSummary, error) {
	unit, ctx, cleanup, err := support.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bk, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return nil, err
	}
	if bk.CustomerID != q.CustomerID {
		return nil, domainbooking.ErrNotFound
	}
	return &BookingSummary{
		BookingID:     string(bk.ID),
		VehicleID:     string(bk.VehicleID),
		Pickup:        bk.Window.Pickup,
		Return:        bk.Window.Return,
		Total:         bk.Price.Total.Amount,
		PaymentID:     bk.PaymentID,
		OrderID:       bk.OrderID,
		AppliedCoupon: bk.AppliedCoupon,
	}, nil
}

var _ queries.Handler[GetBookingQuery, *BookingSummary] = (*GetBookingHandler)(nil)
