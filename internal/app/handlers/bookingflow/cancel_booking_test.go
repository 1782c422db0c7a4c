package bookingflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rentwheels/internal/domain/booking"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/money"
	domainrange "rentwheels/internal/domain/shared/timerange"
	"rentwheels/internal/infra/storage/memory"
)

func seedConfirmedBooking(t *testing.T, factory memory.Factory, id, customerID string) *domainbooking.Booking {
	t.Helper()
	window, err := domainrange.New(testNow.Add(time.Hour), testNow.Add(9*time.Hour))
	require.NoError(t, err)
	calculator := domainpricing.Calculator{Tiers: domainpricing.DefaultTierTable()}
	quote, err := calculator.Compute(money.Must(2400), window.Pickup, window.Return, money.Money{})
	require.NoError(t, err)
	bk, err := domainbooking.NewConfirmed(domainbooking.CreateParams{
		ID: domainbooking.BookingID(id), CustomerID: customerID, VehicleID: "veh-1",
		Window: window, Price: quote, PaymentID: "pay_1", OrderID: "order_1", Now: testNow,
	})
	require.NoError(t, err)
	bk.ClearEvents()
	require.NoError(t, factory.BookingRepo.Save(context.Background(), bk))
	return bk
}

func TestCancelBookingMarksCancelled(t *testing.T) {
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	seedConfirmedBooking(t, factory, "bk-1", "cust-1")

	h := &CancelBookingHandler{UoWFactory: factory, Outbox: box, Now: func() time.Time { return testNow }}
	res, err := h.Handle(context.Background(), CancelBookingCommand{BookingID: "bk-1", CustomerID: "cust-1", Reason: "change of plans"})
	require.NoError(t, err)
	assert.Equal(t, "bk-1", res.BookingID)
	assert.Equal(t, string(domainbooking.StateCancelled), res.Status)

	records := box.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "booking.cancelled", records[0].Name)
}

func TestCancelBookingHidesForeignBooking(t *testing.T) {
	factory := memory.NewFactory()
	seedConfirmedBooking(t, factory, "bk-1", "cust-1")

	h := &CancelBookingHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	_, err := h.Handle(context.Background(), CancelBookingCommand{BookingID: "bk-1", CustomerID: "cust-2"})
	assert.ErrorIs(t, err, domainbooking.ErrNotFound, "ownership failures read as absence")
}

func TestCancelBookingTwiceFails(t *testing.T) {
	factory := memory.NewFactory()
	seedConfirmedBooking(t, factory, "bk-1", "cust-1")

	h := &CancelBookingHandler{UoWFactory: factory, Outbox: memory.NewOutbox(), Now: func() time.Time { return testNow }}
	_, err := h.Handle(context.Background(), CancelBookingCommand{BookingID: "bk-1", CustomerID: "cust-1"})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), CancelBookingCommand{BookingID: "bk-1", CustomerID: "cust-1"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}

func TestListBookingsFiltersByCustomer(t *testing.T) {
	factory := memory.NewFactory()
	seedConfirmedBooking(t, factory, "bk-1", "cust-1")
	seedConfirmedBooking(t, factory, "bk-2", "cust-2")

	h := &ListBookingsHandler{UoWFactory: factory}
	res, err := h.Handle(context.Background(), ListBookingsQuery{CustomerID: "cust-1"})
	require.NoError(t, err)
	require.Len(t, res.Bookings, 1)
	assert.Equal(t, "bk-1", res.Bookings[0].BookingID)
	assert.Equal(t, "veh-1", res.Bookings[0].VehicleID)
	assert.Equal(t, int64(2393), res.Bookings[0].Total)
}

func TestGetBookingReturnsSummary(t *testing.T) {
	factory := memory.NewFactory()
	bk := seedConfirmedBooking(t, factory, "bk-1", "cust-1")

	h := &GetBookingHandler{UoWFactory: factory}
	res, err := h.Handle(context.Background(), GetBookingQuery{BookingID: "bk-1", CustomerID: "cust-1"})
	require.NoError(t, err)
	assert.Equal(t, "bk-1", res.BookingID)
	assert.Equal(t, bk.Price.Total.Amount, res.Total)
	assert.Equal(t, "pay_1", res.PaymentID)
}

func TestGetBookingHidesForeignBooking(t *testing.T) {
	factory := memory.NewFactory()
	seedConfirmedBooking(t, factory, "bk-1", "cust-1")

	h := &GetBookingHandler{UoWFactory: factory}
	_, err := h.Handle(context.Background(), GetBookingQuery{BookingID: "bk-1", CustomerID: "cust-2"})
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestListBookingsEmpty(t *testing.T) {
	h := &ListBookingsHandler{UoWFactory: memory.NewFactory()}
	res, err := h.Handle(context.Background(), ListBookingsQuery{CustomerID: "cust-9"})
	require.NoError(t, err)
	assert.Empty(t, res.Bookings)
}
