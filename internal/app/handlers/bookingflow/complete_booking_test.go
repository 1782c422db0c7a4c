package bookingflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentwheels/internal/app/policies"
	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domaincustomer "rentwheels/internal/domain/customer"
	domainlock "rentwheels/internal/domain/lock"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/money"
	domainrange "rentwheels/internal/domain/shared/timerange"
	domainvehicle "rentwheels/internal/domain/vehicle"
	"rentwheels/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type stubGateway struct {
	payment policies.GatewayPayment
	order   policies.GatewayOrder
}

func (g *stubGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (policies.GatewayOrder, error) {
	return policies.GatewayOrder{}, errors.New("not used")
}

func (g *stubGateway) FetchPayment(ctx context.Context, paymentID string) (policies.GatewayPayment, error) {
	return g.payment, nil
}

func (g *stubGateway) FetchOrder(ctx context.Context, orderID string) (policies.GatewayOrder, error) {
	return g.order, nil
}

type captureNotifier struct {
	notices chan policies.BookingNotice
}

func (n *captureNotifier) BookingConfirmed(ctx context.Context, notice policies.BookingNotice) error {
	n.notices <- notice
	return nil
}

type completeFixture struct {
	factory memory.Factory
	gateway *stubGateway
	outbox  *memory.Outbox
	handler *CompleteBookingHandler
	window  domainrange.TimeRange
	quote   domainpricing.Quote
}

func newCompleteFixture(t *testing.T, couponCode string, discount int64) *completeFixture {
	t.Helper()
	f := &completeFixture{
		factory: memory.NewFactory(),
		gateway: &stubGateway{},
		outbox:  memory.NewOutbox(),
	}
	calculator := domainpricing.Calculator{Tiers: domainpricing.DefaultTierTable()}

	require.NoError(t, f.factory.VehicleRepo.Save(context.Background(), &domainvehicle.Vehicle{
		ID:        "veh-1",
		City:      "bengaluru",
		DailyRate: money.Must(2400),
		Active:    true,
	}))

	var err error
	f.window, err = domainrange.New(testNow.Add(time.Hour), testNow.Add(9*time.Hour))
	require.NoError(t, err)
	f.quote, err = calculator.Compute(money.Must(2400), f.window.Pickup, f.window.Return, money.Money{Amount: discount})
	require.NoError(t, err)

	notes := policies.OrderNotes{
		VehicleID:       "veh-1",
		CustomerID:      "cust-1",
		Tier:            int(f.quote.Tier),
		Hours:           f.quote.Hours,
		Pickup:          f.window.Pickup,
		Return:          f.window.Return,
		Discount:        discount,
		CalculatedTotal: f.quote.Total.Amount,
		CouponCode:      couponCode,
	}
	f.gateway.order = policies.GatewayOrder{
		ID:          "order_123",
		AmountPaise: f.quote.Total.Paise(),
		Currency:    "INR",
		Notes:       notes.ToMap(),
	}
	f.gateway.payment = policies.GatewayPayment{
		ID:          "pay_123",
		OrderID:     "order_123",
		Status:      "captured",
		AmountPaise: f.quote.Total.Paise(),
	}

	f.handler = &CompleteBookingHandler{
		UoWFactory: f.factory,
		Gateway:    f.gateway,
		Calculator: calculator,
		Outbox:     f.outbox,
		Now:        func() time.Time { return testNow },
	}
	return f
}

func completeCmd() CompleteBookingCommand {
	return CompleteBookingCommand{VehicleID: "veh-1", CustomerID: "cust-1", PaymentID: "pay_123"}
}

func TestCompleteBookingHappyPath(t *testing.T) {
	f := newCompleteFixture(t, "", 0)

	res, err := f.handler.Handle(context.Background(), completeCmd())
	require.NoError(t, err)

	assert.NotEmpty(t, res.BookingID)
	assert.Equal(t, "veh-1", res.VehicleID)
	assert.Equal(t, f.quote.Total.Amount, res.Total)
	assert.Equal(t, "pay_123", res.PaymentID)
	assert.Equal(t, "order_123", res.OrderID)

	bk, err := f.factory.BookingRepo.ByID(context.Background(), domainbooking.BookingID(res.BookingID))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateConfirmed, bk.Status)
	assert.Equal(t, f.quote.Total.Amount, bk.Price.Total.Amount)

	veh, err := f.factory.VehicleRepo.ByID(context.Background(), "veh-1")
	require.NoError(t, err)
	assert.Equal(t, f.window.Return.Add(2*time.Hour), veh.NextAvailable, "buffer advances availability")

	names := make([]string, 0)
	for _, rec := range f.outbox.Records() {
		names = append(names, rec.Name)
	}
	assert.Contains(t, names, "booking.confirmed")
}

func TestCompleteBookingConvertsHeldLock(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	held, err := domainlock.NewLock(domainlock.CreateParams{
		ID: "lock-1", VehicleID: "veh-1", CustomerID: "cust-1", Window: f.window, Now: testNow,
	})
	require.NoError(t, err)
	held.ClearEvents()
	require.NoError(t, f.factory.LockRepo.Create(context.Background(), held))

	_, err = f.handler.Handle(context.Background(), completeCmd())
	require.NoError(t, err)

	stored, err := f.factory.LockRepo.ByID(context.Background(), "lock-1")
	require.NoError(t, err)
	assert.Equal(t, domainlock.StateConverted, stored.Status)

	names := make([]string, 0)
	for _, rec := range f.outbox.Records() {
		names = append(names, rec.Name)
	}
	assert.Contains(t, names, "lock.converted")
}

func TestCompleteBookingRejectsUncapturedPayment(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	f.gateway.payment.Status = "failed"

	_, err := f.handler.Handle(context.Background(), completeCmd())
	assert.ErrorIs(t, err, ErrPaymentNotCaptured)
}

func TestCompleteBookingRejectsAmountMismatch(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	f.gateway.payment.AmountPaise = (f.quote.Total.Amount - 1) * 100

	_, err := f.handler.Handle(context.Background(), completeCmd())
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestCompleteBookingToleratesSubPaisaDrift(t *testing.T) {
	for _, drift := range []int64{-1, 1} {
		f := newCompleteFixture(t, "", 0)
		f.gateway.payment.AmountPaise = f.quote.Total.Paise() + drift

		_, err := f.handler.Handle(context.Background(), completeCmd())
		assert.NoError(t, err, "one paisa either way is inside tolerance")
	}
}

func TestCompleteBookingRejectsTwoPaiseDrift(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	f.gateway.payment.AmountPaise = f.quote.Total.Paise() + 2

	_, err := f.handler.Handle(context.Background(), completeCmd())
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestCompleteBookingRejectsVehicleMismatch(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	cmd := completeCmd()
	cmd.VehicleID = "veh-2"

	_, err := f.handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrVehicleMismatch)
}

func TestCompleteBookingRejectsUserMismatch(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	cmd := completeCmd()
	cmd.CustomerID = "cust-2"

	_, err := f.handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrUserMismatch)
}

func TestCompleteBookingRejectsMalformedNotes(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	f.gateway.order.Notes = map[string]string{"vehicle_id": "veh-1"}

	_, err := f.handler.Handle(context.Background(), completeCmd())
	assert.ErrorIs(t, err, policies.ErrMalformedNotes)
}

func TestCompleteBookingRejectsDriftedPrice(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	// The rate card changed after order creation; recompute no longer matches
	// the notes and finalization must abort.
	require.NoError(t, f.factory.VehicleRepo.Save(context.Background(), &domainvehicle.Vehicle{
		ID:        "veh-1",
		City:      "bengaluru",
		DailyRate: money.Must(3000),
		Active:    true,
	}))

	_, err := f.handler.Handle(context.Background(), completeCmd())
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestCompleteBookingRejectsOverlap(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	existing, err := domainbooking.NewConfirmed(domainbooking.CreateParams{
		ID: "bk-1", CustomerID: "cust-9", VehicleID: "veh-1", Window: f.window,
		Price: f.quote, PaymentID: "pay_0", OrderID: "order_0", Now: testNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.factory.BookingRepo.Save(context.Background(), existing))

	_, err = f.handler.Handle(context.Background(), completeCmd())
	assert.ErrorIs(t, err, domainbooking.ErrWindowUnavailable)
}

func TestCompleteBookingIncrementsCouponBestEffort(t *testing.T) {
	f := newCompleteFixture(t, "RIDE10", 100)
	coupons, ok := f.factory.CouponRepo.(*memory.CouponRepository)
	require.True(t, ok)
	coupons.Put(&domaincoupon.Coupon{
		Code:          "RIDE10",
		DiscountType:  domaincoupon.Percentage,
		DiscountValue: 10,
		MaxDiscount:   money.Must(100),
		UsageLimit:    10,
	})

	res, err := f.handler.Handle(context.Background(), completeCmd())
	require.NoError(t, err)
	assert.Equal(t, "RIDE10", res.AppliedCoupon)

	stored, err := coupons.ByCode(context.Background(), "RIDE10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UsedCount)
}

func TestCompleteBookingSucceedsWhenCouponIncrementFails(t *testing.T) {
	// Coupon missing from the store: increment fails but the booking lands.
	f := newCompleteFixture(t, "GHOST", 0)

	res, err := f.handler.Handle(context.Background(), completeCmd())
	require.NoError(t, err)
	assert.Equal(t, "GHOST", res.AppliedCoupon)
}

func TestCompleteBookingNotifiesWithCustomerPhone(t *testing.T) {
	f := newCompleteFixture(t, "", 0)
	require.NoError(t, f.factory.CustomerRepo.Save(context.Background(), &domaincustomer.Customer{
		ID: "cust-1", Phone: "+919900112233", Name: "Asha",
	}))
	notifier := &captureNotifier{notices: make(chan policies.BookingNotice, 1)}
	f.handler.Notifier = notifier

	res, err := f.handler.Handle(context.Background(), completeCmd())
	require.NoError(t, err)

	select {
	case notice := <-notifier.notices:
		assert.Equal(t, res.BookingID, notice.BookingID)
		assert.Equal(t, "+919900112233", notice.Phone)
		assert.Equal(t, f.quote.Total.Amount, notice.TotalRupees)
	case <-time.After(2 * time.Second):
		t.Fatal("notification never fired")
	}
}
