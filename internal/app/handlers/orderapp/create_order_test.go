package orderapp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentwheels/internal/app/policies"
	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domainlock "rentwheels/internal/domain/lock"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/money"
	domainrange "rentwheels/internal/domain/shared/timerange"
	domainvehicle "rentwheels/internal/domain/vehicle"
	"rentwheels/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type fakeGateway struct {
	createdAmount int64
	createdNotes  map[string]string
	failCreate    error
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (policies.GatewayOrder, error) {
	if g.failCreate != nil {
		return policies.GatewayOrder{}, g.failCreate
	}
	g.createdAmount = amountPaise
	g.createdNotes = notes
	return policies.GatewayOrder{ID: "order_123", AmountPaise: amountPaise, Currency: currency, Receipt: receipt, Notes: notes}, nil
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (policies.GatewayPayment, error) {
	return policies.GatewayPayment{}, nil
}

func (g *fakeGateway) FetchOrder(ctx context.Context, orderID string) (policies.GatewayOrder, error) {
	return policies.GatewayOrder{}, nil
}

type orderFixture struct {
	factory memory.Factory
	gateway *fakeGateway
	handler *CreateOrderHandler
}

func newOrderFixture(t *testing.T, dailyRate int64) *orderFixture {
	t.Helper()
	f := &orderFixture{
		factory: memory.NewFactory(),
		gateway: &fakeGateway{},
	}
	err := f.factory.VehicleRepo.Save(context.Background(), &domainvehicle.Vehicle{
		ID:        "veh-1",
		City:      "bengaluru",
		DailyRate: money.Must(dailyRate),
		Active:    true,
	})
	require.NoError(t, err)
	f.handler = &CreateOrderHandler{
		UoWFactory:   f.factory,
		Gateway:      f.gateway,
		Calculator:   domainpricing.Calculator{Tiers: domainpricing.DefaultTierTable()},
		GatewayKeyID: "key_test",
		Now:          func() time.Time { return testNow },
	}
	return f
}

func orderCmd() CreateOrderCommand {
	return CreateOrderCommand{
		VehicleID:  "veh-1",
		CustomerID: "cust-1",
		Pickup:     testNow.Add(time.Hour),
		Return:     testNow.Add(9 * time.Hour),
	}
}

func TestCreateOrderPricesServerSide(t *testing.T) {
	f := newOrderFixture(t, 2400)

	res, err := f.handler.Handle(context.Background(), orderCmd())
	require.NoError(t, err)

	assert.Equal(t, "order_123", res.OrderID)
	assert.Equal(t, "key_test", res.GatewayKey)
	assert.Equal(t, int64(2393), res.Pricing.Total)
	assert.Equal(t, int64(239300), f.gateway.createdAmount, "gateway receives paise")

	notes := f.gateway.createdNotes
	assert.Equal(t, "veh-1", notes["vehicle_id"])
	assert.Equal(t, "cust-1", notes["customer_id"])
	assert.Equal(t, "2393", notes["calculated_total"])
	assert.Equal(t, "8", notes["hours"])
	assert.Equal(t, "0", notes["discount"])
	assert.NotContains(t, notes, "coupon_code")

	parsed, err := policies.NotesFromMap(notes)
	require.NoError(t, err, "notes must round-trip for the completion phase")
	assert.Equal(t, int64(2393), parsed.CalculatedTotal)
}

func TestCreateOrderRejectsShortWindow(t *testing.T) {
	f := newOrderFixture(t, 2400)
	cmd := orderCmd()
	cmd.Return = cmd.Pickup.Add(3 * time.Hour)

	_, err := f.handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrWindowTooShort)
}

func TestCreateOrderRejectsForeignLock(t *testing.T) {
	f := newOrderFixture(t, 2400)
	window, err := domainrange.New(testNow.Add(time.Hour), testNow.Add(9*time.Hour))
	require.NoError(t, err)
	held, err := domainlock.NewLock(domainlock.CreateParams{
		ID: "lock-1", VehicleID: "veh-1", CustomerID: "cust-2", Window: window, Now: testNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.factory.LockRepo.Create(context.Background(), held))

	_, err = f.handler.Handle(context.Background(), orderCmd())
	require.ErrorIs(t, err, domainlock.ErrHeldByOther)
}

func TestCreateOrderAllowsOwnLock(t *testing.T) {
	f := newOrderFixture(t, 2400)
	window, err := domainrange.New(testNow.Add(time.Hour), testNow.Add(9*time.Hour))
	require.NoError(t, err)
	held, err := domainlock.NewLock(domainlock.CreateParams{
		ID: "lock-1", VehicleID: "veh-1", CustomerID: "cust-1", Window: window, Now: testNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.factory.LockRepo.Create(context.Background(), held))

	_, err = f.handler.Handle(context.Background(), orderCmd())
	assert.NoError(t, err)
}

func TestCreateOrderRejectsOverlap(t *testing.T) {
	f := newOrderFixture(t, 2400)
	window, err := domainrange.New(testNow.Add(4*time.Hour), testNow.Add(12*time.Hour))
	require.NoError(t, err)
	quote, err := f.handler.Calculator.Compute(money.Must(2400), window.Pickup, window.Return, money.Money{})
	require.NoError(t, err)
	existing, err := domainbooking.NewConfirmed(domainbooking.CreateParams{
		ID: "bk-1", CustomerID: "cust-9", VehicleID: "veh-1", Window: window,
		Price: quote, PaymentID: "pay_1", OrderID: "order_1", Now: testNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.factory.BookingRepo.Save(context.Background(), existing))

	_, err = f.handler.Handle(context.Background(), orderCmd())
	require.ErrorIs(t, err, domainbooking.ErrWindowUnavailable)

	var unavailable *domainbooking.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, window.Pickup, unavailable.Conflict.Start)
	assert.Equal(t, window.Return, unavailable.Conflict.End)
}

func TestCreateOrderAllowsBackToBackBooking(t *testing.T) {
	f := newOrderFixture(t, 2400)
	window, err := domainrange.New(testNow.Add(9*time.Hour), testNow.Add(17*time.Hour))
	require.NoError(t, err)
	quote, err := f.handler.Calculator.Compute(money.Must(2400), window.Pickup, window.Return, money.Money{})
	require.NoError(t, err)
	existing, err := domainbooking.NewConfirmed(domainbooking.CreateParams{
		ID: "bk-1", CustomerID: "cust-9", VehicleID: "veh-1", Window: window,
		Price: quote, PaymentID: "pay_1", OrderID: "order_1", Now: testNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.factory.BookingRepo.Save(context.Background(), existing))

	_, err = f.handler.Handle(context.Background(), orderCmd())
	assert.NoError(t, err, "touching endpoints do not conflict")
}

func TestCreateOrderEnforcesPriceCeiling(t *testing.T) {
	f := newOrderFixture(t, 2_000_000)
	_, err := f.handler.Handle(context.Background(), orderCmd())
	assert.ErrorIs(t, err, ErrPriceOutOfBounds)
}

func TestCreateOrderAppliesCoupon(t *testing.T) {
	f := newOrderFixture(t, 2400)
	coupons, ok := f.factory.CouponRepo.(*memory.CouponRepository)
	require.True(t, ok)
	coupons.Put(&domaincoupon.Coupon{
		Code:          "RIDE10",
		DiscountType:  domaincoupon.Percentage,
		DiscountValue: 10,
		MaxDiscount:   money.Must(100),
		MinAmount:     money.Must(1000),
		ValidFrom:     testNow.Add(-time.Hour),
		ValidUntil:    testNow.Add(time.Hour),
	})

	cmd := orderCmd()
	cmd.CouponCode = "RIDE10"
	res, err := f.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, int64(100), res.Pricing.Discount, "10% of 2393 capped at 100")
	assert.Equal(t, int64(2293), res.Pricing.Total)
	assert.Equal(t, "RIDE10", f.gateway.createdNotes["coupon_code"])
	assert.Equal(t, "100", f.gateway.createdNotes["discount"])
}

func TestCreateOrderRejectsIneligibleCoupon(t *testing.T) {
	f := newOrderFixture(t, 2400)
	coupons, ok := f.factory.CouponRepo.(*memory.CouponRepository)
	require.True(t, ok)
	coupons.Put(&domaincoupon.Coupon{
		Code:          "STALE",
		DiscountType:  domaincoupon.Fixed,
		DiscountValue: 100,
		ValidUntil:    testNow.Add(-time.Hour),
	})

	cmd := orderCmd()
	cmd.CouponCode = "STALE"
	_, err := f.handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domaincoupon.ErrExpired)

	cmd.CouponCode = "MISSING"
	_, err = f.handler.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, domaincoupon.ErrNotFound)
}
