package couponapp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/money"
	domainrange "rentwheels/internal/domain/shared/timerange"
	"rentwheels/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newValidateHandler(factory memory.Factory) *ValidateCouponHandler {
	return &ValidateCouponHandler{UoWFactory: factory, Now: func() time.Time { return testNow }}
}

func putCoupon(t *testing.T, factory memory.Factory, c *domaincoupon.Coupon) {
	t.Helper()
	coupons, ok := factory.CouponRepo.(*memory.CouponRepository)
	require.True(t, ok)
	coupons.Put(c)
}

func TestValidateCouponPreviewsDiscount(t *testing.T) {
	factory := memory.NewFactory()
	putCoupon(t, factory, &domaincoupon.Coupon{
		Code:          "RIDE10",
		DiscountType:  domaincoupon.Percentage,
		DiscountValue: 10,
		MaxDiscount:   money.Must(300),
		ValidFrom:     testNow.Add(-time.Hour),
		ValidUntil:    testNow.Add(time.Hour),
	})

	res, err := newValidateHandler(factory).Handle(context.Background(),
		ValidateCouponQuery{Code: "RIDE10", CustomerID: "cust-1", OrderTotal: 2393})
	require.NoError(t, err)
	assert.Equal(t, "RIDE10", res.Code)
	assert.Equal(t, int64(239), res.Discount)
}

func TestValidateCouponUnknownCode(t *testing.T) {
	_, err := newValidateHandler(memory.NewFactory()).Handle(context.Background(),
		ValidateCouponQuery{Code: "MISSING", CustomerID: "cust-1", OrderTotal: 2393})
	assert.ErrorIs(t, err, domaincoupon.ErrNotFound)
}

func TestValidateCouponBelowMinimum(t *testing.T) {
	factory := memory.NewFactory()
	putCoupon(t, factory, &domaincoupon.Coupon{
		Code:          "BIGSPEND",
		DiscountType:  domaincoupon.Fixed,
		DiscountValue: 500,
		MinAmount:     money.Must(5000),
	})

	_, err := newValidateHandler(factory).Handle(context.Background(),
		ValidateCouponQuery{Code: "BIGSPEND", CustomerID: "cust-1", OrderTotal: 2393})
	assert.ErrorIs(t, err, domaincoupon.ErrMinAmount)
}

func TestValidateCouponUsesBookingHistory(t *testing.T) {
	factory := memory.NewFactory()
	putCoupon(t, factory, &domaincoupon.Coupon{
		Code:             "LOYAL",
		DiscountType:     domaincoupon.Fixed,
		DiscountValue:    200,
		RequiredPrevious: []string{"WELCOME"},
	})

	h := newValidateHandler(factory)
	query := ValidateCouponQuery{Code: "LOYAL", CustomerID: "cust-1", OrderTotal: 2393}

	_, err := h.Handle(context.Background(), query)
	assert.ErrorIs(t, err, domaincoupon.ErrPrerequisite)

	window, err := domainrange.New(testNow.Add(-48*time.Hour), testNow.Add(-40*time.Hour))
	require.NoError(t, err)
	calculator := domainpricing.Calculator{Tiers: domainpricing.DefaultTierTable()}
	quote, err := calculator.Compute(money.Must(2400), window.Pickup, window.Return, money.Money{})
	require.NoError(t, err)
	prior, err := domainbooking.NewConfirmed(domainbooking.CreateParams{
		ID: "bk-0", CustomerID: "cust-1", VehicleID: "veh-1", Window: window,
		Price: quote, PaymentID: "pay_0", OrderID: "order_0", Coupon: "WELCOME", Now: testNow.Add(-48 * time.Hour),
	})
	require.NoError(t, err)
	prior.ClearEvents()
	require.NoError(t, factory.BookingRepo.Save(context.Background(), prior))

	res, err := h.Handle(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.Discount)
}
