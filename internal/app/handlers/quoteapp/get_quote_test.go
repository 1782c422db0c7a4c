package quoteapp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentwheels/internal/app/handlers/orderapp"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/money"
	domainvehicle "rentwheels/internal/domain/vehicle"
	"rentwheels/internal/infra/storage/memory"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newQuoteFixture(t *testing.T) (memory.Factory, *GetQuoteHandler) {
	t.Helper()
	factory := memory.NewFactory()
	require.NoError(t, factory.VehicleRepo.Save(context.Background(), &domainvehicle.Vehicle{
		ID:        "veh-1",
		City:      "bengaluru",
		DailyRate: money.Must(2400),
		Active:    true,
	}))
	return factory, &GetQuoteHandler{
		UoWFactory: factory,
		Calculator: domainpricing.Calculator{Tiers: domainpricing.DefaultTierTable()},
	}
}

func TestGetQuoteEightHours(t *testing.T) {
	_, h := newQuoteFixture(t)

	res, err := h.Handle(context.Background(), GetQuoteQuery{
		VehicleID: "veh-1",
		Pickup:    testNow.Add(time.Hour),
		Return:    testNow.Add(9 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1600), res.Pricing.RentalCost)
	assert.Equal(t, int64(255), res.Pricing.InsuranceCost)
	assert.Equal(t, int64(250), res.Pricing.ConvenienceFee)
	assert.Equal(t, int64(288), res.Pricing.GST)
	assert.Equal(t, int64(2393), res.Pricing.Total)
}

func TestGetQuoteAppliesDiscount(t *testing.T) {
	_, h := newQuoteFixture(t)

	res, err := h.Handle(context.Background(), GetQuoteQuery{
		VehicleID: "veh-1",
		Pickup:    testNow.Add(time.Hour),
		Return:    testNow.Add(9 * time.Hour),
		Discount:  100,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2293), res.Pricing.Total)
	assert.Equal(t, int64(100), res.Pricing.Discount)
}

func TestGetQuoteRejectsShortWindow(t *testing.T) {
	_, h := newQuoteFixture(t)

	_, err := h.Handle(context.Background(), GetQuoteQuery{
		VehicleID: "veh-1",
		Pickup:    testNow,
		Return:    testNow.Add(3 * time.Hour),
	})
	assert.ErrorIs(t, err, orderapp.ErrWindowTooShort)
}

func TestGetQuoteRejectsInvertedWindow(t *testing.T) {
	_, h := newQuoteFixture(t)

	_, err := h.Handle(context.Background(), GetQuoteQuery{
		VehicleID: "veh-1",
		Pickup:    testNow.Add(9 * time.Hour),
		Return:    testNow,
	})
	assert.ErrorIs(t, err, domainpricing.ErrInvalidWindow)
}

func TestGetQuoteUnknownVehicle(t *testing.T) {
	_, h := newQuoteFixture(t)

	_, err := h.Handle(context.Background(), GetQuoteQuery{
		VehicleID: "veh-missing",
		Pickup:    testNow.Add(time.Hour),
		Return:    testNow.Add(9 * time.Hour),
	})
	assert.ErrorIs(t, err, domainvehicle.ErrNotFound)
}
