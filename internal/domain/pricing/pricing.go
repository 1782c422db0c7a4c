package pricing

import (
	"errors"
	"time"

	"rentwheels/internal/domain/shared/money"
	"rentwheels/internal/domain/shared/timerange"
)

var (
	ErrInvalidWindow = errors.New("pricing: return time must be after pickup time")
	ErrInvalidRate   = errors.New("pricing: daily rate must be positive")
	ErrNoTier        = errors.New("pricing: no tier covers requested duration")
)

const (
	// BaseConvenienceFee is charged on every booking before the tier add-on.
	BaseConvenienceFee int64 = 250
	// GSTRate applies to rental cost only, not insurance or convenience fee.
	GSTRate = 0.18
)

// Quote is the itemized result of a price calculation. It is derived, never persisted
// directly; the completion flow re-verifies it against gateway-held order notes.
type Quote struct {
	Hours              int
	Tier               TierID
	BaseHourlyRate     money.Money
	AdjustedHourlyRate money.Money
	RentalCost         money.Money
	InsuranceCost      money.Money
	ConvenienceFee     money.Money
	GST                money.Money
	Discount           money.Money
	Total              money.Money
}

// TotalBeforeDiscount reconstructs the pre-discount sum.
func (q Quote) TotalBeforeDiscount() money.Money {
	return q.Total.Add(q.Discount)
}

// Calculator computes quotes against an immutable tier table.
type Calculator struct {
	Tiers TierTable
}

// Compute prices a rental window. Pure: no clock, no store.
//
// Every intermediate value is rounded half-up to whole rupees at the step that
// produces it; the completion flow compares the result against the gateway-reported
// paid amount with a one-paisa tolerance, so the rounding order is load-bearing.
func (c Calculator) Compute(dailyRate money.Money, pickup, ret time.Time, discount money.Money) (Quote, error) {
	if dailyRate.Amount <= 0 {
		return Quote{}, ErrInvalidRate
	}
	window, err := timerange.New(pickup, ret)
	if err != nil {
		return Quote{}, ErrInvalidWindow
	}
	hours := window.Hours()
	tier, ok := c.Tiers.Select(hours)
	if !ok {
		return Quote{}, ErrNoTier
	}

	baseHourly := money.RoundHalfUp(float64(dailyRate.Amount) / 24)
	adjustedHourly := money.RoundHalfUp(float64(baseHourly.Amount) * (1 + tier.PriceAdjustment))
	rentalCost := money.RoundHalfUp(float64(hours) * float64(adjustedHourly.Amount))
	insuranceCost := money.RoundHalfUp(float64(dailyRate.Amount) / tier.InsuranceDivisor)
	convenienceFee := money.Money{Amount: BaseConvenienceFee + tier.ConvenienceAddOn}
	gst := money.RoundHalfUp(float64(rentalCost.Amount) * GSTRate)

	beforeDiscount := rentalCost.Add(insuranceCost).Add(convenienceFee).Add(gst)
	applied := discount.Clamp(money.Money{}, beforeDiscount)

	return Quote{
		Hours:              hours,
		Tier:               tier.ID,
		BaseHourlyRate:     baseHourly,
		AdjustedHourlyRate: adjustedHourly,
		RentalCost:         rentalCost,
		InsuranceCost:      insuranceCost,
		ConvenienceFee:     convenienceFee,
		GST:                gst,
		Discount:           applied,
		Total:              beforeDiscount.Sub(applied),
	}, nil
}
