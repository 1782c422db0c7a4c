package coupon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rentwheels/internal/domain/shared/money"
)

var now = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func validCoupon() Coupon {
	return Coupon{
		Code:          "RIDE10",
		DiscountType:  Percentage,
		DiscountValue: 10,
		MaxDiscount:   money.Must(300),
		MinAmount:     money.Must(1000),
		UsageLimit:    100,
		UsedCount:     5,
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
	}
}

func TestDiscountForPercentage(t *testing.T) {
	c := validCoupon()
	assert.Equal(t, int64(239), c.DiscountFor(money.Must(2393)).Amount)
}

func TestDiscountForPercentageCapped(t *testing.T) {
	c := validCoupon()
	assert.Equal(t, int64(300), c.DiscountFor(money.Must(9000)).Amount, "max discount caps the percentage")
}

func TestDiscountForFixedClampsToTotal(t *testing.T) {
	c := Coupon{Code: "FLAT500", DiscountType: Fixed, DiscountValue: 500}
	assert.Equal(t, int64(500), c.DiscountFor(money.Must(2000)).Amount)
	assert.Equal(t, int64(300), c.DiscountFor(money.Must(300)).Amount, "discount never exceeds the total")
}

func TestEvaluateStandardRules(t *testing.T) {
	history := History{UsedCodes: []string{"WELCOME"}}

	t.Run("eligible", func(t *testing.T) {
		assert.NoError(t, Evaluate(validCoupon(), history, money.Must(2393), now, StandardRules()))
	})

	t.Run("outside validity window", func(t *testing.T) {
		c := validCoupon()
		c.ValidUntil = now.Add(-time.Hour)
		assert.ErrorIs(t, Evaluate(c, history, money.Must(2393), now, StandardRules()), ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := validCoupon()
		c.ValidFrom = now.Add(time.Hour)
		assert.ErrorIs(t, Evaluate(c, history, money.Must(2393), now, StandardRules()), ErrExpired)
	})

	t.Run("below minimum amount", func(t *testing.T) {
		assert.ErrorIs(t, Evaluate(validCoupon(), history, money.Must(999), now, StandardRules()), ErrMinAmount)
	})

	t.Run("usage limit reached", func(t *testing.T) {
		c := validCoupon()
		c.UsedCount = c.UsageLimit
		assert.ErrorIs(t, Evaluate(c, history, money.Must(2393), now, StandardRules()), ErrExhausted)
	})

	t.Run("unlimited when limit is zero", func(t *testing.T) {
		c := validCoupon()
		c.UsageLimit = 0
		c.UsedCount = 100000
		assert.NoError(t, Evaluate(c, history, money.Must(2393), now, StandardRules()))
	})

	t.Run("single use already redeemed", func(t *testing.T) {
		c := validCoupon()
		c.SingleUse = true
		used := History{UsedCodes: []string{c.Code}}
		assert.ErrorIs(t, Evaluate(c, used, money.Must(2393), now, StandardRules()), ErrAlreadyUsed)
	})

	t.Run("prerequisite missing", func(t *testing.T) {
		c := validCoupon()
		c.RequiredPrevious = []string{"FIRSTRIDE"}
		assert.ErrorIs(t, Evaluate(c, history, money.Must(2393), now, StandardRules()), ErrPrerequisite)
	})

	t.Run("prerequisite satisfied", func(t *testing.T) {
		c := validCoupon()
		c.RequiredPrevious = []string{"WELCOME"}
		assert.NoError(t, Evaluate(c, history, money.Must(2393), now, StandardRules()))
	})
}
