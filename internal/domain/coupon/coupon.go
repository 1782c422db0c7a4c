package coupon

import (
	"context"
	"errors"
	"time"

	"rentwheels/internal/domain/shared/money"
)

var (
	ErrNotFound     = errors.New("coupon: not found")
	ErrExpired      = errors.New("coupon: outside validity window")
	ErrMinAmount    = errors.New("coupon: order below minimum amount")
	ErrExhausted    = errors.New("coupon: usage limit reached")
	ErrAlreadyUsed  = errors.New("coupon: already used by this customer")
	ErrPrerequisite = errors.New("coupon: required previous coupons not used")
)

type DiscountType string

const (
	Percentage DiscountType = "percentage"
	Fixed      DiscountType = "fixed"
)

type Coupon struct {
	Code             string
	DiscountType     DiscountType
	DiscountValue    int64
	MaxDiscount      money.Money // zero means uncapped
	MinAmount        money.Money
	UsageLimit       int64 // zero means unlimited
	UsedCount        int64
	SingleUse        bool
	RequiredPrevious []string // coupon codes the customer must have redeemed before
	ValidFrom        time.Time
	ValidUntil       time.Time
}

// DiscountFor computes the rupee discount against a pre-discount total.
func (c Coupon) DiscountFor(total money.Money) money.Money {
	var d money.Money
	switch c.DiscountType {
	case Percentage:
		d = money.RoundHalfUp(float64(total.Amount) * float64(c.DiscountValue) / 100)
	case Fixed:
		d = money.Money{Amount: c.DiscountValue}
	}
	if c.MaxDiscount.Amount > 0 && d.Amount > c.MaxDiscount.Amount {
		d = c.MaxDiscount
	}
	return d.Clamp(money.Money{}, total)
}

type Repository interface {
	ByCode(ctx context.Context, code string) (*Coupon, error)
	// IncrementUsage must be an atomic store-level counter increment,
	// not read-modify-write, to survive concurrent redemptions.
	IncrementUsage(ctx context.Context, code string) error
}
