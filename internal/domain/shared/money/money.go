package money

import (
	"errors"
	"math"
)

var ErrNegativeAmount = errors.New("money: amount cannot be negative")

// Money keeps amounts in integer INR to avoid floating point issues.
// Gateway calls convert to paise (minor units) at the boundary.
type Money struct {
	Amount int64
}

// New constructs a Money value rejecting negative amounts.
func New(amount int64) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{Amount: amount}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64) Money {
	m, err := New(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// RoundHalfUp rounds to the nearest integer rupee, halves away from zero.
func RoundHalfUp(v float64) Money {
	return Money{Amount: int64(math.Floor(v + 0.5))}
}

// Add adds two money values.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount}
}

// Sub subtracts other from the receiver; the result may go negative,
// callers clamp where the domain requires it.
func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount - other.Amount}
}

// Clamp bounds the amount into [lo, hi].
func (m Money) Clamp(lo, hi Money) Money {
	if m.Amount < lo.Amount {
		return lo
	}
	if m.Amount > hi.Amount {
		return hi
	}
	return m
}

// Paise returns the amount in minor units for gateway calls.
func (m Money) Paise() int64 {
	return m.Amount * 100
}

// FromPaise converts a gateway-reported minor-unit amount back to rupees,
// keeping the fractional remainder for tolerance checks.
func FromPaise(paise int64) float64 {
	return float64(paise) / 100
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}
