package coupon

import (
	"time"

	"rentwheels/internal/domain/shared/money"
)

// History is the per-customer redemption record the rules evaluate against:
// coupon codes applied on the customer's prior confirmed bookings.
type History struct {
	UsedCodes []string
}

func (h History) Used(code string) bool {
	for _, c := range h.UsedCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Rule is one eligibility predicate. New sequencing rules are added here
// without touching the reconciliation flow.
type Rule func(c Coupon, h History, orderTotal money.Money, now time.Time) error

// StandardRules is the production rule chain, evaluated in order.
func StandardRules() []Rule {
	return []Rule{
		ValidityWindow,
		MinOrderAmount,
		UsageLimit,
		SingleUsePerCustomer,
		PreviousCouponsRequired,
	}
}

// Evaluate runs the rule chain and returns the first violation.
func Evaluate(c Coupon, h History, orderTotal money.Money, now time.Time, rules []Rule) error {
	for _, rule := range rules {
		if err := rule(c, h, orderTotal, now); err != nil {
			return err
		}
	}
	return nil
}

func ValidityWindow(c Coupon, _ History, _ money.Money, now time.Time) error {
	if !c.ValidFrom.IsZero() && now.Before(c.ValidFrom) {
		return ErrExpired
	}
	if !c.ValidUntil.IsZero() && now.After(c.ValidUntil) {
		return ErrExpired
	}
	return nil
}

func MinOrderAmount(c Coupon, _ History, orderTotal money.Money, _ time.Time) error {
	if orderTotal.Amount < c.MinAmount.Amount {
		return ErrMinAmount
	}
	return nil
}

func UsageLimit(c Coupon, _ History, _ money.Money, _ time.Time) error {
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ErrExhausted
	}
	return nil
}

func SingleUsePerCustomer(c Coupon, h History, _ money.Money, _ time.Time) error {
	if c.SingleUse && h.Used(c.Code) {
		return ErrAlreadyUsed
	}
	return nil
}

func PreviousCouponsRequired(c Coupon, h History, _ money.Money, _ time.Time) error {
	for _, required := range c.RequiredPrevious {
		if !h.Used(required) {
			return ErrPrerequisite
		}
	}
	return nil
}
