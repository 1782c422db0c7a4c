package couponapp

import (
	"context"
	"time"

	"rentwheels/internal/app/handlers/support"
	"rentwheels/internal/app/queries"
	"rentwheels/internal/app/uow"
	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	"rentwheels/internal/domain/shared/money"
)

const validateCouponKey = "coupon.validate"

type ValidateCouponQuery struct {
	Code       string
	CustomerID string
	OrderTotal int64
}

func (q ValidateCouponQuery) Key() string { return validateCouponKey }

// ValidateCouponResult is a preview only; order creation re-derives the
// discount server-side.
type ValidateCouponResult struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
}

type ValidateCouponHandler struct {
	UoWFactory uow.UoWFactory
	Rules      []domaincoupon.Rule
	Now        func() time.Time
}

func (h *ValidateCouponHandler) Handle(ctx context.Context, q ValidateCouponQuery) (*ValidateCouponResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	cpn, err := unit.Coupons().ByCode(ctx, q.Code)
	if err != nil {
		return nil, err
	}
	history, err := h.history(ctx, unit, q.CustomerID)
	if err != nil {
		return nil, err
	}
	total := money.Money{Amount: q.OrderTotal}
	rules := h.Rules
	if rules == nil {
		rules = domaincoupon.StandardRules()
	}
	if err := domaincoupon.Evaluate(*cpn, history, total, h.now(), rules); err != nil {
		return nil, err
	}
	return &ValidateCouponResult{
		Code:     cpn.Code,
		Discount: cpn.DiscountFor(total).Amount,
	}, nil
}

func (h *ValidateCouponHandler) history(ctx context.Context, unit uow.UnitOfWork, customerID string) (domaincoupon.History, error) {
	bookings, err := unit.Bookings().ListByCustomer(ctx, customerID)
	if err != nil {
		return domaincoupon.History{}, err
	}
	var used []string
	for _, b := range bookings {
		if b.Status == domainbooking.StateConfirmed && b.AppliedCoupon != "" {
			used = append(used, b.AppliedCoupon)
		}
	}
	return domaincoupon.History{UsedCodes: used}, nil
}

func (h *ValidateCouponHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ queries.Handler[ValidateCouponQuery, *ValidateCouponResult] = (*ValidateCouponHandler)(nil)
