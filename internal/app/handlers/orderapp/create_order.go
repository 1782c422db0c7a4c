package orderapp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rentwheels/internal/app/commands"
	"rentwheels/internal/app/handlers/support"
	"rentwheels/internal/app/policies"
	"rentwheels/internal/app/uow"
	domainbooking "rentwheels/internal/domain/booking"
	domaincoupon "rentwheels/internal/domain/coupon"
	domainlock "rentwheels/internal/domain/lock"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/money"
	domainrange "rentwheels/internal/domain/shared/timerange"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

const createOrderKey = "order.create"

var (
	ErrPriceOutOfBounds = errors.New("orderapp: computed total out of bounds")
	ErrWindowTooShort   = errors.New("orderapp: rental window below minimum duration")
)

// MaxOrderTotal is the hard ceiling in rupees for a single order.
const MaxOrderTotal int64 = 100000

type CreateOrderCommand struct {
	VehicleID       string
	CustomerID      string
	Pickup          time.Time
	Return          time.Time
	CouponCode      string
	IdempotencyKeyV string
}

func (c CreateOrderCommand) Key() string { return createOrderKey }

func (c CreateOrderCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateOrderCommand) ResultPrototype() any { return &CreateOrderResult{} }

type PriceBreakdown struct {
	Hours              int   `json:"hours"`
	Tier               int   `json:"tier"`
	BaseHourlyRate     int64 `json:"base_hourly_rate"`
	AdjustedHourlyRate int64 `json:"adjusted_hourly_rate"`
	RentalCost         int64 `json:"rental_cost"`
	InsuranceCost      int64 `json:"insurance_cost"`
	ConvenienceFee     int64 `json:"convenience_fee"`
	GST                int64 `json:"gst"`
	Discount           int64 `json:"discount"`
	Total              int64 `json:"total"`
}

type CreateOrderResult struct {
	OrderID    string         `json:"order_id"`
	GatewayKey string         `json:"gateway_key"`
	Pricing    PriceBreakdown `json:"pricing"`
}

type CreateOrderHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Calculator domainpricing.Calculator
	// GatewayKeyID is the public key the payment widget needs; never the secret.
	GatewayKeyID string
	CouponRules  []domaincoupon.Rule
	Now          func() time.Time
}

// Handle is phase A of the reconciliation protocol: price the window from the
// server-held daily rate, re-check conflicts, then create a gateway order whose
// notes carry the only values completion will trust. The client receives the
// order id and breakdown but never dictates the charged amount.
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*CreateOrderResult, error) {
	unit, ctx, managed, err := support.Begin(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	window, err := domainrange.New(cmd.Pickup, cmd.Return)
	if err != nil {
		return nil, domainpricing.ErrInvalidWindow
	}
	if window.Hours() < domainpricing.MinBookableHours {
		return nil, ErrWindowTooShort
	}
	now := h.now()

	veh, err := unit.Vehicles().ByID(ctx, domainvehicle.VehicleID(cmd.VehicleID))
	if err != nil {
		return nil, err
	}

	// Guards run in addition to each other: a live lock held by someone else
	// blocks the order even though the overlap check below would pass.
	if held, err := unit.Locks().ActiveByVehicle(ctx, cmd.VehicleID, now); err == nil {
		if !held.HeldBy(cmd.CustomerID) {
			return nil, &domainlock.LockedByOtherError{VehicleID: cmd.VehicleID, ExpiresAt: held.ExpiresAt}
		}
	} else if !errors.Is(err, domainlock.ErrNotFound) {
		return nil, err
	}

	conflict, err := domainbooking.FindOverlap(ctx, unit.Bookings(), veh.ID, window)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &domainbooking.UnavailableError{Conflict: *conflict}
	}

	discount, err := h.resolveDiscount(ctx, unit, cmd, veh, window, now)
	if err != nil {
		return nil, err
	}

	quote, err := h.Calculator.Compute(veh.DailyRate, window.Pickup, window.Return, discount)
	if err != nil {
		return nil, err
	}
	if quote.Total.Amount <= 0 || quote.Total.Amount > MaxOrderTotal {
		return nil, ErrPriceOutOfBounds
	}

	notes := policies.OrderNotes{
		VehicleID:       string(veh.ID),
		CustomerID:      cmd.CustomerID,
		Tier:            int(quote.Tier),
		Hours:           quote.Hours,
		Pickup:          window.Pickup,
		Return:          window.Return,
		Discount:        quote.Discount.Amount,
		CalculatedTotal: quote.Total.Amount,
		CouponCode:      cmd.CouponCode,
	}
	order, err := h.Gateway.CreateOrder(ctx, quote.Total.Paise(), "INR", receiptID(), notes.ToMap())
	if err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CreateOrderResult{
		OrderID:    order.ID,
		GatewayKey: h.GatewayKeyID,
		Pricing:    ToBreakdown(quote),
	}, nil
}

// resolveDiscount re-derives the coupon discount server-side; the client's
// preview from the validate endpoint is never trusted.
func (h *CreateOrderHandler) resolveDiscount(ctx context.Context, unit uow.UnitOfWork, cmd CreateOrderCommand, veh *domainvehicle.Vehicle, window domainrange.TimeRange, now time.Time) (money.Money, error) {
	if cmd.CouponCode == "" {
		return money.Money{}, nil
	}
	cpn, err := unit.Coupons().ByCode(ctx, cmd.CouponCode)
	if err != nil {
		return money.Money{}, err
	}
	history, err := couponHistory(ctx, unit, cmd.CustomerID)
	if err != nil {
		return money.Money{}, err
	}
	base, err := h.Calculator.Compute(veh.DailyRate, window.Pickup, window.Return, money.Money{})
	if err != nil {
		return money.Money{}, err
	}
	rules := h.CouponRules
	if rules == nil {
		rules = domaincoupon.StandardRules()
	}
	if err := domaincoupon.Evaluate(*cpn, history, base.Total, now, rules); err != nil {
		return money.Money{}, err
	}
	return cpn.DiscountFor(base.Total), nil
}

func couponHistory(ctx context.Context, unit uow.UnitOfWork, customerID string) (domaincoupon.History, error) {
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

func (h *CreateOrderHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func receiptID() string {
	return "rcpt_" + uuid.NewString()
}

// ToBreakdown maps a domain quote onto the wire breakdown.
func ToBreakdown(q domainpricing.Quote) PriceBreakdown {
	return PriceBreakdown{
		Hours:              q.Hours,
		Tier:               int(q.Tier),
		BaseHourlyRate:     q.BaseHourlyRate.Amount,
		AdjustedHourlyRate: q.AdjustedHourlyRate.Amount,
		RentalCost:         q.RentalCost.Amount,
		InsuranceCost:      q.InsuranceCost.Amount,
		ConvenienceFee:     q.ConvenienceFee.Amount,
		GST:                q.GST.Amount,
		Discount:           q.Discount.Amount,
		Total:              q.Total.Amount,
	}
}

var _ commands.Handler[CreateOrderCommand, *CreateOrderResult] = (*CreateOrderHandler)(nil)
