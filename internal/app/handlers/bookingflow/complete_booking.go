package bookingflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentwheels/internal/app/commands"
	"rentwheels/internal/app/handlers/support"
	"rentwheels/internal/app/outbox"
	"rentwheels/internal/app/policies"
	"rentwheels/internal/app/uow"
	domainbooking "rentwheels/internal/domain/booking"
	domaincustomer "rentwheels/internal/domain/customer"
	domainlock "rentwheels/internal/domain/lock"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/money"
	domainrange "rentwheels/internal/domain/shared/timerange"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

const completeBookingKey = "booking.complete"

// Integrity violations: logged loudly, finalization aborted, never downgraded.
var (
	ErrPaymentNotCaptured = errors.New("bookingflow: payment not captured")
	ErrAmountMismatch     = errors.New("bookingflow: paid amount does not match server-calculated total")
	ErrVehicleMismatch    = errors.New("bookingflow: vehicle does not match order metadata")
	ErrUserMismatch       = errors.New("bookingflow: caller does not match order metadata")
)

// amountTolerancePaise absorbs gateway rounding, compared in minor units.
const amountTolerancePaise = 1

type CompleteBookingCommand struct {
	VehicleID       string
	CustomerID      string // authenticated principal, never from the request body
	PaymentID       string
	IdempotencyKeyV string
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

func (c CompleteBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CompleteBookingCommand) ResultPrototype() any { return &BookingSummary{} }

type BookingSummary struct {
	BookingID     string    `json:"booking_id"`
	VehicleID     string    `json:"vehicle_id"`
	Pickup        time.Time `json:"pickup"`
	Return        time.Time `json:"return"`
	Total         int64     `json:"total"`
	PaymentID     string    `json:"payment_id"`
	OrderID       string    `json:"order_id"`
	AppliedCoupon string    `json:"applied_coupon,omitempty"`
}

type CompleteBookingHandler struct {
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Calculator domainpricing.Calculator
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Notifier   policies.Notifier
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle is phase C: the payment and its order are re-fetched from the gateway,
// and only the server-written order notes are trusted for price, vehicle and
// identity. The client-submitted request merely names the payment to verify.
func (h *CompleteBookingHandler) Handle(ctx context.Context, cmd CompleteBookingCommand) (*BookingSummary, error) {
	payment, err := h.Gateway.FetchPayment(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != "captured" && payment.Status != "authorized" {
		return nil, ErrPaymentNotCaptured
	}

	// The order comes from the payment record, not from the request, so a
	// forged order id cannot redirect verification.
	order, err := h.Gateway.FetchOrder(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	notes, err := policies.NotesFromMap(order.Notes)
	if err != nil {
		return nil, err
	}

	if diff := payment.AmountPaise - notes.CalculatedTotal*100; diff < -amountTolerancePaise || diff > amountTolerancePaise {
		h.logIntegrity("paid amount mismatch", cmd, "paid_paise", payment.AmountPaise, "expected", notes.CalculatedTotal)
		return nil, ErrAmountMismatch
	}
	if notes.VehicleID != cmd.VehicleID {
		h.logIntegrity("vehicle mismatch", cmd, "notes_vehicle", notes.VehicleID)
		return nil, ErrVehicleMismatch
	}
	if notes.CustomerID != cmd.CustomerID {
		h.logIntegrity("user mismatch", cmd, "notes_customer", notes.CustomerID)
		return nil, ErrUserMismatch
	}

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
	now := h.now()

	veh, err := unit.Vehicles().ByID(ctx, domainvehicle.VehicleID(notes.VehicleID))
	if err != nil {
		return nil, err
	}
	window, err := domainrange.New(notes.Pickup, notes.Return)
	if err != nil {
		return nil, err
	}

	// Recompute from the server-held rate; a drifted result means the order
	// no longer reflects current pricing and must not finalize.
	quote, err := h.Calculator.Compute(veh.DailyRate, window.Pickup, window.Return, money.Money{Amount: notes.Discount})
	if err != nil {
		return nil, err
	}
	if quote.Total.Amount != notes.CalculatedTotal {
		h.logIntegrity("recomputed total drifted", cmd, "recomputed", quote.Total.Amount, "notes_total", notes.CalculatedTotal)
		return nil, ErrAmountMismatch
	}

	conflict, err := domainbooking.FindOverlap(ctx, unit.Bookings(), veh.ID, window)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &domainbooking.UnavailableError{Conflict: *conflict}
	}

	bk, err := domainbooking.NewConfirmed(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(uuid.NewString()),
		CustomerID: cmd.CustomerID,
		VehicleID:  veh.ID,
		Window:     window,
		Price:      quote,
		PaymentID:  payment.ID,
		OrderID:    order.ID,
		Coupon:     notes.CouponCode,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, bk); err != nil {
		return nil, err
	}

	pending := bk.PendingEvents()
	bk.ClearEvents()

	if held, err := unit.Locks().ActiveByVehicle(ctx, cmd.VehicleID, now); err == nil && held.HeldBy(cmd.CustomerID) {
		if err := held.Convert(now); err == nil {
			if err := unit.Locks().Save(ctx, held); err != nil {
				return nil, err
			}
			pending = append(pending, held.PendingEvents()...)
			held.ClearEvents()
		}
	} else if err != nil && !errors.Is(err, domainlock.ErrNotFound) {
		return nil, err
	}

	veh.AdvanceAvailability(window.Return, now)
	if err := unit.Vehicles().Save(ctx, veh); err != nil {
		return nil, err
	}

	// Coupon bookkeeping is best-effort: the booking is the unit of success.
	if notes.CouponCode != "" {
		if err := unit.Coupons().IncrementUsage(ctx, notes.CouponCode); err != nil {
			h.logWarn("coupon usage increment failed", "coupon", notes.CouponCode, "error", err)
		}
	}

	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	h.notify(bk, veh)

	return &BookingSummary{
		BookingID:     string(bk.ID),
		VehicleID:     string(veh.ID),
		Pickup:        window.Pickup,
		Return:        window.Return,
		Total:         quote.Total.Amount,
		PaymentID:     payment.ID,
		OrderID:       order.ID,
		AppliedCoupon: notes.CouponCode,
	}, nil
}

// notify fires the confirmation webhook after commit; failures are logged only.
func (h *CompleteBookingHandler) notify(bk *domainbooking.Booking, veh *domainvehicle.Vehicle) {
	if h.Notifier == nil {
		return
	}
	notice := policies.BookingNotice{
		BookingID:   string(bk.ID),
		CustomerID:  bk.CustomerID,
		VehicleID:   string(veh.ID),
		Pickup:      bk.Window.Pickup,
		Return:      bk.Window.Return,
		TotalRupees: bk.Price.Total.Amount,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if phone, err := h.lookupPhone(ctx, bk.CustomerID); err == nil {
			notice.Phone = phone
		}
		if err := h.Notifier.BookingConfirmed(ctx, notice); err != nil {
			h.logWarn("booking notification failed", "booking_id", notice.BookingID, "error", err)
		}
	}()
}

func (h *CompleteBookingHandler) lookupPhone(ctx context.Context, customerID string) (string, error) {
	unit, ctx, managed, err := support.Begin(ctx, h.UoWFactory)
	if err != nil {
		return "", err
	}
	if managed {
		defer func() { _ = unit.Rollback(ctx) }()
	}
	cust, err := unit.Customers().ByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domaincustomer.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return cust.Phone, nil
}

func (h *CompleteBookingHandler) logIntegrity(msg string, cmd CompleteBookingCommand, args ...any) {
	if h.Logger == nil {
		return
	}
	base := []any{"vehicle_id", cmd.VehicleID, "customer_id", cmd.CustomerID, "payment_id", cmd.PaymentID}
	h.Logger.Error("integrity violation: "+msg, append(base, args...)...)
}

func (h *CompleteBookingHandler) logWarn(msg string, args ...any) {
	if h.Logger == nil {
		return
	}
	h.Logger.Warn(msg, args...)
}

func (h *CompleteBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CompleteBookingCommand, *BookingSummary] = (*CompleteBookingHandler)(nil)
