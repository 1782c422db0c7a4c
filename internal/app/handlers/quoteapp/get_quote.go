package quoteapp

import (
	"context"
	"time"

	"rentwheels/internal/app/handlers/orderapp"
	"rentwheels/internal/app/handlers/support"
	"rentwheels/internal/app/queries"
	"rentwheels/internal/app/uow"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/domain/shared/money"
	domainrange "rentwheels/internal/domain/shared/timerange"
	domainvehicle "rentwheels/internal/domain/vehicle"
)

const getQuoteKey = "quote.get"

type GetQuoteQuery struct {
	VehicleID string
	Pickup    time.Time
	Return    time.Time
	Discount  int64
}

func (q GetQuoteQuery) Key() string { return getQuoteKey }

type GetQuoteResult struct {
	VehicleID string                  `json:"vehicle_id"`
	Pricing   orderapp.PriceBreakdown `json:"pricing"`
}

// GetQuoteHandler prices a window without side effects; the checkout UI polls
// it while the customer adjusts dates.
type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
	Calculator domainpricing.Calculator
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (*GetQuoteResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	window, err := domainrange.New(q.Pickup, q.Return)
	if err != nil {
		return nil, domainpricing.ErrInvalidWindow
	}
	if window.Hours() < domainpricing.MinBookableHours {
		return nil, orderapp.ErrWindowTooShort
	}

	veh, err := unit.Vehicles().ByID(ctx, domainvehicle.VehicleID(q.VehicleID))
	if err != nil {
		return nil, err
	}
	quote, err := h.Calculator.Compute(veh.DailyRate, window.Pickup, window.Return, money.Money{Amount: q.Discount})
	if err != nil {
		return nil, err
	}
	return &GetQuoteResult{
		VehicleID: q.VehicleID,
		Pricing:   orderapp.ToBreakdown(quote),
	}, nil
}

var _ queries.Handler[GetQuoteQuery, *GetQuoteResult] = (*GetQuoteHandler)(nil)
