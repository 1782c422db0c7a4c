package policies

import (
	"context"
	"errors"
	"strconv"
	"time"
)

var ErrMalformedNotes = errors.New("policies: gateway order notes malformed")

// GatewayOrder is the provider-side order; Notes carries the server-written
// tamper-evident metadata that completion re-reads.
type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// GatewayPayment is the provider's view of a captured payment.
type GatewayPayment struct {
	ID          string
	OrderID     string
	Status      string // created|authorized|captured|failed
	AmountPaise int64
}

// PaymentGateway is the port to the external payment provider. Notes round-trip
// through the provider untouched; the client cannot alter them post-creation.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (GatewayPayment, error)
	FetchOrder(ctx context.Context, orderID string) (GatewayOrder, error)
}

// OrderNotes is the typed form of the opaque metadata written at order creation
// and verified at completion. Only these values are trusted when finalizing.
type OrderNotes struct {
	VehicleID       string
	CustomerID      string
	Tier            int
	Hours           int
	Pickup          time.Time
	Return          time.Time
	Discount        int64
	CalculatedTotal int64
	CouponCode      string
}

const notesTimeLayout = time.RFC3339

func (n OrderNotes) ToMap() map[string]string {
	m := map[string]string{
		"vehicle_id":       n.VehicleID,
		"customer_id":      n.CustomerID,
		"tier":             strconv.Itoa(n.Tier),
		"hours":            strconv.Itoa(n.Hours),
		"pickup":           n.Pickup.UTC().Format(notesTimeLayout),
		"return":           n.Return.UTC().Format(notesTimeLayout),
		"discount":         strconv.FormatInt(n.Discount, 10),
		"calculated_total": strconv.FormatInt(n.CalculatedTotal, 10),
	}
	if n.CouponCode != "" {
		m["coupon_code"] = n.CouponCode
	}
	return m
}

func NotesFromMap(m map[string]string) (OrderNotes, error) {
	var n OrderNotes
	var err error
	n.VehicleID = m["vehicle_id"]
	n.CustomerID = m["customer_id"]
	if n.VehicleID == "" || n.CustomerID == "" {
		return OrderNotes{}, ErrMalformedNotes
	}
	if n.Tier, err = strconv.Atoi(m["tier"]); err != nil {
		return OrderNotes{}, ErrMalformedNotes
	}
	if n.Hours, err = strconv.Atoi(m["hours"]); err != nil {
		return OrderNotes{}, ErrMalformedNotes
	}
	if n.Pickup, err = time.Parse(notesTimeLayout, m["pickup"]); err != nil {
		return OrderNotes{}, ErrMalformedNotes
	}
	if n.Return, err = time.Parse(notesTimeLayout, m["return"]); err != nil {
		return OrderNotes{}, ErrMalformedNotes
	}
	if n.Discount, err = strconv.ParseInt(m["discount"], 10, 64); err != nil {
		return OrderNotes{}, ErrMalformedNotes
	}
	if n.CalculatedTotal, err = strconv.ParseInt(m["calculated_total"], 10, 64); err != nil {
		return OrderNotes{}, ErrMalformedNotes
	}
	n.CouponCode = m["coupon_code"]
	return n, nil
}
