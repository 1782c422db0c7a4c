package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rentwheels/internal/app/policies"
)

// WebhookNotifier posts booking confirmations to the messaging bridge.
// Delivery is best effort; the caller logs failures and moves on.
type WebhookNotifier struct {
	URL        string
	HTTPClient *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{URL: url, HTTPClient: &http.Client{Timeout: timeout}}
}

type confirmationPayload struct {
	BookingID  string `json:"booking_id"`
	CustomerID string `json:"customer_id"`
	Phone      string `json:"phone"`
	VehicleID  string `json:"vehicle_id"`
	Pickup     string `json:"pickup"`
	Return     string `json:"return"`
	Total      int64  `json:"total"`
}

func (n *WebhookNotifier) BookingConfirmed(ctx context.Context, notice policies.BookingNotice) error {
	payload := confirmationPayload{
		BookingID:  notice.BookingID,
		CustomerID: notice.CustomerID,
		Phone:      notice.Phone,
		VehicleID:  notice.VehicleID,
		Pickup:     notice.Pickup.UTC().Format(time.RFC3339),
		Return:     notice.Return.UTC().Format(time.RFC3339),
		Total:      notice.TotalRupees,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := n.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

var _ policies.Notifier = (*WebhookNotifier)(nil)
