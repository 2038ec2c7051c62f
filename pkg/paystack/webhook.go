package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Webhook event types the reconciliation engine consumes. Everything else is
// acknowledged and ignored.
const (
	EventTransferSuccess  = "transfer.success"
	EventTransferFailed   = "transfer.failed"
	EventTransferReversed = "transfer.reversed"
	EventChargeSuccess    = "charge.success"
)

// WebhookEvent is the decoded callback body. Data is kept raw; each event
// type carries a different shape.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// TransferEventData is the payload for transfer.* events.
type TransferEventData struct {
	Reference    string `json:"reference"`
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
	AmountMinor  int64  `json:"amount"`
	Reason       string `json:"reason"`
}

// ChargeEventData is the payload for charge.success events.
type ChargeEventData struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	AmountMinor int64  `json:"amount"`
}

// VerifyWebhookSignature checks the HMAC-SHA512 signature the gateway sends
// in the x-paystack-signature header against the raw request body. When no
// webhook secret is configured verification is skipped and the bypass is
// logged loudly; this must never happen in production.
func (c *Client) VerifyWebhookSignature(ctx context.Context, rawBody []byte, signatureHeader string) bool {
	if c.webhookSecret == "" {
		if c.logger != nil {
			c.logger.Warn(ctx, "webhook signature verification SKIPPED: no secret configured; this disables a trust boundary and must not run in production")
		}
		return true
	}

	signature := strings.TrimSpace(signatureHeader)
	if signature == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(c.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// ParseWebhookEvent decodes the raw body into an event envelope.
func ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// DecodeTransferData extracts the transfer payload from a transfer.* event.
func (e *WebhookEvent) DecodeTransferData() (*TransferEventData, error) {
	var data TransferEventData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeChargeData extracts the charge payload from a charge.success event.
func (e *WebhookEvent) DecodeChargeData() (*ChargeEventData, error) {
	var data ChargeEventData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
