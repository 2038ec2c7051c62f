package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adesina-labs/kasuwa-backend/pkg/config"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
)

const defaultTimeout = 10 * time.Second

var (
	errSecretKeyRequired = errors.New("paystack secret key is required")
	errLoggerRequired    = errors.New("paystack logger is required")
)

// Client exposes the transfer and refund primitives with centralized auth,
// logging, and error mapping. It is stateless; safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	secretKey     string
	webhookSecret string
	currency      string
	logger        *logger.Logger
}

// NewClient initializes the gateway wrapper and validates the credentials.
// An empty webhook secret disables signature verification, which is only
// acceptable in development; it is logged loudly at boot.
func NewClient(ctx context.Context, cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:     secretKey,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		currency:      cfg.Currency,
		logger:        logg,
	}

	if c.webhookSecret == "" {
		logg.Warn(ctx, "GATEWAY WEBHOOK SECRET NOT CONFIGURED: webhook signature verification is DISABLED; do not run this configuration in production")
	}

	logg.Info(ctx, "paystack client initialized")
	return c, nil
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

// CreateRecipient registers a merchant bank destination and returns its code.
func (c *Client) CreateRecipient(ctx context.Context, params RecipientCreateParams) (*Recipient, error) {
	if params.Currency == "" {
		params.Currency = c.currency
	}
	if params.Type == "" {
		params.Type = "nuban"
	}
	c.log(ctx, "request", "create_recipient", map[string]any{
		"name":      params.Name,
		"bank_code": params.BankCode,
		"currency":  params.Currency,
	})

	var out struct {
		envelope
		Data Recipient `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/transferrecipient", params, &out, "create recipient"); err != nil {
		c.log(ctx, "error", "create_recipient", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_recipient", map[string]any{
		"recipient_code": out.Data.RecipientCode,
		"active":         out.Data.Active,
	})
	return &out.Data, nil
}

// InitiateTransfer starts a balance transfer to a recipient. Amount is in
// minor currency units and must be positive.
func (c *Client) InitiateTransfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	if params.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer amount must be a positive integer in minor units")
	}
	if strings.TrimSpace(params.RecipientCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer recipient code is required")
	}

	body := map[string]any{
		"source":    "balance",
		"amount":    params.AmountMinor,
		"recipient": params.RecipientCode,
		"reference": params.Reference,
		"reason":    params.Reason,
		"currency":  c.currency,
	}
	c.log(ctx, "request", "initiate_transfer", map[string]any{
		"amount_minor": params.AmountMinor,
		"reference":    params.Reference,
	})

	var out struct {
		envelope
		Data Transfer `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/transfer", body, &out, "initiate transfer"); err != nil {
		c.log(ctx, "error", "initiate_transfer", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "initiate_transfer", map[string]any{
		"transfer_code": out.Data.TransferCode,
		"status":        out.Data.Status,
		"reference":     out.Data.Reference,
	})
	return &out.Data, nil
}

// VerifyTransfer fetches the current state of a transfer by its reference.
func (c *Client) VerifyTransfer(ctx context.Context, reference string) (*TransferVerification, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer reference is required")
	}
	c.log(ctx, "request", "verify_transfer", map[string]any{"reference": reference})

	var out struct {
		envelope
		Data TransferVerification `json:"data"`
	}
	path := fmt.Sprintf("/transfer/verify/%s", reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, "verify transfer"); err != nil {
		c.log(ctx, "error", "verify_transfer", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "verify_transfer", map[string]any{
		"transfer_code": out.Data.TransferCode,
		"status":        out.Data.Status,
	})
	return &out.Data, nil
}

// CreateRefund refunds a completed charge. When AmountMajor is set it is
// converted to minor units before the call; otherwise the full charge is
// refunded.
func (c *Client) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	if strings.TrimSpace(params.TransactionRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund transaction reference is required")
	}

	body := map[string]any{"transaction": params.TransactionRef}
	if params.AmountMajor != nil {
		minor := params.AmountMajor.Mul(decimal.NewFromInt(100))
		if !minor.IsInteger() || !minor.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must convert to a positive integer in minor units")
		}
		body["amount"] = minor.IntPart()
	}
	c.log(ctx, "request", "create_refund", map[string]any{
		"transaction": params.TransactionRef,
	})

	var out struct {
		envelope
		Data Refund `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/refund", body, &out, "create refund"); err != nil {
		c.log(ctx, "error", "create_refund", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_refund", map[string]any{
		"refund_id": out.Data.ID,
		"status":    out.Data.Status,
	})
	return &out.Data, nil
}

// do executes one authenticated JSON round trip and decodes the envelope.
func (c *Client) do(ctx context.Context, method, path string, body any, out interface{ ok() (bool, string) }, op string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("paystack %s: encode request", op))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("paystack %s: build request", op))
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("paystack %s failed", op))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("paystack %s: read response", op))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(domainCodeForStatus(resp.StatusCode), fmt.Sprintf("paystack %s failed", op)).
			WithDetails(map[string]any{"http_status": resp.StatusCode, "body": truncate(string(raw), 512)})
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("paystack %s: decode response", op))
	}

	if ok, message := out.ok(); !ok {
		return pkgerrors.New(pkgerrors.CodeUpstream, fmt.Sprintf("paystack %s failed", op)).
			WithDetails(map[string]any{"gateway_message": message})
	}
	return nil
}

func (e envelope) ok() (bool, string) {
	return e.Status, e.Message
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("paystack %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("paystack %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"account", "secret", "token", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		return pkgerrors.CodeUpstream
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
