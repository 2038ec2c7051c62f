package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adesina-labs/kasuwa-backend/pkg/config"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
)

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers messages. Callers treat every failure as best-effort: log
// and continue, never propagate into the primary flow.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPMailer posts messages to a relay endpoint.
type HTTPMailer struct {
	endpoint    string
	apiKey      string
	defaultFrom string
	httpClient  *http.Client
	logg        *logger.Logger
}

// NewHTTPMailer builds a mailer from config. Returns a Nop sender when no
// endpoint is configured so callers never need a nil check.
func NewHTTPMailer(cfg config.MailerConfig, logg *logger.Logger) Sender {
	if cfg.Endpoint == "" {
		if logg != nil {
			logg.Warn(context.Background(), "mailer endpoint not configured; notifications disabled")
		}
		return Nop{}
	}
	return &HTTPMailer{
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		defaultFrom: cfg.DefaultFrom,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logg:        logg,
	}
}

func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message recipient required")
	}
	if msg.From == "" {
		msg.From = m.defaultFrom
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "mail relay request failed")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeUpstream,
			fmt.Sprintf("mail relay returned status %d", resp.StatusCode))
	}
	return nil
}

// Nop discards every message.
type Nop struct{}

func (Nop) Send(ctx context.Context, msg Message) error { return nil }
