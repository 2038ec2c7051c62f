package paystack

import "github.com/shopspring/decimal"

// envelope is the standard response wrapper returned by every endpoint.
type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// RecipientCreateParams describe a merchant bank destination.
type RecipientCreateParams struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency"`
}

// Recipient is the gateway-side handle for a transfer destination.
type Recipient struct {
	RecipientCode string `json:"recipient_code"`
	Active        bool   `json:"active"`
	Currency      string `json:"currency"`
}

// TransferParams carry everything needed to initiate a balance transfer.
// Amount is in minor currency units (kobo for NGN).
type TransferParams struct {
	AmountMinor   int64
	RecipientCode string
	Reference     string
	Reason        string
}

// Transfer is the synchronous result of a transfer initiation.
type Transfer struct {
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
	Reference    string `json:"reference"`
	AmountMinor  int64  `json:"amount"`
}

// Transfer verification statuses reported by the gateway.
const (
	TransferStatusSuccess = "success"
	TransferStatusFailed  = "failed"
	TransferStatusPending = "pending"
)

// TransferVerification is the point-in-time state of a transfer.
type TransferVerification struct {
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
	Reference    string `json:"reference"`
	AmountMinor  int64  `json:"amount"`
}

// RefundParams target a completed charge. Amount is in major currency units
// and optional; when nil the gateway refunds the full charge.
type RefundParams struct {
	TransactionRef string
	AmountMajor    *decimal.Decimal
}

// Refund is the synchronous result of a refund creation.
type Refund struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}
