package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// Payout is one disbursement attempt for one merchant. AmountMinor equals the
// sum of the splits aggregated at creation time; a payout is never topped up
// afterwards (later eligible splits form a new payout).
type Payout struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID    uuid.UUID          `gorm:"column:merchant_id;type:uuid;not null;index"`
	AmountMinor   int64              `gorm:"column:amount_minor;not null"`
	SplitsCount   int                `gorm:"column:splits_count;not null;default:0"`
	Status        enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RecipientRef  string             `gorm:"column:recipient_ref"`
	TransferCode  *string            `gorm:"column:transfer_code"`
	TransferRef   *string            `gorm:"column:transfer_ref;index"`
	FailureReason *string            `gorm:"column:failure_reason"`
	CompletedAt   *time.Time         `gorm:"column:completed_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
