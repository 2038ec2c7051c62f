package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// Merchant is created when an application is approved and mutated on every
// completed payout. Rows are never hard-deleted; suspension is a status flag.
type Merchant struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessName  string               `gorm:"column:business_name;not null"`
	Email         string               `gorm:"column:email;not null;uniqueIndex"`
	Status        enums.MerchantStatus `gorm:"column:status;type:text;not null;default:'active'"`
	BankName      string               `gorm:"column:bank_name"`
	BankCode      string               `gorm:"column:bank_code"`
	AccountNumber string               `gorm:"column:account_number"`
	AccountName   string               `gorm:"column:account_name"`
	// RecipientRef is the gateway-side identifier for the merchant's bank
	// destination. Payout processing is skipped while it is unset.
	RecipientRef      *string    `gorm:"column:recipient_ref"`
	TotalPaidOutMinor int64      `gorm:"column:total_paid_out_minor;not null;default:0"`
	LastPayoutAt      *time.Time `gorm:"column:last_payout_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
