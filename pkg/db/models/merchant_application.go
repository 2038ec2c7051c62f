package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// MerchantApplication holds a prospective merchant's submission until an
// admin reviews it.
type MerchantApplication struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessName  string                  `gorm:"column:business_name;not null"`
	Email         string                  `gorm:"column:email;not null"`
	BankName      string                  `gorm:"column:bank_name"`
	BankCode      string                  `gorm:"column:bank_code"`
	AccountNumber string                  `gorm:"column:account_number"`
	AccountName   string                  `gorm:"column:account_name"`
	Status        enums.ApplicationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	MerchantID    *uuid.UUID              `gorm:"column:merchant_id;type:uuid"`
	ReviewedBy    *uuid.UUID              `gorm:"column:reviewed_by;type:uuid"`
	ReviewNotes   *string                 `gorm:"column:review_notes"`
	ReviewedAt    *time.Time              `gorm:"column:reviewed_at"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
