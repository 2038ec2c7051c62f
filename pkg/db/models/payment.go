package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// Payment records the completed charge for an order. TransactionRef is the
// gateway reference refunds are issued against.
type Payment struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Status         enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	TransactionRef string              `gorm:"column:transaction_ref;index"`
	AmountMinor    int64               `gorm:"column:amount_minor;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
