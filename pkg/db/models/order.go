package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// Order carries the aggregate status derived from its items. External actors
// never set the status directly except for the terminal cancellation path.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Currency    string            `gorm:"column:currency;type:text;not null;default:'NGN'"`
	TotalMinor  int64             `gorm:"column:total_minor;not null"`
	CanceledAt  *time.Time        `gorm:"column:canceled_at"`
	CompletedAt *time.Time        `gorm:"column:completed_at"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
