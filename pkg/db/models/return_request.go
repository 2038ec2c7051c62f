package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// ReturnRequest links an order item and a customer through the return review
// chain. Refund processing runs exactly once per return.
type ReturnRequest struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID uuid.UUID          `gorm:"column:order_item_id;type:uuid;not null;index"`
	CustomerID  uuid.UUID          `gorm:"column:customer_id;type:uuid;not null"`
	Reason      string             `gorm:"column:reason;not null"`
	Description *string            `gorm:"column:description"`
	Status      enums.ReturnStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RefundRef   *string            `gorm:"column:refund_ref"`
	RefundedAt  *time.Time         `gorm:"column:refunded_at"`
	ReviewedBy  *uuid.UUID         `gorm:"column:reviewed_by;type:uuid"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
