package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// OrderItem owns its fulfillment status and the inventory linkage used for
// restock bookkeeping. VariantID takes precedence over ProductID when set.
type OrderItem struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	MerchantID        uuid.UUID             `gorm:"column:merchant_id;type:uuid;not null;index"`
	ProductID         *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	VariantID         *uuid.UUID            `gorm:"column:variant_id;type:uuid"`
	PriceMinor        int64                 `gorm:"column:price_minor;not null"`
	Qty               int                   `gorm:"column:qty;not null"`
	FulfillmentStatus enums.OrderItemStatus `gorm:"column:fulfillment_status;type:text;not null;default:'processing'"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
