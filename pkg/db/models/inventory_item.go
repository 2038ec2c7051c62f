package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks available/reserved counts per product or variant and
// merchant. Quantity fields are only mutated through atomic update
// expressions to avoid lost updates.
type InventoryItem struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID   uuid.UUID  `gorm:"column:merchant_id;type:uuid;not null;index"`
	ProductID    uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	VariantID    *uuid.UUID `gorm:"column:variant_id;type:uuid;index"`
	AvailableQty int        `gorm:"column:available_qty;not null;default:0"`
	ReservedQty  int        `gorm:"column:reserved_qty;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
