package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// OrderMerchantSplit is the merchant's owed portion of one order, the unit
// aggregated into payouts. HoldUntil delays eligibility (settlement delay).
// PayoutID is set in the same UPDATE that claims the split into processing,
// so a payout's splits form an explicit owned set for rollback.
type OrderMerchantSplit struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID *uuid.UUID        `gorm:"column:order_item_id;type:uuid"`
	MerchantID  uuid.UUID         `gorm:"column:merchant_id;type:uuid;not null;index"`
	AmountMinor int64             `gorm:"column:amount_minor;not null"`
	Status      enums.SplitStatus `gorm:"column:status;type:text;not null;default:'payout_requested';index"`
	HoldUntil   time.Time         `gorm:"column:hold_until;not null"`
	PayoutID    *uuid.UUID        `gorm:"column:payout_id;type:uuid;index"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
