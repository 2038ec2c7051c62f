package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
)

// ItemKey addresses one inventory row by variant-or-product plus merchant.
// VariantID takes precedence when set.
type ItemKey struct {
	MerchantID uuid.UUID
	ProductID  *uuid.UUID
	VariantID  *uuid.UUID
}

// Addressable reports whether the key can resolve an inventory row.
func (k ItemKey) Addressable() bool {
	return k.MerchantID != uuid.Nil && (k.VariantID != nil || k.ProductID != nil)
}

// Service mutates inventory counters. All writes are single atomic UPDATE
// expressions so concurrent order flows cannot lose increments.
type Service interface {
	// ReleaseReservation returns reserved units without restocking physical
	// stock. Used when a declined item never shipped; the inverse of the
	// reservation made at order placement.
	ReleaseReservation(ctx context.Context, tx *gorm.DB, key ItemKey, qty int) error
	// Restock adds returned physical stock back to the available count.
	// Used by refunded returns; reserved counts are untouched.
	Restock(ctx context.Context, tx *gorm.DB, key ItemKey, qty int) error
	// RestockAndRelease applies both effects at once. Used by order
	// cancellation, where stock never left and the reservation dissolves.
	RestockAndRelease(ctx context.Context, tx *gorm.DB, key ItemKey, qty int) error
}

type service struct {
	db *gorm.DB
}

// NewService returns an inventory service bound to the provided database.
func NewService(db *gorm.DB) Service {
	return &service{db: db}
}

func (s *service) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *service) ReleaseReservation(ctx context.Context, tx *gorm.DB, key ItemKey, qty int) error {
	if qty <= 0 {
		return nil
	}
	if !key.Addressable() {
		return nil
	}

	query, args := scopeArgs(`
		UPDATE inventory_items
		SET reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE reserved_qty >= ?`, key, qty, qty)

	if err := s.conn(tx).WithContext(ctx).Exec(query, args...).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release inventory reservation")
	}
	return nil
}

func (s *service) Restock(ctx context.Context, tx *gorm.DB, key ItemKey, qty int) error {
	if qty <= 0 {
		return nil
	}
	if !key.Addressable() {
		return nil
	}

	query, args := scopeArgs(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE 1 = 1`, key, qty)

	if err := s.conn(tx).WithContext(ctx).Exec(query, args...).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock inventory")
	}
	return nil
}

func (s *service) RestockAndRelease(ctx context.Context, tx *gorm.DB, key ItemKey, qty int) error {
	if qty <= 0 {
		return nil
	}
	if !key.Addressable() {
		return nil
	}

	query, args := scopeArgs(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE reserved_qty >= ?`, key, qty, qty, qty)

	if err := s.conn(tx).WithContext(ctx).Exec(query, args...).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock and release inventory")
	}
	return nil
}

// scopeArgs appends the variant-or-product plus merchant predicate.
func scopeArgs(query string, key ItemKey, args ...any) (string, []any) {
	query += " AND merchant_id = ?"
	args = append(args, key.MerchantID)
	if key.VariantID != nil {
		query += " AND variant_id = ?"
		args = append(args, *key.VariantID)
	} else {
		query += " AND product_id = ? AND variant_id IS NULL"
		args = append(args, *key.ProductID)
	}
	return query, args
}
