package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	table := `
CREATE TABLE IF NOT EXISTS inventory_items (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  available_qty INTEGER NOT NULL DEFAULT 0,
  reserved_qty INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(table).Error)
	return db
}

func createItem(t *testing.T, db *gorm.DB, merchantID, productID uuid.UUID, variantID *uuid.UUID, available, reserved int) *models.InventoryItem {
	t.Helper()

	item := &models.InventoryItem{
		ID:           uuid.New(),
		MerchantID:   merchantID,
		ProductID:    productID,
		VariantID:    variantID,
		AvailableQty: available,
		ReservedQty:  reserved,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) *models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, db.First(&item, "id = ?", id).Error)
	return &item
}

func TestReleaseReservation(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	merchantID := uuid.New()
	productID := uuid.New()
	item := createItem(t, db, merchantID, productID, nil, 10, 3)

	key := ItemKey{MerchantID: merchantID, ProductID: &productID}
	require.NoError(t, svc.ReleaseReservation(ctx, nil, key, 2))

	got := reload(t, db, item.ID)
	assert.Equal(t, 10, got.AvailableQty, "release must not restock")
	assert.Equal(t, 1, got.ReservedQty)
}

func TestReleaseReservationGuardsUnderflow(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	merchantID := uuid.New()
	productID := uuid.New()
	item := createItem(t, db, merchantID, productID, nil, 10, 1)

	key := ItemKey{MerchantID: merchantID, ProductID: &productID}
	require.NoError(t, svc.ReleaseReservation(ctx, nil, key, 5))

	got := reload(t, db, item.ID)
	assert.Equal(t, 1, got.ReservedQty, "underflowing release must be a no-op")
}

func TestRestockByVariant(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	merchantID := uuid.New()
	productID := uuid.New()
	variantID := uuid.New()
	variantItem := createItem(t, db, merchantID, productID, &variantID, 5, 0)
	baseItem := createItem(t, db, merchantID, productID, nil, 8, 0)

	key := ItemKey{MerchantID: merchantID, ProductID: &productID, VariantID: &variantID}
	require.NoError(t, svc.Restock(ctx, nil, key, 2))

	assert.Equal(t, 7, reload(t, db, variantItem.ID).AvailableQty)
	assert.Equal(t, 8, reload(t, db, baseItem.ID).AvailableQty, "variant restock must not touch the base row")
}

func TestRestockAndRelease(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	merchantID := uuid.New()
	productID := uuid.New()
	item := createItem(t, db, merchantID, productID, nil, 4, 3)

	key := ItemKey{MerchantID: merchantID, ProductID: &productID}
	require.NoError(t, svc.RestockAndRelease(ctx, nil, key, 3))

	got := reload(t, db, item.ID)
	assert.Equal(t, 7, got.AvailableQty)
	assert.Equal(t, 0, got.ReservedQty)
}

func TestUnaddressableKeyIsNoop(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	item := createItem(t, db, uuid.New(), uuid.New(), nil, 4, 2)

	require.NoError(t, svc.Restock(ctx, nil, ItemKey{}, 3))
	require.NoError(t, svc.ReleaseReservation(ctx, nil, ItemKey{MerchantID: uuid.New()}, 3))

	got := reload(t, db, item.ID)
	assert.Equal(t, 4, got.AvailableQty)
	assert.Equal(t, 2, got.ReservedQty)
}

func TestZeroQtyIsNoop(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	merchantID := uuid.New()
	productID := uuid.New()
	item := createItem(t, db, merchantID, productID, nil, 4, 2)

	key := ItemKey{MerchantID: merchantID, ProductID: &productID}
	require.NoError(t, svc.Restock(ctx, nil, key, 0))
	require.NoError(t, svc.RestockAndRelease(ctx, nil, key, -1))

	got := reload(t, db, item.ID)
	assert.Equal(t, 4, got.AvailableQty)
	assert.Equal(t, 2, got.ReservedQty)
}
