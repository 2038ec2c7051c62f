package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	paymentsTable := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  transaction_ref TEXT,
  amount_minor INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(paymentsTable).Error)
	return db
}

func createPayment(t *testing.T, db *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus, ref string, amount int64) *models.Payment {
	t.Helper()

	payment := &models.Payment{
		ID:             uuid.New(),
		OrderID:        orderID,
		Status:         status,
		TransactionRef: ref,
		AmountMinor:    amount,
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func TestFindCompletedByOrder(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	createPayment(t, db, orderID, enums.PaymentStatusFailed, "ref-failed", 5000)
	completed := createPayment(t, db, orderID, enums.PaymentStatusCompleted, "ref-ok", 5000)

	found, err := repo.FindCompletedByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, completed.ID, found.ID)
	assert.Equal(t, "ref-ok", found.TransactionRef)
}

func TestFindCompletedByOrderNone(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	orderID := uuid.New()

	createPayment(t, db, orderID, enums.PaymentStatusPending, "ref-pending", 5000)

	_, err := repo.FindCompletedByOrder(context.Background(), orderID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMarkCompletedByRef(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	payment := createPayment(t, db, uuid.New(), enums.PaymentStatusPending, "ref-charge", 0)

	affected, err := repo.MarkCompletedByRef(ctx, "ref-charge", 7500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	reloaded, err := repo.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCompleted, reloaded.Status)
	assert.Equal(t, int64(7500), reloaded.AmountMinor)

	// Second delivery of the same charge event touches nothing.
	affected, err = repo.MarkCompletedByRef(ctx, "ref-charge", 7500)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestMarkCompletedByRefUnknownReference(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	affected, err := repo.MarkCompletedByRef(context.Background(), "ref-missing", 100)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestMarkRefunded(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	payment := createPayment(t, db, uuid.New(), enums.PaymentStatusCompleted, "ref-refund", 10000)

	require.NoError(t, repo.MarkRefunded(ctx, payment.ID))

	reloaded, err := repo.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, reloaded.Status)
}
