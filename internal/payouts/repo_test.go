package payouts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

func setupPayoutsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	payoutsTable := `
CREATE TABLE IF NOT EXISTS payouts (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  amount_minor INTEGER NOT NULL,
  splits_count INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  recipient_ref TEXT,
  transfer_code TEXT,
  transfer_ref TEXT,
  failure_reason TEXT,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	splitsTable := `
CREATE TABLE IF NOT EXISTS order_merchant_splits (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  order_item_id TEXT,
  merchant_id TEXT NOT NULL,
  amount_minor INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'payout_requested',
  hold_until DATETIME NOT NULL,
  payout_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(payoutsTable).Error)
	require.NoError(t, db.Exec(splitsTable).Error)
	return db
}

func createSplit(t *testing.T, db *gorm.DB, merchantID uuid.UUID, amount int64, status enums.SplitStatus, holdUntil time.Time) *models.OrderMerchantSplit {
	t.Helper()

	split := &models.OrderMerchantSplit{
		ID:          uuid.New(),
		OrderID:     uuid.New(),
		MerchantID:  merchantID,
		AmountMinor: amount,
		Status:      status,
		HoldUntil:   holdUntil,
	}
	require.NoError(t, db.Create(split).Error)
	return split
}

func createPayoutRow(t *testing.T, db *gorm.DB, merchantID uuid.UUID, amount int64, status enums.PayoutStatus) *models.Payout {
	t.Helper()

	payout := &models.Payout{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		AmountMinor: amount,
		Status:      status,
	}
	require.NoError(t, db.Create(payout).Error)
	return payout
}

func TestListEligibleTotals(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantA := uuid.New()
	merchantB := uuid.New()
	now := time.Now()
	matured := now.Add(-time.Hour)
	held := now.Add(time.Hour)

	createSplit(t, db, merchantA, 300, enums.SplitStatusPayoutRequested, matured)
	createSplit(t, db, merchantA, 700, enums.SplitStatusPayoutRequested, matured)
	// Not yet matured; excluded by the settlement delay.
	createSplit(t, db, merchantA, 400, enums.SplitStatusPayoutRequested, held)
	// Already claimed; excluded by status.
	createSplit(t, db, merchantA, 900, enums.SplitStatusProcessing, matured)
	createSplit(t, db, merchantB, 250, enums.SplitStatusPayoutRequested, matured)

	totals, err := repo.ListEligibleTotals(ctx, now)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	byMerchant := map[uuid.UUID]EligibleMerchantTotal{}
	for _, total := range totals {
		byMerchant[total.MerchantID] = total
	}
	assert.Equal(t, int64(1000), byMerchant[merchantA].TotalMinor)
	assert.Equal(t, 2, byMerchant[merchantA].SplitsCount)
	assert.Equal(t, int64(250), byMerchant[merchantB].TotalMinor)
}

func TestListEligibleTotalsExcludesMerchantsWithPendingPayout(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	now := time.Now()
	createSplit(t, db, merchantID, 500, enums.SplitStatusPayoutRequested, now.Add(-time.Hour))
	createPayoutRow(t, db, merchantID, 500, enums.PayoutStatusPending)

	totals, err := repo.ListEligibleTotals(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, totals, "a merchant with an undisbursed payout must not be aggregated again")

	// Once the payout settles, new splits become aggregatable again.
	require.NoError(t, db.Model(&models.Payout{}).Where("merchant_id = ?", merchantID).
		Update("status", enums.PayoutStatusCompleted).Error)
	totals, err = repo.ListEligibleTotals(ctx, now)
	require.NoError(t, err)
	assert.Len(t, totals, 1)
}

func TestClaimSplits(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	now := time.Now()
	matured1 := createSplit(t, db, merchantID, 300, enums.SplitStatusPayoutRequested, now.Add(-time.Hour))
	matured2 := createSplit(t, db, merchantID, 700, enums.SplitStatusPayoutRequested, now.Add(-time.Hour))
	heldBack := createSplit(t, db, merchantID, 500, enums.SplitStatusPayoutRequested, now.Add(time.Hour))
	otherMerchant := createSplit(t, db, uuid.New(), 150, enums.SplitStatusPayoutRequested, now.Add(-time.Hour))

	payoutID := uuid.New()
	amount, count, err := repo.ClaimSplits(ctx, merchantID, payoutID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), amount)
	assert.Equal(t, 2, count)

	for _, id := range []uuid.UUID{matured1.ID, matured2.ID} {
		var split models.OrderMerchantSplit
		require.NoError(t, db.First(&split, "id = ?", id).Error)
		assert.Equal(t, enums.SplitStatusProcessing, split.Status)
		require.NotNil(t, split.PayoutID)
		assert.Equal(t, payoutID, *split.PayoutID)
	}

	var held models.OrderMerchantSplit
	require.NoError(t, db.First(&held, "id = ?", heldBack.ID).Error)
	assert.Equal(t, enums.SplitStatusPayoutRequested, held.Status)
	assert.Nil(t, held.PayoutID)

	var foreign models.OrderMerchantSplit
	require.NoError(t, db.First(&foreign, "id = ?", otherMerchant.ID).Error)
	assert.Equal(t, enums.SplitStatusPayoutRequested, foreign.Status)
	assert.Nil(t, foreign.PayoutID)

	// A second claim for the same merchant finds nothing left.
	amount, count, err = repo.ClaimSplits(ctx, merchantID, uuid.New(), now)
	require.NoError(t, err)
	assert.Zero(t, amount)
	assert.Zero(t, count)
}

func TestReleaseSplits(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	now := time.Now()
	createSplit(t, db, merchantID, 300, enums.SplitStatusPayoutRequested, now.Add(-time.Hour))
	createSplit(t, db, merchantID, 700, enums.SplitStatusPayoutRequested, now.Add(-time.Hour))

	payoutID := uuid.New()
	_, _, err := repo.ClaimSplits(ctx, merchantID, payoutID, now)
	require.NoError(t, err)

	released, err := repo.ReleaseSplits(ctx, payoutID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), released)

	var splits []models.OrderMerchantSplit
	require.NoError(t, db.Where("merchant_id = ?", merchantID).Find(&splits).Error)
	for _, split := range splits {
		assert.Equal(t, enums.SplitStatusPayoutRequested, split.Status)
		assert.Nil(t, split.PayoutID)
	}
}

func TestMarkSplitsPaidLeavesTagIntact(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	merchantID := uuid.New()
	now := time.Now()
	createSplit(t, db, merchantID, 300, enums.SplitStatusPayoutRequested, now.Add(-time.Hour))

	payoutID := uuid.New()
	_, _, err := repo.ClaimSplits(ctx, merchantID, payoutID, now)
	require.NoError(t, err)

	paid, err := repo.MarkSplitsPaid(ctx, payoutID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), paid)

	var split models.OrderMerchantSplit
	require.NoError(t, db.First(&split, "merchant_id = ?", merchantID).Error)
	assert.Equal(t, enums.SplitStatusPaid, split.Status)
	require.NotNil(t, split.PayoutID)
	assert.Equal(t, payoutID, *split.PayoutID)

	// Paid splits are settled; a later release must not touch them.
	released, err := repo.ReleaseSplits(ctx, payoutID)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestPayoutLifecycleUpdates(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payout := createPayoutRow(t, db, uuid.New(), 1000, enums.PayoutStatusPending)

	require.NoError(t, repo.MarkProcessing(ctx, payout.ID, "TRF_1", "ref-1"))
	found, err := repo.FindByTransferRef(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, payout.ID, found.ID)
	assert.Equal(t, enums.PayoutStatusProcessing, found.Status)
	require.NotNil(t, found.TransferCode)
	assert.Equal(t, "TRF_1", *found.TransferCode)

	completedAt := time.Now()
	require.NoError(t, repo.MarkCompleted(ctx, payout.ID, "TRF_1", "ref-1", completedAt))
	found, err = repo.FindByID(ctx, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusCompleted, found.Status)
	require.NotNil(t, found.CompletedAt)

	other := createPayoutRow(t, db, uuid.New(), 400, enums.PayoutStatusPending)
	require.NoError(t, repo.MarkFailed(ctx, other.ID, "insufficient balance"))
	found, err = repo.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusFailed, found.Status)
	require.NotNil(t, found.FailureReason)
	assert.Equal(t, "insufficient balance", *found.FailureReason)
}

func TestFindByTransferRefNotFound(t *testing.T) {
	db := setupPayoutsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByTransferRef(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
