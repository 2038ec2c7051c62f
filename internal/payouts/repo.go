package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// EligibleMerchantTotal is one merchant's aggregate of matured, unclaimed
// splits produced by the eligibility scan.
type EligibleMerchantTotal struct {
	MerchantID  uuid.UUID
	TotalMinor  int64
	SplitsCount int
}

// Repository manages persistence for payouts and the splits they claim.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, payout *models.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	FindByTransferRef(ctx context.Context, transferRef string) (*models.Payout, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit int) ([]models.Payout, error)
	ListByStatus(ctx context.Context, status enums.PayoutStatus, limit int) ([]models.Payout, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PayoutStatus) error
	MarkProcessing(ctx context.Context, id uuid.UUID, transferCode, transferRef string) error
	MarkCompleted(ctx context.Context, id uuid.UUID, transferCode, transferRef string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	SetAmount(ctx context.Context, id uuid.UUID, amountMinor int64, splitsCount int) error

	ListEligibleTotals(ctx context.Context, now time.Time) ([]EligibleMerchantTotal, error)
	ClaimSplits(ctx context.Context, merchantID, payoutID uuid.UUID, maturedBefore time.Time) (int64, int, error)
	ReleaseSplits(ctx context.Context, payoutID uuid.UUID) (int64, error)
	MarkSplitsPaid(ctx context.Context, payoutID uuid.UUID) (int64, error)
	ListSplitsByPayout(ctx context.Context, payoutID uuid.UUID) ([]models.OrderMerchantSplit, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).First(&payout, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) FindByTransferRef(ctx context.Context, transferRef string) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).First(&payout, "transfer_ref = ?", transferRef).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit int) ([]models.Payout, error) {
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByStatus(ctx context.Context, status enums.PayoutStatus, limit int) ([]models.Payout, error) {
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PayoutStatus) error {
	return r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) MarkProcessing(ctx context.Context, id uuid.UUID, transferCode, transferRef string) error {
	return r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        enums.PayoutStatusProcessing,
			"transfer_code": transferCode,
			"transfer_ref":  transferRef,
		}).Error
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, transferCode, transferRef string, completedAt time.Time) error {
	updates := map[string]any{
		"status":       enums.PayoutStatusCompleted,
		"completed_at": completedAt,
	}
	if transferCode != "" {
		updates["transfer_code"] = transferCode
	}
	if transferRef != "" {
		updates["transfer_ref"] = transferRef
	}
	return r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         enums.PayoutStatusFailed,
			"failure_reason": reason,
		}).Error
}

func (r *repository) SetAmount(ctx context.Context, id uuid.UUID, amountMinor int64, splitsCount int) error {
	return r.db.WithContext(ctx).Model(&models.Payout{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"amount_minor": amountMinor,
			"splits_count": splitsCount,
		}).Error
}

// ListEligibleTotals sums matured, unclaimed splits per merchant. Merchants
// that already have a pending payout are excluded so repeated aggregation
// runs cannot double-count the same splits.
func (r *repository) ListEligibleTotals(ctx context.Context, now time.Time) ([]EligibleMerchantTotal, error) {
	var rows []EligibleMerchantTotal
	err := r.db.WithContext(ctx).
		Model(&models.OrderMerchantSplit{}).
		Select("merchant_id, SUM(amount_minor) AS total_minor, COUNT(*) AS splits_count").
		Where("status = ? AND hold_until < ?", enums.SplitStatusPayoutRequested, now).
		Where("merchant_id NOT IN (?)",
			r.db.Model(&models.Payout{}).
				Select("merchant_id").
				Where("status = ?", enums.PayoutStatusPending),
		).
		Group("merchant_id").
		Scan(&rows).Error
	return rows, err
}

// ClaimSplits moves a merchant's matured splits into processing and tags
// them with the owning payout in a single UPDATE, then returns the claimed
// sum and count. Tagging and claiming together means a concurrent run cannot
// claim the same split, and rollback has an explicit owned set to release.
// Only splits matured before maturedBefore are claimed; callers pass the
// payout's creation time so splits maturing later wait for the next payout.
func (r *repository) ClaimSplits(ctx context.Context, merchantID, payoutID uuid.UUID, maturedBefore time.Time) (int64, int, error) {
	res := r.db.WithContext(ctx).Model(&models.OrderMerchantSplit{}).
		Where("merchant_id = ? AND status = ? AND hold_until < ? AND payout_id IS NULL",
			merchantID, enums.SplitStatusPayoutRequested, maturedBefore).
		Updates(map[string]any{
			"status":    enums.SplitStatusProcessing,
			"payout_id": payoutID,
		})
	if res.Error != nil {
		return 0, 0, res.Error
	}

	type claimed struct {
		TotalMinor  int64
		SplitsCount int
	}
	var sum claimed
	err := r.db.WithContext(ctx).Model(&models.OrderMerchantSplit{}).
		Select("COALESCE(SUM(amount_minor), 0) AS total_minor, COUNT(*) AS splits_count").
		Where("payout_id = ? AND status = ?", payoutID, enums.SplitStatusProcessing).
		Scan(&sum).Error
	if err != nil {
		return 0, 0, err
	}
	return sum.TotalMinor, sum.SplitsCount, nil
}

// ReleaseSplits reverts a payout's processing splits to payout_requested and
// clears the claim tag, making them eligible for a future run.
func (r *repository) ReleaseSplits(ctx context.Context, payoutID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.OrderMerchantSplit{}).
		Where("payout_id = ? AND status = ?", payoutID, enums.SplitStatusProcessing).
		Updates(map[string]any{
			"status":    enums.SplitStatusPayoutRequested,
			"payout_id": nil,
		})
	return res.RowsAffected, res.Error
}

// MarkSplitsPaid settles a payout's processing splits.
func (r *repository) MarkSplitsPaid(ctx context.Context, payoutID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.OrderMerchantSplit{}).
		Where("payout_id = ? AND status = ?", payoutID, enums.SplitStatusProcessing).
		Update("status", enums.SplitStatusPaid)
	return res.RowsAffected, res.Error
}

func (r *repository) ListSplitsByPayout(ctx context.Context, payoutID uuid.UUID) ([]models.OrderMerchantSplit, error) {
	var rows []models.OrderMerchantSplit
	err := r.db.WithContext(ctx).
		Where("payout_id = ?", payoutID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
