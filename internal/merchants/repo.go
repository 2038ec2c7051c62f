package merchants

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// Repository manages persistence for merchants and their applications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, merchant *models.Merchant) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	List(ctx context.Context, status *enums.MerchantStatus, limit int) ([]models.Merchant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MerchantStatus) error
	SetRecipientRef(ctx context.Context, id uuid.UUID, recipientRef string) error
	IncrementPayoutTotals(ctx context.Context, id uuid.UUID, amountMinor int64, paidAt time.Time) error

	CreateApplication(ctx context.Context, application *models.MerchantApplication) error
	FindApplication(ctx context.Context, id uuid.UUID) (*models.MerchantApplication, error)
	ListApplications(ctx context.Context, status *enums.ApplicationStatus, limit int) ([]models.MerchantApplication, error)
	UpdateApplication(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a merchant repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).Create(merchant).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *repository) List(ctx context.Context, status *enums.MerchantStatus, limit int) ([]models.Merchant, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Merchant
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MerchantStatus) error {
	return r.db.WithContext(ctx).Model(&models.Merchant{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) SetRecipientRef(ctx context.Context, id uuid.UUID, recipientRef string) error {
	return r.db.WithContext(ctx).Model(&models.Merchant{}).
		Where("id = ?", id).
		Update("recipient_ref", recipientRef).Error
}

// IncrementPayoutTotals bumps the merchant's lifetime payout sum with a
// single atomic expression.
func (r *repository) IncrementPayoutTotals(ctx context.Context, id uuid.UUID, amountMinor int64, paidAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Merchant{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_paid_out_minor": gorm.Expr("total_paid_out_minor + ?", amountMinor),
			"last_payout_at":       paidAt,
		}).Error
}

func (r *repository) CreateApplication(ctx context.Context, application *models.MerchantApplication) error {
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *repository) FindApplication(ctx context.Context, id uuid.UUID) (*models.MerchantApplication, error) {
	var application models.MerchantApplication
	if err := r.db.WithContext(ctx).First(&application, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *repository) ListApplications(ctx context.Context, status *enums.ApplicationStatus, limit int) ([]models.MerchantApplication, error) {
	query := r.db.WithContext(ctx).Order("created_at ASC").Limit(limit)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.MerchantApplication
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateApplication(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.MerchantApplication{}).
		Where("id = ?", id).
		Updates(updates).Error
}
