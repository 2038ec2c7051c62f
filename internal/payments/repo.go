package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// Repository manages the payment rows refunds are issued against.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByTransactionRef(ctx context.Context, transactionRef string) (*models.Payment, error)
	// FindCompletedByOrder returns the order's completed charge, the only
	// valid refund target.
	FindCompletedByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	MarkCompletedByRef(ctx context.Context, transactionRef string, amountMinor int64) (int64, error)
	MarkRefunded(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindByTransactionRef(ctx context.Context, transactionRef string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		First(&payment, "transaction_ref = ?", transactionRef).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindCompletedByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.PaymentStatusCompleted).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkCompletedByRef settles a pending charge from a gateway callback. The
// returned count is zero when the reference is unknown or already settled,
// which callers treat as an ignorable event.
func (r *repository) MarkCompletedByRef(ctx context.Context, transactionRef string, amountMinor int64) (int64, error) {
	updates := map[string]any{
		"status":     enums.PaymentStatusCompleted,
		"updated_at": time.Now(),
	}
	if amountMinor > 0 {
		updates["amount_minor"] = amountMinor
	}
	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("transaction_ref = ? AND status = ?", transactionRef, enums.PaymentStatusPending).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Update("status", enums.PaymentStatusRefunded).Error
}
