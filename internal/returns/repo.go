package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// Repository manages return request persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, request *models.ReturnRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	List(ctx context.Context, status *enums.ReturnStatus, limit int) ([]models.ReturnRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReturnStatus, reviewedBy *uuid.UUID) error
	// MarkRefunded is the terminal write: status, external refund reference,
	// and timestamp in one update.
	MarkRefunded(ctx context.Context, id uuid.UUID, refundRef string, refundedAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a return-request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.ReturnRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) List(ctx context.Context, status *enums.ReturnStatus, limit int) ([]models.ReturnRequest, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.ReturnRequest
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReturnStatus, reviewedBy *uuid.UUID) error {
	updates := map[string]any{"status": status}
	if reviewedBy != nil {
		updates["reviewed_by"] = *reviewedBy
	}
	return r.db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) MarkRefunded(ctx context.Context, id uuid.UUID, refundRef string, refundedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ReturnRequest{}).
		Where("id = ? AND status <> ?", id, enums.ReturnStatusRefunded).
		Updates(map[string]any{
			"status":      enums.ReturnStatusRefunded,
			"refund_ref":  refundRef,
			"refunded_at": refundedAt,
		}).Error
}
