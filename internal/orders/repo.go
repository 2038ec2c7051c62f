package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	"github.com/adesina-labs/kasuwa-backend/pkg/pagination"
)

// Repository manages orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, status *enums.OrderStatus, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	MarkCancelled(ctx context.Context, id uuid.UUID, canceledAt time.Time) error
	MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error

	FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status enums.OrderItemStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List pages orders newest first with a (created_at, id) keyset cursor. The
// returned cursor is nil on the last page.
func (r *repository) List(ctx context.Context, status *enums.OrderStatus, limit int, cursor *pagination.Cursor) ([]models.Order, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := query.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		// The cursor points at the last row handed back; the strict tuple
		// comparison above resumes on the row after it.
		last := rows[normalized-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID, canceledAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      enums.OrderStatusCancelled,
			"canceled_at": canceledAt,
		}).Error
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.OrderStatusCompleted,
			"completed_at": completedAt,
		}).Error
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) UpdateItemStatus(ctx context.Context, itemID uuid.UUID, status enums.OrderItemStatus) error {
	return r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Update("fulfillment_status", status).Error
}
