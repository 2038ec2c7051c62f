package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
)

// Store adapts the repository to the narrow read surface other domains need.
// A nil tx binds to the base connection.
type Store struct {
	repo Repository
}

// NewStore wraps a repository for use by other domains.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// FindOrder loads one order with its items.
func (s *Store) FindOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	return s.repo.WithTx(tx).FindByID(ctx, id)
}

// FindItem loads one order item.
func (s *Store) FindItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (*models.OrderItem, error) {
	return s.repo.WithTx(tx).FindItem(ctx, itemID)
}
