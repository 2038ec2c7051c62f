package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
)

// Store adapts the repository to the narrow surface the order and return
// flows need. A nil tx binds to the base connection.
type Store struct {
	repo Repository
}

// NewStore wraps a repository for use by other domains.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// FindCompletedByOrder returns the order's completed charge, if any.
func (s *Store) FindCompletedByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Payment, error) {
	return s.repo.WithTx(tx).FindCompletedByOrder(ctx, orderID)
}

// MarkRefunded flips the payment to refunded.
func (s *Store) MarkRefunded(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return s.repo.WithTx(tx).MarkRefunded(ctx, id)
}

// SettleCharge marks a pending charge completed from a gateway callback and
// reports whether any row changed.
func (s *Store) SettleCharge(ctx context.Context, transactionRef string, amountMinor int64) (bool, error) {
	affected, err := s.repo.MarkCompletedByRef(ctx, transactionRef, amountMinor)
	return affected > 0, err
}
