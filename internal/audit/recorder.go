package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/types"
)

// Entry describes one back-office action to record.
type Entry struct {
	Action     string
	ActorID    *uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	Details    types.JSONMap
}

// Recorder persists audit entries. Implementations must never propagate
// failures; auditing is a secondary effect.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRecorder returns a best-effort audit recorder. Insert failures are
// logged and swallowed so the primary action always reports its own outcome.
func NewRecorder(db *gorm.DB, logg *logger.Logger) Recorder {
	return &recorder{db: db, logg: logg}
}

func (r *recorder) Record(ctx context.Context, entry Entry) {
	if entry.Action == "" || entry.EntityID == uuid.Nil {
		return
	}
	row := models.AuditRecord{
		Action:     entry.Action,
		ActorID:    entry.ActorID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"action":      entry.Action,
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID.String(),
		})
		r.logg.Error(logCtx, "audit record write failed", err)
	}
}

// Nop discards every entry. Used where auditing is not wired, like tests.
type Nop struct{}

func (Nop) Record(ctx context.Context, entry Entry) {}
