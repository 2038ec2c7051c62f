package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/types"
)

// AuditRecord captures a back-office action and its outcome. Writes are
// best-effort; a failed audit insert never fails the primary action.
type AuditRecord struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Action     string        `gorm:"column:action;not null;index"`
	ActorID    *uuid.UUID    `gorm:"column:actor_id;type:uuid"`
	EntityType string        `gorm:"column:entity_type;not null"`
	EntityID   uuid.UUID     `gorm:"column:entity_id;type:uuid;not null;index"`
	Details    types.JSONMap `gorm:"column:details;type:jsonb;serializer:json"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime"`
}
