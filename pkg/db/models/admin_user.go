package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// AdminUser is a back-office operator account.
type AdminUser struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	FirstName    string          `gorm:"column:first_name"`
	LastName     string          `gorm:"column:last_name"`
	Role         enums.ActorRole `gorm:"column:role;type:text;not null;default:'admin'"`
	MerchantID   *uuid.UUID      `gorm:"column:merchant_id;type:uuid"`
	Permissions  pq.StringArray  `gorm:"column:permissions;type:text[]"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
