package auth

import (
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	MerchantID  *uuid.UUID
	Role        enums.ActorRole
	Permissions []string
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to back-office clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID       `json:"user_id"`
	MerchantID  *uuid.UUID      `json:"merchant_id,omitempty"`
	Role        enums.ActorRole `json:"role"`
	Permissions []string        `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}
