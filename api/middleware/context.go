package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxRole       contextKey = "actor_role"
	ctxMerchantID contextKey = "merchant_id"
)

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.ActorRole); ok {
		return v
	}
	return ""
}

// MerchantIDFromContext returns the merchant bound to the token, or nil for
// admin operators.
func MerchantIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxMerchantID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

// WithActor injects the authenticated actor into the context. Exposed for
// handler tests.
func WithActor(ctx context.Context, userID uuid.UUID, role enums.ActorRole, merchantID *uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if merchantID != nil {
		ctx = context.WithValue(ctx, ctxMerchantID, *merchantID)
	}
	return ctx
}
