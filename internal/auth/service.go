package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/auth"
	"github.com/adesina-labs/kasuwa-backend/pkg/config"
	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/security"
)

// LoginInput carries back-office credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the issued token and the authenticated operator.
type LoginResult struct {
	AccessToken string            `json:"access_token"`
	ExpiresIn   int               `json:"expires_in"`
	User        *models.AdminUser `json:"user"`
}

// Service authenticates back-office operators.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	UserFromClaims(ctx context.Context, claims *auth.AccessTokenClaims) (*models.AdminUser, error)
}

type service struct {
	repo Repository
	jwt  config.JWTConfig
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the auth service.
func NewService(repo Repository, jwtCfg config.JWTConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auth repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, jwt: jwtCfg, logg: logg, now: time.Now}, nil
}

// Login verifies credentials and mints an access token. All credential
// failures collapse into one unauthorized error so the response never leaks
// whether the account exists.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !match {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now()
	token, err := auth.MintAccessToken(s.jwt, now, auth.AccessTokenPayload{
		UserID:      user.ID,
		MerchantID:  user.MerchantID,
		Role:        user.Role,
		Permissions: user.Permissions,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logg.Error(s.logg.WithActorID(ctx, user.ID.String()), "updating last login failed", err)
	}
	user.LastLoginAt = &now
	user.PasswordHash = ""

	return &LoginResult{
		AccessToken: token,
		ExpiresIn:   s.jwt.ExpirationMinutes * 60,
		User:        user,
	}, nil
}

// UserFromClaims resolves the live account behind validated token claims,
// rejecting tokens for deactivated operators.
func (s *service) UserFromClaims(ctx context.Context, claims *auth.AccessTokenClaims) (*models.AdminUser, error) {
	if claims == nil || claims.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}
	return user, nil
}
