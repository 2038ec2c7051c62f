package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adesina-labs/kasuwa-backend/internal/auth"
	pkgauth "github.com/adesina-labs/kasuwa-backend/pkg/auth"
	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
)

type stubAuthService struct {
	result *auth.LoginResult
	err    error
}

func (s stubAuthService) Login(ctx context.Context, input auth.LoginInput) (*auth.LoginResult, error) {
	return s.result, s.err
}

func (s stubAuthService) UserFromClaims(ctx context.Context, claims *pkgauth.AccessTokenClaims) (*models.AdminUser, error) {
	return nil, s.err
}

func TestAuthLogin_Success(t *testing.T) {
	svc := stubAuthService{result: &auth.LoginResult{AccessToken: "token-abc", ExpiresIn: 1800}}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewReader([]byte(`{"email":"ops@kasuwa.ng","password":"Secret#1"}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "token-abc" || envelope.Data.ExpiresIn != 1800 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestAuthLogin_RejectsMalformedEmail(t *testing.T) {
	handler := AuthLogin(stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewReader([]byte(`{"email":"nope","password":"Secret#1"}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAuthLogin_MapsUnauthorized(t *testing.T) {
	svc := stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewReader([]byte(`{"email":"ops@kasuwa.ng","password":"wrong"}`)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
