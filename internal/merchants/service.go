package merchants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/outbox"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// recipientGateway is the slice of the payment gateway used during approval.
type recipientGateway interface {
	CreateRecipient(ctx context.Context, params paystack.RecipientCreateParams) (*paystack.Recipient, error)
}

// ApplicationDecision is the review action an admin takes.
type ApplicationDecision string

const (
	DecisionApprove ApplicationDecision = "approve"
	DecisionReject  ApplicationDecision = "reject"
)

// SubmitApplicationInput is a prospective merchant's submission.
type SubmitApplicationInput struct {
	BusinessName  string `json:"business_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	BankName      string `json:"bank_name"`
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// ReviewApplicationInput carries an admin's review decision.
type ReviewApplicationInput struct {
	ApplicationID uuid.UUID
	Decision      ApplicationDecision
	ReviewerID    uuid.UUID
	Notes         *string
}

// MerchantApprovedEvent is emitted when an application review creates a merchant.
type MerchantApprovedEvent struct {
	MerchantID    uuid.UUID `json:"merchant_id"`
	ApplicationID uuid.UUID `json:"application_id"`
	BusinessName  string    `json:"business_name"`
	Email         string    `json:"email"`
}

// Service manages merchant lifecycle and application review.
type Service interface {
	SubmitApplication(ctx context.Context, input SubmitApplicationInput) (*models.MerchantApplication, error)
	ReviewApplication(ctx context.Context, input ReviewApplicationInput) (*models.MerchantApplication, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	List(ctx context.Context, status *enums.MerchantStatus, limit int) ([]models.Merchant, error)
	ListApplications(ctx context.Context, status *enums.ApplicationStatus, limit int) ([]models.MerchantApplication, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.MerchantStatus) error
	EnsureRecipient(ctx context.Context, merchantID uuid.UUID) (*models.Merchant, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	gateway recipientGateway
	outbox  outboxPublisher
	logg    *logger.Logger
}

// NewService builds a merchant service. The gateway is optional; without it
// approved merchants start with no recipient reference and are skipped by
// payout aggregation until one is provisioned.
func NewService(repo Repository, tx txRunner, gateway recipientGateway, ob outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("merchants repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, gateway: gateway, outbox: ob, logg: logg}, nil
}

func (s *service) SubmitApplication(ctx context.Context, input SubmitApplicationInput) (*models.MerchantApplication, error) {
	if input.BusinessName == "" || input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name and email are required")
	}

	application := &models.MerchantApplication{
		BusinessName:  input.BusinessName,
		Email:         input.Email,
		BankName:      input.BankName,
		BankCode:      input.BankCode,
		AccountNumber: input.AccountNumber,
		AccountName:   input.AccountName,
		Status:        enums.ApplicationStatusPending,
	}
	if err := s.repo.CreateApplication(ctx, application); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
	}
	return application, nil
}

// ReviewApplication resolves a pending application. Approval creates the
// merchant row in the same transaction; gateway recipient provisioning runs
// after commit so a slow or failing gateway cannot block the review.
func (s *service) ReviewApplication(ctx context.Context, input ReviewApplicationInput) (*models.MerchantApplication, error) {
	if input.ApplicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}
	if input.Decision != DecisionApprove && input.Decision != DecisionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}

	var (
		application *models.MerchantApplication
		merchant    *models.Merchant
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		application, err = repo.FindApplication(ctx, input.ApplicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
		}
		if application.Status != enums.ApplicationStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("application already %s", application.Status))
		}

		now := time.Now()
		updates := map[string]any{
			"reviewed_by":  input.ReviewerID,
			"reviewed_at":  now,
			"review_notes": input.Notes,
		}

		if input.Decision == DecisionReject {
			updates["status"] = enums.ApplicationStatusRejected
			application.Status = enums.ApplicationStatusRejected
			return repo.UpdateApplication(ctx, application.ID, updates)
		}

		merchant = &models.Merchant{
			BusinessName:  application.BusinessName,
			Email:         application.Email,
			Status:        enums.MerchantStatusActive,
			BankName:      application.BankName,
			BankCode:      application.BankCode,
			AccountNumber: application.AccountNumber,
			AccountName:   application.AccountName,
		}
		if err := repo.Create(ctx, merchant); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merchant")
		}

		updates["status"] = enums.ApplicationStatusApproved
		updates["merchant_id"] = merchant.ID
		application.Status = enums.ApplicationStatusApproved
		application.MerchantID = &merchant.ID
		if err := repo.UpdateApplication(ctx, application.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update application")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMerchantApproved,
			AggregateType: enums.AggregateMerchant,
			AggregateID:   merchant.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ReviewerID, Role: enums.ActorRoleAdmin.String()},
			Data: MerchantApprovedEvent{
				MerchantID:    merchant.ID,
				ApplicationID: application.ID,
				BusinessName:  merchant.BusinessName,
				Email:         merchant.Email,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if merchant != nil {
		s.provisionRecipient(ctx, merchant)
	}
	return application, nil
}

// provisionRecipient registers the merchant's bank details with the gateway.
// Best effort: a failure leaves RecipientRef unset and the merchant excluded
// from payout runs until an operator retries via EnsureRecipient.
func (s *service) provisionRecipient(ctx context.Context, merchant *models.Merchant) {
	if s.gateway == nil {
		return
	}
	ctx = s.logg.WithMerchantID(ctx, merchant.ID.String())
	if merchant.AccountNumber == "" || merchant.BankCode == "" {
		s.logg.Warn(ctx, "merchant approved without bank details; payout recipient not provisioned")
		return
	}

	recipient, err := s.gateway.CreateRecipient(ctx, paystack.RecipientCreateParams{
		Name:          merchant.AccountName,
		AccountNumber: merchant.AccountNumber,
		BankCode:      merchant.BankCode,
	})
	if err != nil {
		s.logg.Error(ctx, "provisioning payout recipient failed; merchant will be skipped by payout runs", err)
		return
	}
	if err := s.repo.SetRecipientRef(ctx, merchant.ID, recipient.RecipientCode); err != nil {
		s.logg.Error(ctx, "persisting payout recipient reference failed", err)
		return
	}
	merchant.RecipientRef = &recipient.RecipientCode
}

// EnsureRecipient retries gateway recipient provisioning for a merchant that
// is missing one.
func (s *service) EnsureRecipient(ctx context.Context, merchantID uuid.UUID) (*models.Merchant, error) {
	merchant, err := s.Get(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if merchant.RecipientRef != nil && *merchant.RecipientRef != "" {
		return merchant, nil
	}
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeMissingConfig, "payment gateway not configured")
	}
	if merchant.AccountNumber == "" || merchant.BankCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingConfig, "merchant has no bank details on file")
	}

	recipient, err := s.gateway.CreateRecipient(ctx, paystack.RecipientCreateParams{
		Name:          merchant.AccountName,
		AccountNumber: merchant.AccountNumber,
		BankCode:      merchant.BankCode,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRecipientRef(ctx, merchant.ID, recipient.RecipientCode); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist recipient reference")
	}
	merchant.RecipientRef = &recipient.RecipientCode
	return merchant, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	merchant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	return merchant, nil
}

func (s *service) List(ctx context.Context, status *enums.MerchantStatus, limit int) ([]models.Merchant, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, status, limit)
}

func (s *service) ListApplications(ctx context.Context, status *enums.ApplicationStatus, limit int) ([]models.MerchantApplication, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListApplications(ctx, status, limit)
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.MerchantStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid merchant status %q", status))
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Store adapts the repository to the narrow surface the payout engine needs.
type Store struct {
	repo Repository
}

// NewStore wraps a repository for use by other domains.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Find loads one merchant, optionally inside a transaction.
func (s *Store) Find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Merchant, error) {
	return s.repo.WithTx(tx).FindByID(ctx, id)
}

// RecordPayout bumps the merchant's payout totals inside the caller's transaction.
func (s *Store) RecordPayout(ctx context.Context, tx *gorm.DB, id uuid.UUID, amountMinor int64, paidAt time.Time) error {
	return s.repo.WithTx(tx).IncrementPayoutTotals(ctx, id, amountMinor, paidAt)
}
