package merchants

import (
	"context"
	"errors"
	"testing"
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

type stubMerchantsRepo struct {
	merchants    map[uuid.UUID]*models.Merchant
	applications map[uuid.UUID]*models.MerchantApplication

	recipientRefs map[uuid.UUID]string
	createErr     error
}

func newStubMerchantsRepo() *stubMerchantsRepo {
	return &stubMerchantsRepo{
		merchants:     make(map[uuid.UUID]*models.Merchant),
		applications:  make(map[uuid.UUID]*models.MerchantApplication),
		recipientRefs: make(map[uuid.UUID]string),
	}
}

func (s *stubMerchantsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubMerchantsRepo) Create(ctx context.Context, merchant *models.Merchant) error {
	if s.createErr != nil {
		return s.createErr
	}
	if merchant.ID == uuid.Nil {
		merchant.ID = uuid.New()
	}
	s.merchants[merchant.ID] = merchant
	return nil
}

func (s *stubMerchantsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	merchant, ok := s.merchants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *merchant
	return &copied, nil
}

func (s *stubMerchantsRepo) List(ctx context.Context, status *enums.MerchantStatus, limit int) ([]models.Merchant, error) {
	var rows []models.Merchant
	for _, merchant := range s.merchants {
		if status != nil && merchant.Status != *status {
			continue
		}
		rows = append(rows, *merchant)
	}
	return rows, nil
}

func (s *stubMerchantsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MerchantStatus) error {
	if merchant, ok := s.merchants[id]; ok {
		merchant.Status = status
	}
	return nil
}

func (s *stubMerchantsRepo) SetRecipientRef(ctx context.Context, id uuid.UUID, recipientRef string) error {
	s.recipientRefs[id] = recipientRef
	if merchant, ok := s.merchants[id]; ok {
		merchant.RecipientRef = &recipientRef
	}
	return nil
}

func (s *stubMerchantsRepo) IncrementPayoutTotals(ctx context.Context, id uuid.UUID, amountMinor int64, paidAt time.Time) error {
	if merchant, ok := s.merchants[id]; ok {
		merchant.TotalPaidOutMinor += amountMinor
		merchant.LastPayoutAt = &paidAt
	}
	return nil
}

func (s *stubMerchantsRepo) CreateApplication(ctx context.Context, application *models.MerchantApplication) error {
	if application.ID == uuid.Nil {
		application.ID = uuid.New()
	}
	s.applications[application.ID] = application
	return nil
}

func (s *stubMerchantsRepo) FindApplication(ctx context.Context, id uuid.UUID) (*models.MerchantApplication, error) {
	application, ok := s.applications[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *application
	return &copied, nil
}

func (s *stubMerchantsRepo) ListApplications(ctx context.Context, status *enums.ApplicationStatus, limit int) ([]models.MerchantApplication, error) {
	var rows []models.MerchantApplication
	for _, application := range s.applications {
		if status != nil && application.Status != *status {
			continue
		}
		rows = append(rows, *application)
	}
	return rows, nil
}

func (s *stubMerchantsRepo) UpdateApplication(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	application, ok := s.applications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"]; ok {
		application.Status = status.(enums.ApplicationStatus)
	}
	if merchantID, ok := updates["merchant_id"]; ok {
		id := merchantID.(uuid.UUID)
		application.MerchantID = &id
	}
	return nil
}

type stubRecipientGateway struct {
	create func(ctx context.Context, params paystack.RecipientCreateParams) (*paystack.Recipient, error)
	calls  []paystack.RecipientCreateParams
}

func (s *stubRecipientGateway) CreateRecipient(ctx context.Context, params paystack.RecipientCreateParams) (*paystack.Recipient, error) {
	s.calls = append(s.calls, params)
	if s.create != nil {
		return s.create(ctx, params)
	}
	return &paystack.Recipient{RecipientCode: "RCP_test"}, nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	repo    *stubMerchantsRepo
	gateway *stubRecipientGateway
	emitter *stubEmitter
	svc     Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    newStubMerchantsRepo(),
		gateway: &stubRecipientGateway{},
		emitter: &stubEmitter{},
	}
	svc, err := NewService(f.repo, stubTxRunner{}, f.gateway, f.emitter, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func pendingApplication() *models.MerchantApplication {
	return &models.MerchantApplication{
		ID:            uuid.New(),
		BusinessName:  "Adesina Traders",
		Email:         "payouts@adesinatraders.ng",
		BankName:      "GTBank",
		BankCode:      "058",
		AccountNumber: "0123456789",
		AccountName:   "Adesina Traders Ltd",
		Status:        enums.ApplicationStatusPending,
	}
}

func TestSubmitApplication(t *testing.T) {
	f := newFixture(t)

	application, err := f.svc.SubmitApplication(context.Background(), SubmitApplicationInput{
		BusinessName: "Adesina Traders",
		Email:        "payouts@adesinatraders.ng",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if application.Status != enums.ApplicationStatusPending {
		t.Fatalf("status = %s, want pending", application.Status)
	}
}

func TestSubmitApplicationRejectsMissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitApplication(context.Background(), SubmitApplicationInput{Email: "x@y.ng"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation code", err)
	}
}

func TestReviewApplicationApproveCreatesMerchant(t *testing.T) {
	f := newFixture(t)
	application := pendingApplication()
	f.repo.applications[application.ID] = application

	reviewed, err := f.svc.ReviewApplication(context.Background(), ReviewApplicationInput{
		ApplicationID: application.ID,
		Decision:      DecisionApprove,
		ReviewerID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != enums.ApplicationStatusApproved {
		t.Fatalf("status = %s, want approved", reviewed.Status)
	}
	if reviewed.MerchantID == nil {
		t.Fatal("expected merchant_id on approved application")
	}

	merchant, ok := f.repo.merchants[*reviewed.MerchantID]
	if !ok {
		t.Fatal("merchant row not created")
	}
	if merchant.Status != enums.MerchantStatusActive {
		t.Fatalf("merchant status = %s, want active", merchant.Status)
	}
	if merchant.RecipientRef == nil || *merchant.RecipientRef != "RCP_test" {
		t.Fatalf("recipient ref = %v, want RCP_test", merchant.RecipientRef)
	}

	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventMerchantApproved {
		t.Fatalf("events = %+v, want one merchant.approved", f.emitter.events)
	}
}

func TestReviewApplicationApproveSurvivesGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.create = func(ctx context.Context, params paystack.RecipientCreateParams) (*paystack.Recipient, error) {
		return nil, errors.New("gateway down")
	}
	application := pendingApplication()
	f.repo.applications[application.ID] = application

	reviewed, err := f.svc.ReviewApplication(context.Background(), ReviewApplicationInput{
		ApplicationID: application.ID,
		Decision:      DecisionApprove,
		ReviewerID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("review should not fail on recipient provisioning: %v", err)
	}

	merchant := f.repo.merchants[*reviewed.MerchantID]
	if merchant.RecipientRef != nil {
		t.Fatalf("recipient ref = %v, want unset after gateway failure", merchant.RecipientRef)
	}
}

func TestReviewApplicationReject(t *testing.T) {
	f := newFixture(t)
	application := pendingApplication()
	f.repo.applications[application.ID] = application
	notes := "bank account could not be verified"

	reviewed, err := f.svc.ReviewApplication(context.Background(), ReviewApplicationInput{
		ApplicationID: application.ID,
		Decision:      DecisionReject,
		ReviewerID:    uuid.New(),
		Notes:         &notes,
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != enums.ApplicationStatusRejected {
		t.Fatalf("status = %s, want rejected", reviewed.Status)
	}
	if len(f.repo.merchants) != 0 {
		t.Fatalf("merchants created = %d, want 0", len(f.repo.merchants))
	}
	if len(f.gateway.calls) != 0 {
		t.Fatalf("gateway calls = %d, want 0", len(f.gateway.calls))
	}
}

func TestReviewApplicationAlreadyReviewed(t *testing.T) {
	f := newFixture(t)
	application := pendingApplication()
	application.Status = enums.ApplicationStatusApproved
	f.repo.applications[application.ID] = application

	_, err := f.svc.ReviewApplication(context.Background(), ReviewApplicationInput{
		ApplicationID: application.ID,
		Decision:      DecisionApprove,
		ReviewerID:    uuid.New(),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("err = %v, want state conflict code", err)
	}
}

func TestReviewApplicationNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ReviewApplication(context.Background(), ReviewApplicationInput{
		ApplicationID: uuid.New(),
		Decision:      DecisionReject,
		ReviewerID:    uuid.New(),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("err = %v, want not found code", err)
	}
}

func TestEnsureRecipientRetriesProvisioning(t *testing.T) {
	f := newFixture(t)
	merchant := &models.Merchant{
		ID:            uuid.New(),
		BusinessName:  "Adesina Traders",
		Status:        enums.MerchantStatusActive,
		BankCode:      "058",
		AccountNumber: "0123456789",
		AccountName:   "Adesina Traders Ltd",
	}
	f.repo.merchants[merchant.ID] = merchant

	ensured, err := f.svc.EnsureRecipient(context.Background(), merchant.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if ensured.RecipientRef == nil || *ensured.RecipientRef != "RCP_test" {
		t.Fatalf("recipient ref = %v, want RCP_test", ensured.RecipientRef)
	}
}

func TestEnsureRecipientNoopWhenPresent(t *testing.T) {
	f := newFixture(t)
	ref := "RCP_existing"
	merchant := &models.Merchant{ID: uuid.New(), Status: enums.MerchantStatusActive, RecipientRef: &ref}
	f.repo.merchants[merchant.ID] = merchant

	ensured, err := f.svc.EnsureRecipient(context.Background(), merchant.ID)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if *ensured.RecipientRef != ref {
		t.Fatalf("recipient ref = %s, want %s", *ensured.RecipientRef, ref)
	}
	if len(f.gateway.calls) != 0 {
		t.Fatalf("gateway calls = %d, want 0", len(f.gateway.calls))
	}
}

func TestEnsureRecipientMissingBankDetails(t *testing.T) {
	f := newFixture(t)
	merchant := &models.Merchant{ID: uuid.New(), Status: enums.MerchantStatusActive}
	f.repo.merchants[merchant.ID] = merchant

	_, err := f.svc.EnsureRecipient(context.Background(), merchant.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeMissingConfig) {
		t.Fatalf("err = %v, want missing configuration code", err)
	}
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	f := newFixture(t)
	merchant := &models.Merchant{ID: uuid.New(), Status: enums.MerchantStatusActive}
	f.repo.merchants[merchant.ID] = merchant

	if err := f.svc.SetStatus(context.Background(), merchant.ID, enums.MerchantStatus("vanished")); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation code", err)
	}
	if err := f.svc.SetStatus(context.Background(), merchant.ID, enums.MerchantStatusSuspended); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if f.repo.merchants[merchant.ID].Status != enums.MerchantStatusSuspended {
		t.Fatalf("status = %s, want suspended", f.repo.merchants[merchant.ID].Status)
	}
}
