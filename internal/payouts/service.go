package payouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/metrics"
	"github.com/adesina-labs/kasuwa-backend/pkg/outbox"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// transferGateway is the slice of the payment gateway the engine depends on.
type transferGateway interface {
	InitiateTransfer(ctx context.Context, params paystack.TransferParams) (*paystack.Transfer, error)
	VerifyTransfer(ctx context.Context, reference string) (*paystack.TransferVerification, error)
}

// merchantStore exposes the merchant reads and payout bookkeeping the engine
// needs. A nil tx binds to the base connection.
type merchantStore interface {
	Find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Merchant, error)
	RecordPayout(ctx context.Context, tx *gorm.DB, id uuid.UUID, amountMinor int64, paidAt time.Time) error
}

// payoutNotifier delivers best-effort outcome notifications. Failures are
// logged and swallowed; they never affect payout state.
type payoutNotifier interface {
	PayoutCompleted(ctx context.Context, merchant *models.Merchant, payout *models.Payout) error
	PayoutFailed(ctx context.Context, merchant *models.Merchant, payout *models.Payout, reason string) error
}

// Service drives payouts through aggregation, external transfer, and webhook
// reconciliation.
type Service interface {
	AggregateEligible(ctx context.Context) ([]AggregationResult, error)
	Process(ctx context.Context, payoutID uuid.UUID) (*ProcessResult, error)
	HandleTransferSuccess(ctx context.Context, transferRef string) error
	HandleTransferFailure(ctx context.Context, transferRef, reason string) error
	Get(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit int) ([]models.Payout, error)
	ListByStatus(ctx context.Context, status enums.PayoutStatus, limit int) ([]models.Payout, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	gateway   transferGateway
	merchants merchantStore
	outbox    outboxPublisher
	notifier  payoutNotifier
	metrics   *metrics.PayoutMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// AggregationResult summarizes one payout created by an aggregation run.
type AggregationResult struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	MerchantID  uuid.UUID `json:"merchant_id"`
	AmountMinor int64     `json:"amount_minor"`
	SplitsCount int       `json:"splits_count"`
}

// ProcessOutcome is the terminal state of one processPayout attempt.
type ProcessOutcome string

const (
	OutcomeCompleted  ProcessOutcome = "completed"
	OutcomeProcessing ProcessOutcome = "processing"
	OutcomeFailed     ProcessOutcome = "failed"
)

// ProcessResult carries the payout and transfer details after processing.
type ProcessResult struct {
	Payout       *models.Payout                 `json:"payout"`
	Outcome      ProcessOutcome                 `json:"outcome"`
	TransferCode string                         `json:"transfer_code,omitempty"`
	TransferRef  string                         `json:"transfer_ref,omitempty"`
	Verification *paystack.TransferVerification `json:"verification,omitempty"`
}

// PayoutCompletedEvent is emitted when a payout settles.
type PayoutCompletedEvent struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	MerchantID  uuid.UUID `json:"merchant_id"`
	AmountMinor int64     `json:"amount_minor"`
	TransferRef string    `json:"transfer_ref"`
	CompletedAt time.Time `json:"completed_at"`
}

// PayoutFailedEvent is emitted when a transfer fails or is reversed.
type PayoutFailedEvent struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	MerchantID  uuid.UUID `json:"merchant_id"`
	AmountMinor int64     `json:"amount_minor"`
	Reason      string    `json:"reason"`
}

// ServiceParams bundle the payout engine dependencies.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Gateway   transferGateway
	Merchants merchantStore
	Outbox    outboxPublisher
	Notifier  payoutNotifier
	Metrics   *metrics.PayoutMetrics
	Logger    *logger.Logger
}

// NewService builds the payout engine with the required dependencies.
// Metrics and notifier are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("transfer gateway required")
	}
	if params.Merchants == nil {
		return nil, fmt.Errorf("merchant store required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		gateway:   params.Gateway,
		merchants: params.Merchants,
		outbox:    params.Outbox,
		notifier:  params.Notifier,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// AggregateEligible creates one pending payout per active merchant with
// matured splits and a configured recipient. Splits are not claimed here;
// claiming happens at process time. Per-merchant failures are accumulated so
// one bad merchant does not block the rest of the run.
func (s *service) AggregateEligible(ctx context.Context) ([]AggregationResult, error) {
	started := s.now()
	totals, err := s.repo.ListEligibleTotals(ctx, started)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan eligible splits")
	}

	var errs error
	results := make([]AggregationResult, 0, len(totals))
	for _, total := range totals {
		merchantCtx := s.logg.WithMerchantID(ctx, total.MerchantID.String())

		merchant, err := s.merchants.Find(merchantCtx, nil, total.MerchantID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("merchant %s: %w", total.MerchantID, err))
			continue
		}
		if merchant.Status != enums.MerchantStatusActive {
			s.logg.Info(merchantCtx, "skipping aggregation for inactive merchant")
			continue
		}
		if merchant.RecipientRef == nil || *merchant.RecipientRef == "" {
			// Hard precondition for automated payouts; skipped, not fatal.
			s.logg.Warn(merchantCtx, "merchant has eligible splits but no payout recipient configured; skipping")
			continue
		}

		payout := &models.Payout{
			MerchantID:   total.MerchantID,
			AmountMinor:  total.TotalMinor,
			SplitsCount:  total.SplitsCount,
			Status:       enums.PayoutStatusPending,
			RecipientRef: *merchant.RecipientRef,
		}
		if err := s.repo.Create(ctx, payout); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("create payout for merchant %s: %w", total.MerchantID, err))
			continue
		}

		results = append(results, AggregationResult{
			PayoutID:    payout.ID,
			MerchantID:  payout.MerchantID,
			AmountMinor: payout.AmountMinor,
			SplitsCount: payout.SplitsCount,
		})
	}

	s.observeRun("aggregate", started)
	return results, errs
}

// Process drives one pending payout through claim, transfer initiation, and
// synchronous verification. Claiming through verification runs in a single
// transaction; a failure before commit reverts the claimed splits. The
// outcome notification is deliberately outside the transaction.
func (s *service) Process(ctx context.Context, payoutID uuid.UUID) (*ProcessResult, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	ctx = s.logg.WithPayoutID(ctx, payoutID.String())
	started := s.now()

	var (
		result        ProcessResult
		merchant      *models.Merchant
		failureReason string
	)

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByID(ctx, payoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if payout.Status != enums.PayoutStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payout is %s; only pending payouts can be processed", payout.Status))
		}

		merchant, err = s.merchants.Find(ctx, tx, payout.MerchantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout merchant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
		}
		if merchant.RecipientRef == nil || *merchant.RecipientRef == "" {
			return pkgerrors.New(pkgerrors.CodeMissingConfig,
				"merchant has no payout recipient configured").
				WithDetails(map[string]any{"merchant_id": merchant.ID})
		}

		// The claim is scoped to splits matured before the payout existed,
		// so splits maturing afterwards form a new payout and the amount is
		// only ever corrected downward.
		claimedAmount, claimedCount, err := repo.ClaimSplits(ctx, payout.MerchantID, payout.ID, payout.CreatedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim splits")
		}
		if claimedAmount != payout.AmountMinor {
			// Splits changed between aggregation and processing. The claimed
			// sum is authoritative; the payout amount is corrected to match
			// before the transfer.
			s.logg.Warn(ctx, fmt.Sprintf("claimed split sum %d differs from payout amount %d; correcting", claimedAmount, payout.AmountMinor))
			if err := repo.SetAmount(ctx, payout.ID, claimedAmount, claimedCount); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "correct payout amount")
			}
			payout.AmountMinor = claimedAmount
			payout.SplitsCount = claimedCount
		}
		if claimedAmount <= 0 {
			failureReason = "no matured splits to claim"
			return pkgerrors.New(pkgerrors.CodeValidation, failureReason)
		}

		transferRef := payout.ID.String()
		transfer, err := s.gateway.InitiateTransfer(ctx, paystack.TransferParams{
			AmountMinor:   payout.AmountMinor,
			RecipientCode: *merchant.RecipientRef,
			Reference:     transferRef,
			Reason:        fmt.Sprintf("Payout to %s", merchant.BusinessName),
		})
		if err != nil {
			// Rolling back reverts the claimed splits; the payout row is
			// marked failed after the rollback.
			failureReason = fmt.Sprintf("transfer initiation failed: %v", err)
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "transfer initiation failed")
		}

		verification, verifyErr := s.gateway.VerifyTransfer(ctx, transferRef)
		switch {
		case verifyErr != nil:
			// Verification trouble is not fatal; settlement arrives via webhook.
			s.logg.Warn(ctx, fmt.Sprintf("transfer verification failed, leaving payout processing: %v", verifyErr))
			if err := repo.MarkProcessing(ctx, payout.ID, transfer.TransferCode, transferRef); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout processing")
			}
			result.Outcome = OutcomeProcessing

		case verification.Status == paystack.TransferStatusSuccess:
			if err := s.settle(ctx, tx, repo, payout, transfer.TransferCode, transferRef); err != nil {
				return err
			}
			result.Outcome = OutcomeCompleted
			result.Verification = verification

		case verification.Status == paystack.TransferStatusFailed:
			if _, err := repo.ReleaseSplits(ctx, payout.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release splits")
			}
			reason := "transfer reported failed on verification"
			if err := repo.MarkFailed(ctx, payout.ID, reason); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout failed")
			}
			if err := s.outbox.Emit(ctx, tx, s.failedEvent(payout, reason)); err != nil {
				return err
			}
			result.Outcome = OutcomeFailed
			result.Verification = verification

		default:
			// pending or any other non-terminal status
			if err := repo.MarkProcessing(ctx, payout.ID, transfer.TransferCode, transferRef); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout processing")
			}
			result.Outcome = OutcomeProcessing
			result.Verification = verification
		}

		payout.TransferCode = &transfer.TransferCode
		payout.TransferRef = &transferRef
		result.Payout = payout
		result.TransferCode = transfer.TransferCode
		result.TransferRef = transferRef
		return nil
	})

	if txErr != nil {
		if failureReason != "" {
			// The rollback reverted the claim; record the failed attempt on
			// the payout row so operators can see why.
			if err := s.repo.MarkFailed(ctx, payoutID, failureReason); err != nil {
				s.logg.Error(ctx, "recording payout failure reason", err)
			}
			s.observeOutcome(string(OutcomeFailed), 0, started)
			s.notifyFailure(ctx, merchant, payoutID, failureReason)
		}
		return nil, txErr
	}

	s.observeOutcome(string(result.Outcome), result.Payout.AmountMinor, started)
	if result.Outcome == OutcomeCompleted {
		s.notifySuccess(ctx, merchant, result.Payout)
	}
	if result.Outcome == OutcomeFailed {
		s.notifyFailure(ctx, merchant, payoutID, "transfer reported failed on verification")
	}
	return &result, nil
}

// settle applies the completed-transfer effects: payout completed, splits
// paid, merchant totals bumped, completion event queued. It is shared by the
// synchronous verification path and the webhook path so the two stay
// identical.
func (s *service) settle(ctx context.Context, tx *gorm.DB, repo Repository, payout *models.Payout, transferCode, transferRef string) error {
	completedAt := s.now()
	if err := repo.MarkCompleted(ctx, payout.ID, transferCode, transferRef, completedAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout completed")
	}
	if _, err := repo.MarkSplitsPaid(ctx, payout.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark splits paid")
	}
	if err := s.merchants.RecordPayout(ctx, tx, payout.MerchantID, payout.AmountMinor, completedAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update merchant totals")
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventPayoutCompleted,
		AggregateType: enums.AggregatePayout,
		AggregateID:   payout.ID,
		Version:       1,
		Data: PayoutCompletedEvent{
			PayoutID:    payout.ID,
			MerchantID:  payout.MerchantID,
			AmountMinor: payout.AmountMinor,
			TransferRef: transferRef,
			CompletedAt: completedAt,
		},
	}
	return s.outbox.EmitIfNotExists(ctx, tx, event)
}

// HandleTransferSuccess reconciles an asynchronous success callback. Unknown
// transfer references are logged and ignored; replays of an already-completed
// payout are no-ops.
func (s *service) HandleTransferSuccess(ctx context.Context, transferRef string) error {
	if transferRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer reference required")
	}

	var (
		merchant *models.Merchant
		settled  *models.Payout
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByTransferRef(ctx, transferRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logg.Info(s.logg.WithField(ctx, "transfer_ref", transferRef),
					"transfer success webhook for unknown reference; ignoring")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout by transfer ref")
		}
		ctx := s.logg.WithPayoutID(ctx, payout.ID.String())

		if err := GuardTransition(payout.Status, enums.PayoutStatusCompleted); err != nil {
			if IsNoop(err) {
				s.logg.Info(ctx, "duplicate transfer success webhook; payout already completed")
				return nil
			}
			return err
		}

		merchant, err = s.merchants.Find(ctx, tx, payout.MerchantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
		}

		transferCode := ""
		if payout.TransferCode != nil {
			transferCode = *payout.TransferCode
		}
		if err := s.settle(ctx, tx, repo, payout, transferCode, transferRef); err != nil {
			return err
		}
		settled = payout
		return nil
	})
	if err != nil {
		return err
	}

	if settled != nil {
		s.observeOutcome(string(OutcomeCompleted), settled.AmountMinor, s.now())
		s.notifySuccess(ctx, merchant, settled)
	}
	return nil
}

// HandleTransferFailure reconciles a failed or reversed transfer callback.
// The payout's processing splits return to payout_requested so a future
// aggregation run can retry them.
func (s *service) HandleTransferFailure(ctx context.Context, transferRef, reason string) error {
	if transferRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer reference required")
	}
	if reason == "" {
		reason = "transfer failed"
	}

	var (
		merchant *models.Merchant
		failed   *models.Payout
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByTransferRef(ctx, transferRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logg.Info(s.logg.WithField(ctx, "transfer_ref", transferRef),
					"transfer failure webhook for unknown reference; ignoring")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout by transfer ref")
		}
		ctx := s.logg.WithPayoutID(ctx, payout.ID.String())

		if err := GuardTransition(payout.Status, enums.PayoutStatusFailed); err != nil {
			if IsNoop(err) {
				s.logg.Info(ctx, "duplicate transfer failure webhook; payout already failed")
				return nil
			}
			return err
		}

		if _, err := repo.ReleaseSplits(ctx, payout.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release splits")
		}
		if err := repo.MarkFailed(ctx, payout.ID, reason); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout failed")
		}
		if err := s.outbox.Emit(ctx, tx, s.failedEvent(payout, reason)); err != nil {
			return err
		}

		merchant, _ = s.merchants.Find(ctx, tx, payout.MerchantID)
		failed = payout
		return nil
	})
	if err != nil {
		return err
	}

	if failed != nil {
		s.observeOutcome(string(OutcomeFailed), 0, s.now())
		s.notifyFailure(ctx, merchant, failed.ID, reason)
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	payout, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	return payout, nil
}

func (s *service) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit int) ([]models.Payout, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	return s.repo.ListByMerchant(ctx, merchantID, normalizeLimit(limit))
}

func (s *service) ListByStatus(ctx context.Context, status enums.PayoutStatus, limit int) ([]models.Payout, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payout status %q", status))
	}
	return s.repo.ListByStatus(ctx, status, normalizeLimit(limit))
}

func (s *service) failedEvent(payout *models.Payout, reason string) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventPayoutFailed,
		AggregateType: enums.AggregatePayout,
		AggregateID:   payout.ID,
		Version:       1,
		Data: PayoutFailedEvent{
			PayoutID:    payout.ID,
			MerchantID:  payout.MerchantID,
			AmountMinor: payout.AmountMinor,
			Reason:      reason,
		},
	}
}

func (s *service) notifySuccess(ctx context.Context, merchant *models.Merchant, payout *models.Payout) {
	if s.notifier == nil || merchant == nil || payout == nil {
		return
	}
	if err := s.notifier.PayoutCompleted(ctx, merchant, payout); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("payout completion notification failed: %v", err))
	}
}

func (s *service) notifyFailure(ctx context.Context, merchant *models.Merchant, payoutID uuid.UUID, reason string) {
	if s.notifier == nil || merchant == nil {
		return
	}
	payout := &models.Payout{ID: payoutID, MerchantID: merchant.ID}
	if err := s.notifier.PayoutFailed(ctx, merchant, payout, reason); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("payout failure notification failed: %v", err))
	}
}

func (s *service) observeRun(trigger string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRunDuration(trigger, time.Since(started))
}

func (s *service) observeOutcome(status string, amountMinor int64, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncProcessed(status)
	if amountMinor > 0 {
		s.metrics.AddAmount(status, amountMinor)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
