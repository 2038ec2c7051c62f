package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/internal/inventory"
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

// refundGateway is the slice of the payment gateway refund processing uses.
type refundGateway interface {
	CreateRefund(ctx context.Context, params paystack.RefundParams) (*paystack.Refund, error)
}

// orderStore resolves the item and order a return points at. A nil tx binds
// to the base connection.
type orderStore interface {
	FindOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	FindItem(ctx context.Context, tx *gorm.DB, itemID uuid.UUID) (*models.OrderItem, error)
}

// paymentStore resolves the completed charge a refund targets.
type paymentStore interface {
	FindCompletedByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Payment, error)
}

// stockKeeper restocks returned units.
type stockKeeper interface {
	Restock(ctx context.Context, tx *gorm.DB, key inventory.ItemKey, qty int) error
}

// CreateInput is a customer's return submission.
type CreateInput struct {
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	CustomerID  uuid.UUID
	Reason      string
	Description *string
}

// MerchantDecisionInput carries the merchant's review of a pending return.
type MerchantDecisionInput struct {
	ReturnID   uuid.UUID
	MerchantID uuid.UUID
	Approve    bool
}

// ReturnRefundedEvent is emitted when a return's refund settles.
type ReturnRefundedEvent struct {
	ReturnID    uuid.UUID `json:"return_id"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderItemID uuid.UUID `json:"order_item_id"`
	RefundRef   string    `json:"refund_ref"`
	AmountMinor int64     `json:"amount_minor"`
}

// Service drives the return review chain and refund processing.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.ReturnRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	List(ctx context.Context, status *enums.ReturnStatus, limit int) ([]models.ReturnRequest, error)
	MerchantDecision(ctx context.Context, input MerchantDecisionInput) (*models.ReturnRequest, error)
	AdminEscalate(ctx context.Context, returnID, adminID uuid.UUID) (*models.ReturnRequest, error)
	AdminApprove(ctx context.Context, returnID, adminID uuid.UUID) (*models.ReturnRequest, error)
	ProcessRefund(ctx context.Context, returnID uuid.UUID) error
}

type service struct {
	repo     Repository
	tx       txRunner
	gateway  refundGateway
	orders   orderStore
	payments paymentStore
	stock    stockKeeper
	outbox   outboxPublisher
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundle the return service dependencies.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Gateway  refundGateway
	Orders   orderStore
	Payments paymentStore
	Stock    stockKeeper
	Outbox   outboxPublisher
	Logger   *logger.Logger
}

// NewService builds the return service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil || params.Tx == nil || params.Orders == nil || params.Stock == nil {
		return nil, fmt.Errorf("returns service requires repo, tx runner, orders, and inventory")
	}
	if params.Gateway == nil || params.Payments == nil {
		return nil, fmt.Errorf("returns service requires gateway and payments")
	}
	if params.Outbox == nil || params.Logger == nil {
		return nil, fmt.Errorf("returns service requires outbox and logger")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		gateway:  params.Gateway,
		orders:   params.Orders,
		payments: params.Payments,
		stock:    params.Stock,
		outbox:   params.Outbox,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.ReturnRequest, error) {
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return reason required")
	}
	item, err := s.orders.FindItem(ctx, nil, input.OrderItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	if item.OrderID != input.OrderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item does not belong to order")
	}

	request := &models.ReturnRequest{
		OrderID:     input.OrderID,
		OrderItemID: input.OrderItemID,
		CustomerID:  input.CustomerID,
		Reason:      input.Reason,
		Description: input.Description,
		Status:      enums.ReturnStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return request")
	}
	return request, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return request")
	}
	return request, nil
}

func (s *service) List(ctx context.Context, status *enums.ReturnStatus, limit int) ([]models.ReturnRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, status, limit)
}

// MerchantDecision resolves a pending return. Approval starts refund
// processing immediately; a refund failure surfaces to the caller even though
// the approval itself has already been persisted.
func (s *service) MerchantDecision(ctx context.Context, input MerchantDecisionInput) (*models.ReturnRequest, error) {
	request, err := s.Get(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.ReturnStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("return is %s, not pending", request.Status))
	}

	item, err := s.orders.FindItem(ctx, nil, request.OrderItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	if item.MerchantID != input.MerchantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "return belongs to another merchant")
	}

	status := enums.ReturnStatusMerchantRejected
	if input.Approve {
		status = enums.ReturnStatusMerchantApproved
	}
	if err := s.repo.UpdateStatus(ctx, request.ID, status, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return status")
	}
	request.Status = status

	if input.Approve {
		if err := s.ProcessRefund(ctx, request.ID); err != nil {
			return request, err
		}
		request.Status = enums.ReturnStatusRefunded
	}
	return request, nil
}

// AdminEscalate moves a merchant-rejected return into admin review.
func (s *service) AdminEscalate(ctx context.Context, returnID, adminID uuid.UUID) (*models.ReturnRequest, error) {
	request, err := s.Get(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.ReturnStatusMerchantRejected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("only merchant-rejected returns can be escalated, return is %s", request.Status))
	}
	if err := s.repo.UpdateStatus(ctx, request.ID, enums.ReturnStatusAdminReview, &adminID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "escalate return")
	}
	request.Status = enums.ReturnStatusAdminReview
	request.ReviewedBy = &adminID
	return request, nil
}

// AdminApprove overrides a merchant rejection and starts refund processing.
func (s *service) AdminApprove(ctx context.Context, returnID, adminID uuid.UUID) (*models.ReturnRequest, error) {
	request, err := s.Get(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.ReturnStatusAdminReview {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("only returns under admin review can be approved, return is %s", request.Status))
	}
	if err := s.repo.UpdateStatus(ctx, request.ID, enums.ReturnStatusAdminApproved, &adminID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve return")
	}
	request.Status = enums.ReturnStatusAdminApproved
	request.ReviewedBy = &adminID

	if err := s.ProcessRefund(ctx, request.ID); err != nil {
		return request, err
	}
	request.Status = enums.ReturnStatusRefunded
	return request, nil
}

// ProcessRefund runs the refund routine exactly once per return. Lookup
// failures abort silently, leaving the return in its approved state for
// manual follow-up. Gateway and persistence failures propagate so callers
// can alert instead of losing the refund.
func (s *service) ProcessRefund(ctx context.Context, returnID uuid.UUID) error {
	ctx = s.logg.WithField(ctx, "return_id", returnID.String())

	request, err := s.repo.FindByID(ctx, returnID)
	if err != nil {
		s.logg.Warn(ctx, "refund skipped: return lookup failed")
		return nil
	}
	if request.Status == enums.ReturnStatusRefunded {
		return nil
	}
	if !request.Status.RefundAllowed() {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("refund not allowed from status %s", request.Status))
	}

	item, err := s.orders.FindItem(ctx, nil, request.OrderItemID)
	if err != nil {
		s.logg.Warn(ctx, "refund skipped: order item lookup failed")
		return nil
	}
	if _, err := s.orders.FindOrder(ctx, nil, request.OrderID); err != nil {
		s.logg.Warn(ctx, "refund skipped: order lookup failed")
		return nil
	}
	payment, err := s.payments.FindCompletedByOrder(ctx, nil, request.OrderID)
	if err != nil {
		s.logg.Warn(ctx, "refund skipped: no completed payment for order")
		return nil
	}
	if payment.TransactionRef == "" {
		s.logg.Warn(ctx, "refund skipped: payment has no transaction reference")
		return nil
	}

	amountMinor := item.PriceMinor * int64(item.Qty)
	amountMajor := decimal.NewFromInt(amountMinor).Div(decimal.NewFromInt(100))

	refund, err := s.gateway.CreateRefund(ctx, paystack.RefundParams{
		TransactionRef: payment.TransactionRef,
		AmountMajor:    &amountMajor,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "gateway refund failed")
	}
	refundRef := fmt.Sprintf("%d", refund.ID)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.MarkRefunded(ctx, request.ID, refundRef, s.now()); err != nil {
			return err
		}
		key := inventory.ItemKey{
			MerchantID: item.MerchantID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
		}
		if err := s.stock.Restock(ctx, tx, key, item.Qty); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnRefunded,
			AggregateType: enums.AggregateReturnRequest,
			AggregateID:   request.ID,
			Version:       1,
			Data: ReturnRefundedEvent{
				ReturnID:    request.ID,
				OrderID:     request.OrderID,
				OrderItemID: request.OrderItemID,
				RefundRef:   refundRef,
				AmountMinor: amountMinor,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			"refund issued but persistence failed; manual reconciliation required")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"refund_ref":   refundRef,
		"amount_minor": amountMinor,
	})
	s.logg.Info(logCtx, "return refunded")
	return nil
}
