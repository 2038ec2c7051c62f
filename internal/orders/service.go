package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adesina-labs/kasuwa-backend/internal/audit"
	"github.com/adesina-labs/kasuwa-backend/internal/inventory"
	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
	pkgerrors "github.com/adesina-labs/kasuwa-backend/pkg/errors"
	"github.com/adesina-labs/kasuwa-backend/pkg/logger"
	"github.com/adesina-labs/kasuwa-backend/pkg/outbox"
	"github.com/adesina-labs/kasuwa-backend/pkg/pagination"
	"github.com/adesina-labs/kasuwa-backend/pkg/paystack"
	"github.com/adesina-labs/kasuwa-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// refundGateway is the slice of the payment gateway cancellation depends on.
type refundGateway interface {
	CreateRefund(ctx context.Context, params paystack.RefundParams) (*paystack.Refund, error)
}

// paymentStore resolves the completed charge a refund targets. A nil tx
// binds to the base connection.
type paymentStore interface {
	FindCompletedByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Payment, error)
	MarkRefunded(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

// stockKeeper mirrors the inventory mutations the fulfillment cascade uses.
type stockKeeper interface {
	ReleaseReservation(ctx context.Context, tx *gorm.DB, key inventory.ItemKey, qty int) error
	RestockAndRelease(ctx context.Context, tx *gorm.DB, key inventory.ItemKey, qty int) error
}

// UpdateItemInput carries one fulfillment transition request.
type UpdateItemInput struct {
	ItemID     uuid.UUID
	NewStatus  enums.OrderItemStatus
	ActorID    uuid.UUID
	ActorRole  enums.ActorRole
	MerchantID *uuid.UUID
}

// CancelInput carries an order cancellation request.
type CancelInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Reason  string
}

// CancelResult reports what the cancellation actually did. RefundRef is empty
// when no completed payment existed or the refund attempt failed.
type CancelResult struct {
	Order          *models.Order `json:"order"`
	ItemsRestocked int           `json:"items_restocked"`
	RefundRef      string        `json:"refund_ref,omitempty"`
	RefundError    string        `json:"refund_error,omitempty"`
}

// OrderCanceledEvent is emitted when an order is cancelled.
type OrderCanceledEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	Reason         string    `json:"reason"`
	ItemsRestocked int       `json:"items_restocked"`
	TotalMinor     int64     `json:"total_minor"`
}

// ListParams filters and pages the admin order listing.
type ListParams struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

// OrderList is one page of orders plus the cursor for the next page.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Service drives the fulfillment cascade and cancellation.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListParams) (*OrderList, error)
	UpdateItemFulfillment(ctx context.Context, input UpdateItemInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*CancelResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	gateway  refundGateway
	payments paymentStore
	stock    stockKeeper
	outbox   outboxPublisher
	auditor  audit.Recorder
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundle the order service dependencies.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Gateway  refundGateway
	Payments paymentStore
	Stock    stockKeeper
	Outbox   outboxPublisher
	Auditor  audit.Recorder
	Logger   *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil || params.Tx == nil || params.Stock == nil {
		return nil, fmt.Errorf("orders service requires repo, tx runner, and inventory")
	}
	if params.Outbox == nil || params.Logger == nil {
		return nil, fmt.Errorf("orders service requires outbox and logger")
	}
	auditor := params.Auditor
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		gateway:  params.Gateway,
		payments: params.Payments,
		stock:    params.Stock,
		outbox:   params.Outbox,
		auditor:  auditor,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*OrderList, error) {
	var cursor *pagination.Cursor
	if params.Cursor != "" {
		parsed, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		cursor = parsed
	}

	rows, next, err := s.repo.List(ctx, params.Status, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	result := &OrderList{Orders: rows}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// UpdateItemFulfillment applies a role-gated item transition and recomputes
// the order-level status. Merchants may only hand items to the hub; the
// admin-owned confirmed and delivery states stay out of their reach.
func (s *service) UpdateItemFulfillment(ctx context.Context, input UpdateItemInput) (*models.Order, error) {
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid fulfillment status %q", input.NewStatus))
	}
	if input.ActorRole == enums.ActorRoleMerchant && input.NewStatus != enums.OrderItemStatusSentToHub {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden,
			"merchants may only move items to sent_to_hub")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItem(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}
		if input.ActorRole == enums.ActorRoleMerchant {
			if input.MerchantID == nil || *input.MerchantID != item.MerchantID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "item belongs to another merchant")
			}
		}
		if item.FulfillmentStatus == input.NewStatus {
			order, err = repo.FindByID(ctx, item.OrderID)
			return err
		}

		if err := repo.UpdateItemStatus(ctx, item.ID, input.NewStatus); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item status")
		}

		if input.NewStatus == enums.OrderItemStatusDeclined {
			key := inventory.ItemKey{
				MerchantID: item.MerchantID,
				ProductID:  item.ProductID,
				VariantID:  item.VariantID,
			}
			if err := s.stock.ReleaseReservation(ctx, tx, key, item.Qty); err != nil {
				return err
			}
		}

		order, err = repo.FindByID(ctx, item.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		return s.cascadeStatus(ctx, repo, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// cascadeStatus persists the derived order status when it changed.
func (s *service) cascadeStatus(ctx context.Context, repo Repository, order *models.Order) error {
	derived, changed := DeriveStatus(order.Status, order.Items)
	if !changed {
		return nil
	}
	if derived == enums.OrderStatusCompleted {
		completedAt := s.now()
		if err := repo.MarkCompleted(ctx, order.ID, completedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}
		order.CompletedAt = &completedAt
	} else {
		if err := repo.UpdateStatus(ctx, order.ID, derived); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
	}
	order.Status = derived
	return nil
}

// Cancel restocks every item and cancels the order in one transaction. The
// refund attempt against the order's completed payment is best effort: a
// gateway failure leaves the order cancelled with the refund flagged for
// manual follow-up.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*CancelResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	ctx = s.logg.WithField(ctx, "order_id", input.OrderID.String())

	result := &CancelResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order is %s and cannot be cancelled", order.Status))
		}

		for _, item := range order.Items {
			key := inventory.ItemKey{
				MerchantID: item.MerchantID,
				ProductID:  item.ProductID,
				VariantID:  item.VariantID,
			}
			if err := s.stock.RestockAndRelease(ctx, tx, key, item.Qty); err != nil {
				return err
			}
			result.ItemsRestocked++
		}

		s.attemptRefund(ctx, tx, order, result)

		canceledAt := s.now()
		if err := repo.MarkCancelled(ctx, order.ID, canceledAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.Status = enums.OrderStatusCancelled
		order.CanceledAt = &canceledAt
		result.Order = order

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.ActorRoleAdmin.String()},
			Data: OrderCanceledEvent{
				OrderID:        order.ID,
				Reason:         input.Reason,
				ItemsRestocked: result.ItemsRestocked,
				TotalMinor:     order.TotalMinor,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	details := types.JSONMap{
		"reason":          input.Reason,
		"items_restocked": result.ItemsRestocked,
	}
	if result.RefundRef != "" {
		details["refund_ref"] = result.RefundRef
	}
	if result.RefundError != "" {
		details["refund_error"] = result.RefundError
	}
	s.auditor.Record(ctx, audit.Entry{
		Action:     "order.cancel",
		ActorID:    &input.ActorID,
		EntityType: "order",
		EntityID:   input.OrderID,
		Details:    details,
	})
	return result, nil
}

// attemptRefund issues a full refund against the order's completed payment.
// Every failure path only annotates the result; cancellation proceeds.
func (s *service) attemptRefund(ctx context.Context, tx *gorm.DB, order *models.Order, result *CancelResult) {
	if s.gateway == nil || s.payments == nil {
		return
	}

	payment, err := s.payments.FindCompletedByOrder(ctx, tx, order.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Error(ctx, "payment lookup for cancellation refund failed", err)
			result.RefundError = err.Error()
		}
		return
	}
	if payment.TransactionRef == "" {
		return
	}

	amountMajor := decimal.NewFromInt(order.TotalMinor).Div(decimal.NewFromInt(100))
	refund, err := s.gateway.CreateRefund(ctx, paystack.RefundParams{
		TransactionRef: payment.TransactionRef,
		AmountMajor:    &amountMajor,
	})
	if err != nil {
		s.logg.Error(ctx, "cancellation refund failed; order will be cancelled without refund", err)
		result.RefundError = err.Error()
		return
	}
	result.RefundRef = fmt.Sprintf("%d", refund.ID)
	if err := s.payments.MarkRefunded(ctx, tx, payment.ID); err != nil {
		s.logg.Error(ctx, "marking payment refunded failed", err)
	}
}
