package orders

import (
	"github.com/adesina-labs/kasuwa-backend/pkg/db/models"
	"github.com/adesina-labs/kasuwa-backend/pkg/enums"
)

// DeriveStatus recomputes the order-level status from its item set. It is a
// pure function, re-evaluated after every item mutation. Only two automatic
// transitions exist: all items delivered completes the order, and all items
// at or past the hub marks it shipped. Cancellation is never derived.
func DeriveStatus(current enums.OrderStatus, items []models.OrderItem) (enums.OrderStatus, bool) {
	if len(items) == 0 || current.IsTerminal() {
		return current, false
	}

	allDelivered := true
	allInTransit := true
	for _, item := range items {
		if item.FulfillmentStatus != enums.OrderItemStatusDelivered {
			allDelivered = false
		}
		switch item.FulfillmentStatus {
		case enums.OrderItemStatusSentToHub, enums.OrderItemStatusOutForDelivery:
		default:
			allInTransit = false
		}
	}

	if allDelivered {
		if current == enums.OrderStatusCompleted {
			return current, false
		}
		return enums.OrderStatusCompleted, true
	}
	if allInTransit && current != enums.OrderStatusPending {
		if current == enums.OrderStatusShipped {
			return current, false
		}
		return enums.OrderStatusShipped, true
	}
	return current, false
}
