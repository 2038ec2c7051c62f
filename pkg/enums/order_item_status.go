package enums

import "fmt"

// OrderItemStatus tracks per-item fulfillment independent of the order status.
type OrderItemStatus string

const (
	OrderItemStatusProcessing     OrderItemStatus = "processing"
	OrderItemStatusConfirmed      OrderItemStatus = "confirmed"
	OrderItemStatusDeclined       OrderItemStatus = "declined"
	OrderItemStatusSentToHub      OrderItemStatus = "sent_to_hub"
	OrderItemStatusOutForDelivery OrderItemStatus = "out_for_delivery"
	OrderItemStatusDelivered      OrderItemStatus = "delivered"
)

var validOrderItemStatuses = []OrderItemStatus{
	OrderItemStatusProcessing,
	OrderItemStatusConfirmed,
	OrderItemStatusDeclined,
	OrderItemStatusSentToHub,
	OrderItemStatusOutForDelivery,
	OrderItemStatusDelivered,
}

// String implements fmt.Stringer.
func (o OrderItemStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderItemStatus.
func (o OrderItemStatus) IsValid() bool {
	for _, candidate := range validOrderItemStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderItemStatus converts raw input into an OrderItemStatus.
func ParseOrderItemStatus(value string) (OrderItemStatus, error) {
	for _, candidate := range validOrderItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order item status %q", value)
}
