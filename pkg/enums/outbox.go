package enums

// OutboxEventType names a domain event written to the transactional outbox.
type OutboxEventType string

const (
	EventPayoutCompleted  OutboxEventType = "payout.completed"
	EventPayoutFailed     OutboxEventType = "payout.failed"
	EventOrderCanceled    OutboxEventType = "order.canceled"
	EventReturnRefunded   OutboxEventType = "return.refunded"
	EventMerchantApproved OutboxEventType = "merchant.approved"
)

// OutboxAggregateType names the entity family an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregatePayout        OutboxAggregateType = "payout"
	AggregateOrder         OutboxAggregateType = "order"
	AggregateReturnRequest OutboxAggregateType = "return_request"
	AggregateMerchant      OutboxAggregateType = "merchant"
)
