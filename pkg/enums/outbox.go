package enums

import "slices"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
	AggregateCart  OutboxAggregateType = "cart"
)

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateOrder || a == AggregateCart
}

// OutboxEventType names a domain event emitted through the outbox. Every
// event type belongs to exactly one aggregate.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderCancelled     OutboxEventType = "order_cancelled"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventCartTransferred    OutboxEventType = "cart_transferred"
)

var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventOrderCreated:       AggregateOrder,
	EventOrderCancelled:     AggregateOrder,
	EventOrderStatusChanged: AggregateOrder,
	EventCartTransferred:    AggregateCart,
}

func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate returns the owning aggregate, or "" for unknown event types.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	return eventAggregates[e]
}

// OutboxEventTypes lists every known event type in a stable order.
func OutboxEventTypes() []OutboxEventType {
	types := make([]OutboxEventType, 0, len(eventAggregates))
	for t := range eventAggregates {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("event type", OutboxEventTypes(), value)
}
