package enums

import "slices"

// OutboxAggregateType is the kind of row an outbox event describes.
type OutboxAggregateType string

// OutboxEventType names what happened to the aggregate.
type OutboxEventType string

const (
	AggregateOrder OutboxAggregateType = "order"

	EventOrderCreated OutboxEventType = "order_created"
)

var (
	outboxAggregates = []OutboxAggregateType{AggregateOrder}
	outboxEvents     = []OutboxEventType{EventOrderCreated}
)

func (a OutboxAggregateType) IsValid() bool { return slices.Contains(outboxAggregates, a) }

func (e OutboxEventType) IsValid() bool { return slices.Contains(outboxEvents, e) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parseEnum("aggregate type", value, outboxAggregates)
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parseEnum("event type", value, outboxEvents)
}
