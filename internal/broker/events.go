package broker

import (
	"context"
	"fmt"

	"payment-service/internal/models"
)

// EventPublisher handles publishing domain events. Events are keyed by order
// so all callbacks for one order land on the same partition.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPaymentInitiated publishes PaymentInitiated event
func (ep *EventPublisher) PublishPaymentInitiated(ctx context.Context, event *models.PaymentInitiatedEvent) error {
	key := fmt.Sprintf("order-%s", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishTransactionUpdated publishes TransactionUpdated event
func (ep *EventPublisher) PublishTransactionUpdated(ctx context.Context, event *models.TransactionUpdatedEvent) error {
	key := fmt.Sprintf("order-%s", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}
