package models

import "time"

// Event types
const (
	EventTypePaymentInitiated   = "PAYMENT_INITIATED"
	EventTypeTransactionUpdated = "TRANSACTION_UPDATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentInitiatedEvent published when an order is created and the gateway
// artifact has been persisted
type PaymentInitiatedEvent struct {
	BaseEvent
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	Gateway     string `json:"gateway"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

// TransactionUpdatedEvent published after a verified webhook callback has been
// applied to the transaction record
type TransactionUpdatedEvent struct {
	BaseEvent
	OrderID              string `json:"order_id"`
	Gateway              string `json:"gateway"`
	GatewayTransactionID string `json:"gateway_transaction_id"`
	Status               string `json:"status"`
}
