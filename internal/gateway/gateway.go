// Package gateway contains the payment gateway adapters. Each adapter wraps
// one external gateway API behind a uniform contract: create a payment
// artifact for an order, verify an inbound webhook signature, and apply a
// verified webhook event to the order store.
package gateway

import (
	"context"

	"payment-service/internal/models"
)

// Supported gateway names. These match the route parameter on the webhook
// endpoint and the gateway field of the initiate request.
const (
	WalletnetName = "walletnet"
	CardnetName   = "cardnet"
)

// WalletnetCurrency is the only currency the regional wallet settles in.
const WalletnetCurrency = "idr"

// CreatePaymentParams describes the order a payment artifact is requested for.
// Amount is in major currency units; adapters convert where their gateway
// bills in sub-units.
type CreatePaymentParams struct {
	OrderID       string
	Amount        int64
	Currency      string
	CustomerName  string
	CustomerEmail string
}

// CreatePaymentResult is the gateway artifact handed back to the client so it
// can complete the payment.
type CreatePaymentResult struct {
	OrderID     string `json:"order_id"`
	Gateway     string `json:"gateway"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Token       string `json:"token,omitempty"`
}

// Adapter is the uniform contract both gateways implement.
type Adapter interface {
	Name() string

	// CreatePayment asks the gateway for a redirect/token artifact. Gateway
	// errors propagate unchanged so the orchestrator can roll back.
	CreatePayment(ctx context.Context, p CreatePaymentParams) (*CreatePaymentResult, error)

	// VerifyWebhook reports whether signature authenticates rawBody. It must
	// run before HandleWebhook and never mutates state.
	VerifyWebhook(signature string, rawBody []byte) bool

	// HandleWebhook applies a verified callback to the order store.
	HandleWebhook(ctx context.Context, rawBody []byte) error
}

// Store is the slice of the order store webhook handling needs.
type Store interface {
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransactionByGatewayTxID(ctx context.Context, gatewayTxID, status string, rawResponse []byte) error
	UpdateStatusesForGatewayTx(ctx context.Context, gatewayTxID, paymentStatus, orderStatus string) error
}

// Directory resolves gateway names to their store identifiers. The production
// wiring puts a redis cache in front of the store lookup.
type Directory interface {
	GatewayIDByName(ctx context.Context, name string) (int64, error)
}

// Events is the slice of the event publisher adapters use. A nil Events
// disables publishing.
type Events interface {
	PublishTransactionUpdated(ctx context.Context, event *models.TransactionUpdatedEvent) error
}
