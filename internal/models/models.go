package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Product represents a product in the catalog. Prices are stored in major
// currency units, matching what the catalog owner configures.
type Product struct {
	ProductID string    `db:"product_id" json:"product_id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PaymentGateway is a configured gateway row. The table is static reference
// data seeded at deploy time.
type PaymentGateway struct {
	GatewayID int64  `db:"gateway_id" json:"gateway_id"`
	Name      string `db:"name" json:"name"`
}

// Order represents a customer order. The gateway_response column holds the
// opaque artifact (redirect URL / client token) returned at initiation.
type Order struct {
	OrderID         string         `db:"order_id" json:"order_id"`
	UserID          string         `db:"user_id" json:"user_id"`
	TotalAmount     int64          `db:"total_amount" json:"total_amount"`
	Currency        string         `db:"currency" json:"currency"`
	Status          string         `db:"status" json:"status"`
	GatewayResponse types.JSONText `db:"gateway_response" json:"gateway_response,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// OrderItem snapshots price and quantity at order time. Prices are never
// re-read from the catalog after creation.
type OrderItem struct {
	OrderItemID int64  `db:"order_item_id" json:"order_item_id"`
	OrderID     string `db:"order_id" json:"order_id"`
	ProductID   string `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name,omitempty"`
	Quantity    int    `db:"quantity" json:"quantity"`
	Price       int64  `db:"price" json:"price"`
}

// Payment is created lazily by the first relevant webhook event, never at
// initiation time.
type Payment struct {
	PaymentID        int64     `db:"payment_id" json:"payment_id"`
	OrderID          string    `db:"order_id" json:"order_id"`
	GatewayID        int64     `db:"gateway_id" json:"gateway_id"`
	GatewayPaymentID string    `db:"gateway_payment_id" json:"gateway_payment_id"`
	Amount           int64     `db:"amount" json:"amount"`
	Currency         string    `db:"currency" json:"currency"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction records a single gateway callback. Rows are keyed by
// gateway_transaction_id; repeat callbacks overwrite status and response.
type Transaction struct {
	TransactionID        int64          `db:"transaction_id" json:"transaction_id"`
	PaymentID            int64          `db:"payment_id" json:"payment_id"`
	GatewayTransactionID string         `db:"gateway_transaction_id" json:"gateway_transaction_id"`
	Status               string         `db:"status" json:"status"`
	GatewayResponse      types.JSONText `db:"gateway_response" json:"gateway_response"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// Orders are created in draft and only move via webhook reconciliation.
const OrderStatusDraft = "draft"
