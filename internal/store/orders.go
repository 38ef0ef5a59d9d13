package store

import (
	"context"
	"database/sql"
	"fmt"

	"payment-service/internal/models"
)

// CreateOrder inserts a new order row. The caller assigns the order ID.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (order_id, user_id, total_amount, currency, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.OrderID, order.UserID, order.TotalAmount, order.Currency, order.Status)
}

// CreateOrderItems inserts the item snapshots for an order in one statement.
func (s *Store) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES (:order_id, :product_id, :quantity, :price)`, items)
	return err
}

// DeleteOrder removes an order row (rollback compensation).
func (s *Store) DeleteOrder(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE order_id = $1", orderID)
	return err
}

// DeleteOrderItems removes the items of an order (rollback compensation).
func (s *Store) DeleteOrderItems(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", orderID)
	return err
}

// UpdateOrderGatewayResponse attaches the gateway artifact to an order.
func (s *Store) UpdateOrderGatewayResponse(ctx context.Context, orderID string, response []byte) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET gateway_response = $1, updated_at = NOW() WHERE order_id = $2",
		response, orderID)
	return err
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderForUser retrieves an order owned by the given user together with its
// item snapshots and product names.
func (s *Store) GetOrderForUser(ctx context.Context, orderID, userID string) (*models.Order, []models.OrderItem, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE order_id = $1 AND user_id = $2", orderID, userID)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	var items []models.OrderItem
	err = s.db.SelectContext(ctx, &items, `
		SELECT oi.order_item_id, oi.order_id, oi.product_id, p.name AS product_name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.product_id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.order_item_id`, orderID)
	if err != nil {
		return nil, nil, err
	}

	return &order, items, nil
}

// CountOrdersForUser reports how many orders with the given ID belong to the
// user. Used to authorize transaction lookups.
func (s *Store) CountOrdersForUser(ctx context.Context, orderID, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM orders WHERE order_id = $1 AND user_id = $2", orderID, userID)
	return count, err
}

// CreatePayment inserts a payment row. Rows are unique per gateway payment ID;
// a duplicate insert resolves to the existing row so the first-webhook write
// stays idempotent under redelivery.
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, gateway_id, gateway_payment_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (gateway_payment_id) DO UPDATE SET updated_at = NOW()
		RETURNING payment_id, created_at, updated_at`

	return s.db.GetContext(ctx, payment, query,
		payment.OrderID, payment.GatewayID, payment.GatewayPaymentID,
		payment.Amount, payment.Currency, payment.Status)
}

// CreateTransaction inserts the initial transaction row for a gateway
// transaction ID, or refreshes it when the row already exists.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (payment_id, gateway_transaction_id, status, gateway_response)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (gateway_transaction_id) DO UPDATE
			SET status = EXCLUDED.status, gateway_response = EXCLUDED.gateway_response, updated_at = NOW()
		RETURNING transaction_id, created_at, updated_at`

	return s.db.GetContext(ctx, tx, query,
		tx.PaymentID, tx.GatewayTransactionID, tx.Status, tx.GatewayResponse)
}

// UpdateTransactionByGatewayTxID overwrites the status and raw response of the
// transaction row keyed by the gateway transaction ID. A missing row is not an
// error: an out-of-order event before creation simply matches nothing.
func (s *Store) UpdateTransactionByGatewayTxID(ctx context.Context, gatewayTxID, status string, rawResponse []byte) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, gateway_response = $2, updated_at = NOW()
		WHERE gateway_transaction_id = $3`,
		status, rawResponse, gatewayTxID)
	return err
}

// UpdateStatusesForGatewayTx persists the domain pair derived from a canonical
// status onto the payment and its parent order.
func (s *Store) UpdateStatusesForGatewayTx(ctx context.Context, gatewayTxID, paymentStatus, orderStatus string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = $1, updated_at = NOW() WHERE gateway_payment_id = $2",
		paymentStatus, gatewayTxID)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE order_id IN (SELECT order_id FROM payments WHERE gateway_payment_id = $2)`,
		orderStatus, gatewayTxID)
	return err
}

// GetTransactionWithOrder retrieves a transaction and the order it settles.
func (s *Store) GetTransactionWithOrder(ctx context.Context, transactionID int64) (*models.Transaction, string, error) {
	var row struct {
		models.Transaction
		OrderID string `db:"order_id"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT t.*, p.order_id
		FROM transactions t
		JOIN payments p ON p.payment_id = t.payment_id
		WHERE t.transaction_id = $1`, transactionID)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	if err != nil {
		return nil, "", err
	}
	return &row.Transaction, row.OrderID, nil
}
