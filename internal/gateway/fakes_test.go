package gateway

import (
	"context"
	"errors"
	"fmt"

	"payment-service/internal/models"

	"github.com/jmoiron/sqlx/types"
)

// fakeStore mimics the Postgres store in memory, including the upsert
// semantics: payments are keyed by gateway_payment_id and transactions by
// gateway_transaction_id, and a repeated create lands on the existing row.
type fakeStore struct {
	orders       map[string]*models.Order
	payments     map[string]*models.Payment
	transactions map[string]*models.Transaction

	nextPaymentID int64
	nextTxID      int64

	failCreatePayment bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:       make(map[string]*models.Order),
		payments:     make(map[string]*models.Payment),
		transactions: make(map[string]*models.Transaction),
	}
}

func (f *fakeStore) addOrder(orderID string, total int64) {
	f.orders[orderID] = &models.Order{
		OrderID:     orderID,
		UserID:      "user-1",
		TotalAmount: total,
		Currency:    "idr",
		Status:      models.OrderStatusDraft,
	}
}

func (f *fakeStore) GetOrderByID(_ context.Context, orderID string) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return order, nil
}

func (f *fakeStore) CreatePayment(_ context.Context, payment *models.Payment) error {
	if f.failCreatePayment {
		return errors.New("insert failed")
	}
	if existing, ok := f.payments[payment.GatewayPaymentID]; ok {
		payment.PaymentID = existing.PaymentID
		return nil
	}
	f.nextPaymentID++
	payment.PaymentID = f.nextPaymentID
	clone := *payment
	f.payments[payment.GatewayPaymentID] = &clone
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	if existing, ok := f.transactions[tx.GatewayTransactionID]; ok {
		existing.Status = tx.Status
		existing.GatewayResponse = tx.GatewayResponse
		tx.TransactionID = existing.TransactionID
		return nil
	}
	f.nextTxID++
	tx.TransactionID = f.nextTxID
	clone := *tx
	f.transactions[tx.GatewayTransactionID] = &clone
	return nil
}

func (f *fakeStore) UpdateTransactionByGatewayTxID(_ context.Context, gatewayTxID, status string, rawResponse []byte) error {
	tx, ok := f.transactions[gatewayTxID]
	if !ok {
		return nil
	}
	tx.Status = status
	tx.GatewayResponse = types.JSONText(rawResponse)
	return nil
}

func (f *fakeStore) UpdateStatusesForGatewayTx(_ context.Context, gatewayTxID, paymentStatus, orderStatus string) error {
	payment, ok := f.payments[gatewayTxID]
	if !ok {
		return nil
	}
	payment.Status = paymentStatus
	if order, ok := f.orders[payment.OrderID]; ok {
		order.Status = orderStatus
	}
	return nil
}

type fakeDirectory struct {
	ids map[string]int64
}

func (f *fakeDirectory) GatewayIDByName(_ context.Context, name string) (int64, error) {
	id, ok := f.ids[name]
	if !ok {
		return 0, fmt.Errorf("payment gateway %s: not found", name)
	}
	return id, nil
}

type fakeEvents struct {
	updated []*models.TransactionUpdatedEvent
}

func (f *fakeEvents) PublishTransactionUpdated(_ context.Context, event *models.TransactionUpdatedEvent) error {
	f.updated = append(f.updated, event)
	return nil
}
