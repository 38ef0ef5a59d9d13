package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"payment-service/internal/auth"
	"payment-service/internal/gateway"
	"payment-service/internal/models"
	"payment-service/internal/store"
	"payment-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxRollbackRetries = 3

// Store is the slice of the order store the payment service needs.
type Store interface {
	GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	DeleteOrder(ctx context.Context, orderID string) error
	DeleteOrderItems(ctx context.Context, orderID string) error
	UpdateOrderGatewayResponse(ctx context.Context, orderID string, response []byte) error
	GetOrderForUser(ctx context.Context, orderID, userID string) (*models.Order, []models.OrderItem, error)
	GetTransactionWithOrder(ctx context.Context, transactionID int64) (*models.Transaction, string, error)
	CountOrdersForUser(ctx context.Context, orderID, userID string) (int, error)
}

// Events is the slice of the event publisher the payment service uses. A nil
// Events disables publishing.
type Events interface {
	PublishPaymentInitiated(ctx context.Context, event *models.PaymentInitiatedEvent) error
}

// PaymentService runs the order initiation workflow and the read-side
// lookups.
type PaymentService struct {
	store    Store
	verifier auth.Verifier
	adapters map[string]gateway.Adapter
	events   Events
	logger   *zap.Logger

	// sleep is swapped out in tests so rollback backoff runs synchronously.
	sleep func(time.Duration)
}

// NewPaymentService creates a new payment service
func NewPaymentService(store Store, verifier auth.Verifier, adapters []gateway.Adapter, events Events) *PaymentService {
	byName := make(map[string]gateway.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &PaymentService{
		store:    store,
		verifier: verifier,
		adapters: byName,
		events:   events,
		logger:   util.GetLogger(),
		sleep:    time.Sleep,
	}
}

// InitiateRequest is the order-intent request body.
type InitiateRequest struct {
	Gateway  string        `json:"gateway"`
	Currency string        `json:"currency"`
	Items    []ItemRequest `json:"items"`
}

// ItemRequest references a catalog product. Quantity defaults to 1 when
// unspecified.
type ItemRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

func (s *PaymentService) validateRequest(req *InitiateRequest) error {
	if req == nil {
		return validationError("Invalid request body")
	}
	if req.Gateway == "" {
		return validationError("Payment gateway is required")
	}
	if _, ok := s.adapters[req.Gateway]; !ok {
		return validationError("Payment gateway not supported yet")
	}
	if req.Gateway == gateway.CardnetName && req.Currency == "" {
		return validationError("Currency is required")
	}
	if req.Items == nil {
		return validationError("Items are required")
	}
	if len(req.Items) == 0 {
		return validationError("Items array cannot be empty")
	}
	return nil
}

// Initiate validates the request, prices the items against the catalog,
// persists the order, asks the chosen gateway for a payment artifact and
// attaches it to the order. Any failure after the order insert rolls the
// order back before the error propagates.
func (s *PaymentService) Initiate(ctx context.Context, req *InitiateRequest, authorization string) (*gateway.CreatePaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Initiate")
	defer span.End()

	if err := s.validateRequest(req); err != nil {
		util.PaymentsFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	currency := strings.ToLower(req.Currency)
	if req.Gateway == gateway.WalletnetName {
		currency = gateway.WalletnetCurrency
	}

	productIDs := make([]string, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ID
	}

	// Existence check, not coverage: at least one requested id must match.
	// Unmatched ids are tolerated and contribute nothing to the total.
	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil || len(products) == 0 {
		if err != nil {
			s.logger.Error("Product validation query failed", zap.Error(err))
		}
		util.PaymentsFailedTotal.WithLabelValues("invalid_products").Inc()
		return nil, validationError("Invalid products")
	}

	user, err := s.authenticate(ctx, authorization)
	if err != nil {
		return nil, err
	}

	quantities := make(map[string]int, len(req.Items))
	for _, item := range req.Items {
		quantities[item.ID] = item.Quantity
	}

	var total int64
	for _, p := range products {
		qty := quantities[p.ProductID]
		if qty == 0 {
			qty = 1
		}
		total += p.Price * int64(qty)
	}

	order := &models.Order{
		OrderID:     uuid.New().String(),
		UserID:      user.ID,
		TotalAmount: total,
		Currency:    currency,
		Status:      models.OrderStatusDraft,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		util.PaymentsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	items := make([]models.OrderItem, 0, len(products))
	for _, p := range products {
		qty := quantities[p.ProductID]
		if qty == 0 {
			qty = 1
		}
		items = append(items, models.OrderItem{
			OrderID:   order.OrderID,
			ProductID: p.ProductID,
			Quantity:  qty,
			Price:     p.Price,
		})
	}
	if err := s.store.CreateOrderItems(ctx, items); err != nil {
		s.rollbackOrder(ctx, order.OrderID)
		util.PaymentsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	adapter := s.adapters[req.Gateway]
	result, err := adapter.CreatePayment(ctx, gateway.CreatePaymentParams{
		OrderID:       order.OrderID,
		Amount:        total,
		Currency:      currency,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
	})
	if err != nil {
		s.rollbackOrder(ctx, order.OrderID)
		util.PaymentsFailedTotal.WithLabelValues("gateway_error").Inc()
		return nil, fmt.Errorf("create payment: %w", err)
	}

	artifact, err := json.Marshal(result)
	if err != nil {
		s.rollbackOrder(ctx, order.OrderID)
		return nil, fmt.Errorf("marshal gateway artifact: %w", err)
	}
	if err := s.store.UpdateOrderGatewayResponse(ctx, order.OrderID, artifact); err != nil {
		s.rollbackOrder(ctx, order.OrderID)
		s.logger.Error("Failed to persist gateway artifact",
			zap.String("order_id", order.OrderID), zap.Error(err))
		return nil, ErrOrderUpdate
	}

	util.PaymentsInitiatedTotal.WithLabelValues(req.Gateway).Inc()
	s.logger.Info("Payment initiated",
		zap.String("order_id", order.OrderID),
		zap.String("gateway", req.Gateway),
		zap.Int64("total_amount", total))

	s.publishInitiated(ctx, order, req.Gateway)
	return result, nil
}

// rollbackOrder deletes the order and its items. The delete is retried with
// doubling backoff; exhaustion is logged and the original workflow error is
// what propagates to the caller.
func (s *PaymentService) rollbackOrder(ctx context.Context, orderID string) {
	var lastErr error
	for attempt := 1; attempt <= maxRollbackRetries; attempt++ {
		if lastErr = s.deleteOrder(ctx, orderID); lastErr == nil {
			util.OrderRollbacksTotal.WithLabelValues("ok").Inc()
			return
		}
		s.logger.Error("Rollback attempt failed",
			zap.String("order_id", orderID),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt < maxRollbackRetries {
			s.sleep(time.Duration(1<<attempt) * time.Second)
		}
	}

	util.OrderRollbacksTotal.WithLabelValues("exhausted").Inc()
	s.logger.Error("Rollback failed permanently, order left behind",
		zap.String("order_id", orderID), zap.Error(lastErr))
}

func (s *PaymentService) deleteOrder(ctx context.Context, orderID string) error {
	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	return s.store.DeleteOrderItems(ctx, orderID)
}

func (s *PaymentService) authenticate(ctx context.Context, authorization string) (*auth.User, error) {
	token, err := auth.TokenFromHeader(authorization)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.logger.Warn("Token verification failed", zap.Error(err))
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *PaymentService) publishInitiated(ctx context.Context, order *models.Order, gatewayName string) {
	if s.events == nil {
		return
	}
	event := &models.PaymentInitiatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentInitiated,
			Timestamp: time.Now(),
		},
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		Gateway:     gatewayName,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	}
	if err := s.events.PublishPaymentInitiated(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentInitiated event", zap.Error(err))
	}
}

// GetOrder returns an order owned by the caller with its item snapshots.
func (s *PaymentService) GetOrder(ctx context.Context, orderID, authorization string) (*models.Order, []models.OrderItem, error) {
	user, err := s.authenticate(ctx, authorization)
	if err != nil {
		return nil, nil, err
	}
	return s.store.GetOrderForUser(ctx, orderID, user.ID)
}

// GetTransaction returns a transaction after checking that its parent order
// belongs to the caller.
func (s *PaymentService) GetTransaction(ctx context.Context, transactionID int64, authorization string) (*models.Transaction, error) {
	user, err := s.authenticate(ctx, authorization)
	if err != nil {
		return nil, err
	}

	tx, orderID, err := s.store.GetTransactionWithOrder(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountOrdersForUser(ctx, orderID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count orders for transaction: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("transaction %d: %w", transactionID, store.ErrNotFound)
	}
	return tx, nil
}
