package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"payment-service/config"
	"payment-service/internal/models"
	"payment-service/internal/status"
	"payment-service/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
)

// The wallet reports "pending" when a transaction is first created and waiting
// to be paid; that callback is what creates the payment row on our side.
const walletnetCreationStatus = "pending"

// walletnetEvent is the callback body shape. Amount fields arrive as strings
// because the signature is computed over their exact textual form.
type walletnetEvent struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	Currency          string `json:"currency"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	SignatureKey      string `json:"signature_key"`
}

// WalletnetAdapter integrates the regional wallet gateway. Orders are charged
// in whole currency units and always settle in idr.
type WalletnetAdapter struct {
	client    *http.Client
	baseURL   string
	serverKey string
	finishURL string
	store     Store
	gateways  Directory
	events    Events
	logger    *zap.Logger
}

// NewWalletnetAdapter creates the walletnet adapter.
func NewWalletnetAdapter(cfg config.WalletnetConfig, store Store, gateways Directory, events Events) *WalletnetAdapter {
	return &WalletnetAdapter{
		client:    &http.Client{Timeout: 15 * time.Second},
		baseURL:   cfg.BaseURL,
		serverKey: cfg.ServerKey(),
		finishURL: cfg.FinishURL,
		store:     store,
		gateways:  gateways,
		events:    events,
		logger:    util.GetLogger(),
	}
}

// Name returns the gateway name.
func (a *WalletnetAdapter) Name() string {
	return WalletnetName
}

// CreatePayment creates a hosted-checkout transaction and returns its redirect
// URL and token.
func (a *WalletnetAdapter) CreatePayment(ctx context.Context, p CreatePaymentParams) (*CreatePaymentResult, error) {
	payload := map[string]any{
		"transaction_details": map[string]any{
			"order_id":     p.OrderID,
			"gross_amount": p.Amount,
		},
		"customer_details": map[string]any{
			"first_name": p.CustomerName,
			"last_name":  "",
			"email":      p.CustomerEmail,
		},
		"credit_card": map[string]any{
			"secure": true,
		},
		"callbacks": map[string]any{
			"finish": a.finishURL,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("walletnet: marshal transaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("walletnet: build request: %w", err)
	}
	req.SetBasicAuth(a.serverKey, "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	util.GatewayCreateLatency.WithLabelValues(WalletnetName).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("walletnet: create transaction: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("walletnet: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("walletnet: create transaction: status %d: %s", resp.StatusCode, respBody)
	}

	var out struct {
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("walletnet: decode response: %w", err)
	}

	return &CreatePaymentResult{
		OrderID:     p.OrderID,
		Gateway:     WalletnetName,
		RedirectURL: out.RedirectURL,
		Token:       out.Token,
	}, nil
}

// VerifyWebhook recomputes the callback digest and compares it against the
// supplied signature. The digest is SHA-512 over order_id + status_code +
// gross_amount + server key, in that field order.
func (a *WalletnetAdapter) VerifyWebhook(signature string, rawBody []byte) bool {
	var ev walletnetEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return false
	}

	sum := sha512.Sum512([]byte(ev.OrderID + ev.StatusCode + ev.GrossAmount + a.serverKey))
	expected := hex.EncodeToString(sum[:])
	return hmac.Equal([]byte(signature), []byte(expected))
}

// HandleWebhook applies a verified wallet callback: the creation event creates
// the payment and initial transaction rows, and every event (the creation one
// included) overwrites the transaction keyed by the gateway transaction ID.
func (a *WalletnetAdapter) HandleWebhook(ctx context.Context, rawBody []byte) error {
	ctx, span := util.StartSpan(ctx, "WalletnetAdapter.HandleWebhook")
	defer span.End()

	var ev walletnetEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return fmt.Errorf("walletnet: decode event: %w", err)
	}
	if ev.TransactionID == "" || ev.OrderID == "" {
		return fmt.Errorf("walletnet: unrecognized event shape")
	}

	txStatus := status.FromWalletnet(ev.TransactionStatus)
	pair := status.DomainPair(txStatus)

	gatewayID, err := a.gateways.GatewayIDByName(ctx, WalletnetName)
	if err != nil {
		return fmt.Errorf("payment gateway not found: %w", err)
	}

	if ev.TransactionStatus == walletnetCreationStatus {
		order, err := a.store.GetOrderByID(ctx, ev.OrderID)
		if err != nil {
			return fmt.Errorf("order not found: %w", err)
		}

		payment := &models.Payment{
			OrderID:          ev.OrderID,
			GatewayID:        gatewayID,
			GatewayPaymentID: ev.TransactionID,
			Amount:           order.TotalAmount,
			Currency:         strings.ToLower(ev.Currency),
			Status:           pair.Payment,
		}
		if err := a.store.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		tx := &models.Transaction{
			PaymentID:            payment.PaymentID,
			GatewayTransactionID: ev.TransactionID,
			Status:               string(txStatus),
			GatewayResponse:      types.JSONText(rawBody),
		}
		if err := a.store.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
	}

	if err := a.store.UpdateTransactionByGatewayTxID(ctx, ev.TransactionID, string(txStatus), rawBody); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if err := a.store.UpdateStatusesForGatewayTx(ctx, ev.TransactionID, pair.Payment, pair.Order); err != nil {
		return fmt.Errorf("failed to update payment statuses: %w", err)
	}

	util.WebhookEventsTotal.WithLabelValues(WalletnetName, string(txStatus)).Inc()
	a.logger.Info("Walletnet webhook applied",
		zap.String("order_id", ev.OrderID),
		zap.String("gateway_tx_id", ev.TransactionID),
		zap.String("status", string(txStatus)))

	a.publishUpdate(ctx, ev.OrderID, ev.TransactionID, string(txStatus))
	return nil
}

func (a *WalletnetAdapter) publishUpdate(ctx context.Context, orderID, gatewayTxID, txStatus string) {
	if a.events == nil {
		return
	}
	event := &models.TransactionUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTransactionUpdated,
			Timestamp: time.Now(),
		},
		OrderID:              orderID,
		Gateway:              WalletnetName,
		GatewayTransactionID: gatewayTxID,
		Status:               txStatus,
	}
	if err := a.events.PublishTransactionUpdated(ctx, event); err != nil {
		a.logger.Error("Failed to publish TransactionUpdated event", zap.Error(err))
	}
}
