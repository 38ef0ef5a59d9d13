package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
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

const cardnetCreationEvent = "payment_intent.created"

// Signed envelopes older or newer than this are rejected to limit replay.
const cardnetSignatureTolerance = 5 * time.Minute

// cardnetEnvelope is the outer webhook event shape; the intent itself rides in
// data.object.
type cardnetEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type cardnetIntent struct {
	ID       string            `json:"id"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// CardnetAdapter integrates the card network gateway. The gateway bills in
// the smallest currency unit and returns a client token the front-end uses to
// collect card details.
type CardnetAdapter struct {
	client        *http.Client
	baseURL       string
	secretKey     string
	webhookSecret string
	store         Store
	gateways      Directory
	events        Events
	logger        *zap.Logger
	now           func() time.Time
}

// NewCardnetAdapter creates the cardnet adapter.
func NewCardnetAdapter(cfg config.CardnetConfig, store Store, gateways Directory, events Events) *CardnetAdapter {
	return &CardnetAdapter{
		client:        &http.Client{Timeout: 15 * time.Second},
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey(),
		webhookSecret: cfg.WebhookSecret,
		store:         store,
		gateways:      gateways,
		events:        events,
		logger:        util.GetLogger(),
		now:           time.Now,
	}
}

// Name returns the gateway name.
func (a *CardnetAdapter) Name() string {
	return CardnetName
}

// CreatePayment creates a payment intent and returns its client token.
func (a *CardnetAdapter) CreatePayment(ctx context.Context, p CreatePaymentParams) (*CreatePaymentResult, error) {
	// The gateway expects amounts in the smallest currency unit.
	amountInCents := p.Amount * 100

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountInCents, 10))
	form.Set("currency", strings.ToLower(p.Currency))
	form.Set("metadata[order_id]", p.OrderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("cardnet: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := a.client.Do(req)
	util.GatewayCreateLatency.WithLabelValues(CardnetName).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("cardnet: create payment intent: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cardnet: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cardnet: create payment intent: status %d: %s", resp.StatusCode, respBody)
	}

	var out struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("cardnet: decode response: %w", err)
	}

	return &CreatePaymentResult{
		OrderID: p.OrderID,
		Gateway: CardnetName,
		Token:   out.ClientSecret,
	}, nil
}

// VerifyWebhook validates the signed envelope header against the raw request
// body. The header carries a unix timestamp and one or more HMAC-SHA256
// signatures over "<timestamp>.<body>". Any malformed input yields false,
// never an error.
func (a *CardnetAdapter) VerifyWebhook(signature string, rawBody []byte) bool {
	timestamp, candidates := parseSignatureHeader(signature)
	if timestamp == "" || len(candidates) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if drift := a.now().Sub(time.Unix(ts, 0)); drift > cardnetSignatureTolerance || drift < -cardnetSignatureTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return true
		}
	}
	return false
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]" into the
// timestamp and candidate signatures.
func parseSignatureHeader(header string) (string, []string) {
	var timestamp string
	var candidates []string

	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	return timestamp, candidates
}

// HandleWebhook applies a verified card network event. The intent-created
// event creates the payment and initial transaction rows; every event
// overwrites the transaction keyed by the intent ID.
func (a *CardnetAdapter) HandleWebhook(ctx context.Context, rawBody []byte) error {
	ctx, span := util.StartSpan(ctx, "CardnetAdapter.HandleWebhook")
	defer span.End()

	var env cardnetEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return fmt.Errorf("cardnet: decode event: %w", err)
	}

	var intent cardnetIntent
	if len(env.Data.Object) > 0 {
		if err := json.Unmarshal(env.Data.Object, &intent); err != nil {
			return fmt.Errorf("cardnet: decode payment intent: %w", err)
		}
	}
	if intent.ID == "" {
		return fmt.Errorf("cardnet: unrecognized event shape")
	}

	txStatus := status.FromCardnet(env.Type)
	pair := status.DomainPair(txStatus)
	orderID := intent.Metadata["order_id"]

	gatewayID, err := a.gateways.GatewayIDByName(ctx, CardnetName)
	if err != nil {
		return fmt.Errorf("payment gateway not found: %w", err)
	}

	if env.Type == cardnetCreationEvent {
		order, err := a.store.GetOrderByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order not found: %w", err)
		}

		payment := &models.Payment{
			OrderID:          orderID,
			GatewayID:        gatewayID,
			GatewayPaymentID: intent.ID,
			Amount:           order.TotalAmount,
			Currency:         strings.ToLower(intent.Currency),
			Status:           pair.Payment,
		}
		if err := a.store.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		tx := &models.Transaction{
			PaymentID:            payment.PaymentID,
			GatewayTransactionID: intent.ID,
			Status:               string(txStatus),
			GatewayResponse:      types.JSONText(env.Data.Object),
		}
		if err := a.store.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
	}

	if err := a.store.UpdateTransactionByGatewayTxID(ctx, intent.ID, string(txStatus), env.Data.Object); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if err := a.store.UpdateStatusesForGatewayTx(ctx, intent.ID, pair.Payment, pair.Order); err != nil {
		return fmt.Errorf("failed to update payment statuses: %w", err)
	}

	util.WebhookEventsTotal.WithLabelValues(CardnetName, string(txStatus)).Inc()
	a.logger.Info("Cardnet webhook applied",
		zap.String("order_id", orderID),
		zap.String("gateway_tx_id", intent.ID),
		zap.String("status", string(txStatus)))

	a.publishUpdate(ctx, orderID, intent.ID, string(txStatus))
	return nil
}

func (a *CardnetAdapter) publishUpdate(ctx context.Context, orderID, gatewayTxID, txStatus string) {
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
		Gateway:              CardnetName,
		GatewayTransactionID: gatewayTxID,
		Status:               txStatus,
	}
	if err := a.events.PublishTransactionUpdated(ctx, event); err != nil {
		a.logger.Error("Failed to publish TransactionUpdated event", zap.Error(err))
	}
}
