package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"payment-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walletnetTestKey = "test-server-key"

func newWalletnetTestAdapter(store *fakeStore, events Events) *WalletnetAdapter {
	return NewWalletnetAdapter(
		config.WalletnetConfig{
			Environment:      "sandbox",
			SandboxServerKey: walletnetTestKey,
			BaseURL:          "https://app.sandbox.walletnet.test",
			FinishURL:        "https://shop.example.com/finish",
		},
		store,
		&fakeDirectory{ids: map[string]int64{WalletnetName: 1}},
		events,
	)
}

func walletnetSign(orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + walletnetTestKey))
	return hex.EncodeToString(sum[:])
}

func walletnetBody(t *testing.T, orderID, txID, txStatus, statusCode, grossAmount string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"order_id":           orderID,
		"status_code":        statusCode,
		"gross_amount":       grossAmount,
		"currency":           "IDR",
		"transaction_id":     txID,
		"transaction_status": txStatus,
		"signature_key":      walletnetSign(orderID, statusCode, grossAmount),
	})
	require.NoError(t, err)
	return body
}

func TestWalletnetVerifyWebhook(t *testing.T) {
	adapter := newWalletnetTestAdapter(newFakeStore(), nil)

	body := walletnetBody(t, "order-1", "tx-1", "pending", "201", "150000.00")
	assert.True(t, adapter.VerifyWebhook(walletnetSign("order-1", "201", "150000.00"), body))

	assert.False(t, adapter.VerifyWebhook("deadbeef", body))

	tampered := walletnetBody(t, "order-1", "tx-1", "pending", "201", "999999.00")
	assert.False(t, adapter.VerifyWebhook(walletnetSign("order-1", "201", "150000.00"), tampered))
}

func TestWalletnetWebhookCreatesPaymentAndTransaction(t *testing.T) {
	store := newFakeStore()
	store.addOrder("order-1", 150000)
	events := &fakeEvents{}
	adapter := newWalletnetTestAdapter(store, events)

	body := walletnetBody(t, "order-1", "tx-1", "pending", "201", "150000.00")
	require.NoError(t, adapter.HandleWebhook(context.Background(), body))

	payment := store.payments["tx-1"]
	require.NotNil(t, payment)
	assert.Equal(t, "order-1", payment.OrderID)
	assert.Equal(t, int64(1), payment.GatewayID)
	assert.Equal(t, int64(150000), payment.Amount)
	assert.Equal(t, "idr", payment.Currency)
	assert.Equal(t, "waiting_payment", payment.Status)

	tx := store.transactions["tx-1"]
	require.NotNil(t, tx)
	assert.Equal(t, payment.PaymentID, tx.PaymentID)
	assert.Equal(t, "pending", tx.Status)

	assert.Equal(t, "waiting_payment", store.orders["order-1"].Status)

	require.Len(t, events.updated, 1)
	assert.Equal(t, "order-1", events.updated[0].OrderID)
	assert.Equal(t, "pending", events.updated[0].Status)
}

func TestWalletnetWebhookIdempotentCreation(t *testing.T) {
	store := newFakeStore()
	store.addOrder("order-1", 150000)
	adapter := newWalletnetTestAdapter(store, nil)

	body := walletnetBody(t, "order-1", "tx-1", "pending", "201", "150000.00")
	require.NoError(t, adapter.HandleWebhook(context.Background(), body))
	require.NoError(t, adapter.HandleWebhook(context.Background(), body))

	assert.Len(t, store.payments, 1)
	assert.Len(t, store.transactions, 1)
	assert.Equal(t, int64(1), store.payments["tx-1"].PaymentID)
}

func TestWalletnetWebhookSettlementAfterPending(t *testing.T) {
	store := newFakeStore()
	store.addOrder("order-1", 150000)
	adapter := newWalletnetTestAdapter(store, nil)

	pending := walletnetBody(t, "order-1", "tx-1", "pending", "201", "150000.00")
	require.NoError(t, adapter.HandleWebhook(context.Background(), pending))

	settlement := walletnetBody(t, "order-1", "tx-1", "settlement", "200", "150000.00")
	require.NoError(t, adapter.HandleWebhook(context.Background(), settlement))

	assert.Len(t, store.payments, 1)
	assert.Len(t, store.transactions, 1)
	assert.Equal(t, "success", store.transactions["tx-1"].Status)
	assert.Equal(t, "paid", store.payments["tx-1"].Status)
	assert.Equal(t, "paid", store.orders["order-1"].Status)
}

// A settlement arriving before the creation callback updates nothing but is
// acknowledged, so the gateway does not keep retrying it.
func TestWalletnetWebhookSettlementWithoutCreation(t *testing.T) {
	store := newFakeStore()
	store.addOrder("order-1", 150000)
	adapter := newWalletnetTestAdapter(store, nil)

	settlement := walletnetBody(t, "order-1", "tx-1", "settlement", "200", "150000.00")
	require.NoError(t, adapter.HandleWebhook(context.Background(), settlement))

	assert.Empty(t, store.payments)
	assert.Empty(t, store.transactions)
}

func TestWalletnetWebhookUnknownOrder(t *testing.T) {
	adapter := newWalletnetTestAdapter(newFakeStore(), nil)

	body := walletnetBody(t, "missing-order", "tx-1", "pending", "201", "150000.00")
	err := adapter.HandleWebhook(context.Background(), body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order not found")
}

func TestWalletnetWebhookExpiryCancelsOrder(t *testing.T) {
	store := newFakeStore()
	store.addOrder("order-1", 150000)
	adapter := newWalletnetTestAdapter(store, nil)

	pending := walletnetBody(t, "order-1", "tx-1", "pending", "201", "150000.00")
	require.NoError(t, adapter.HandleWebhook(context.Background(), pending))

	expire := walletnetBody(t, "order-1", "tx-1", "expire", "407", "150000.00")
	require.NoError(t, adapter.HandleWebhook(context.Background(), expire))

	assert.Equal(t, "expired", store.payments["tx-1"].Status)
	assert.Equal(t, "cancelled", store.orders["order-1"].Status)
}

func TestWalletnetCreatePayment(t *testing.T) {
	var gotPath, gotUser string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"snap-token","redirect_url":"https://app.sandbox.walletnet.test/snap/v2/vtweb/snap-token"}`))
	}))
	defer srv.Close()

	store := newFakeStore()
	adapter := newWalletnetTestAdapter(store, nil)
	adapter.baseURL = srv.URL

	result, err := adapter.CreatePayment(context.Background(), CreatePaymentParams{
		OrderID:       "order-1",
		Amount:        150000,
		Currency:      "idr",
		CustomerName:  "Alex",
		CustomerEmail: "alex@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "/snap/v1/transactions", gotPath)
	assert.Equal(t, walletnetTestKey, gotUser)

	details := gotPayload["transaction_details"].(map[string]any)
	assert.Equal(t, "order-1", details["order_id"])
	assert.Equal(t, float64(150000), details["gross_amount"])

	assert.Equal(t, "snap-token", result.Token)
	assert.Equal(t, WalletnetName, result.Gateway)
	assert.NotEmpty(t, result.RedirectURL)
}

func TestWalletnetWebhookPaymentInsertFailure(t *testing.T) {
	store := newFakeStore()
	store.addOrder("order-1", 150000)
	store.failCreatePayment = true
	adapter := newWalletnetTestAdapter(store, nil)

	body := walletnetBody(t, "order-1", "tx-1", "pending", "201", "150000.00")
	err := adapter.HandleWebhook(context.Background(), body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create payment")
}
