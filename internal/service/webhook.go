package service

import (
	"context"
	"encoding/json"

	"payment-service/internal/gateway"
	"payment-service/internal/util"

	"go.uber.org/zap"
)

// WebhookDispatcher identifies which gateway a callback came from, gates it
// behind signature verification and forwards the verified payload to the
// matching adapter. It performs no state mutation of its own.
type WebhookDispatcher struct {
	adapters map[string]gateway.Adapter
	logger   *zap.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher
func NewWebhookDispatcher(adapters []gateway.Adapter) *WebhookDispatcher {
	byName := make(map[string]gateway.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &WebhookDispatcher{
		adapters: byName,
		logger:   util.GetLogger(),
	}
}

// Dispatch routes a raw webhook body to the right adapter. The wallet signs
// inside the body (signature_key field); the card network signs in a header
// over the exact original bytes, which is why the raw body travels untouched.
// Returns the acknowledgment message for the gateway on success.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, gatewayName, signatureHeader string, rawBody []byte) (string, error) {
	ctx, span := util.StartSpan(ctx, "WebhookDispatcher.Dispatch")
	defer span.End()

	if gatewayName == "" {
		return "", ErrGatewayNotSpecified
	}

	var probe struct {
		SignatureKey string `json:"signature_key"`
	}
	_ = json.Unmarshal(rawBody, &probe)

	if adapter, ok := d.adapters[gateway.WalletnetName]; ok &&
		probe.SignatureKey != "" && gatewayName == gateway.WalletnetName {
		if !adapter.VerifyWebhook(probe.SignatureKey, rawBody) {
			util.WebhookSignatureFailures.WithLabelValues(gatewayName).Inc()
			d.logger.Error("Invalid walletnet signature")
			return "", &SignatureError{Gateway: gatewayName}
		}
		if err := adapter.HandleWebhook(ctx, rawBody); err != nil {
			return "", err
		}
		return "Walletnet webhook processed", nil
	}

	if adapter, ok := d.adapters[gateway.CardnetName]; ok &&
		signatureHeader != "" && gatewayName == gateway.CardnetName {
		if !adapter.VerifyWebhook(signatureHeader, rawBody) {
			util.WebhookSignatureFailures.WithLabelValues(gatewayName).Inc()
			d.logger.Error("Invalid cardnet signature")
			return "", &SignatureError{Gateway: gatewayName}
		}
		if err := adapter.HandleWebhook(ctx, rawBody); err != nil {
			return "", err
		}
		return "Cardnet webhook processed", nil
	}

	return "", ErrUnknownWebhookSource
}
