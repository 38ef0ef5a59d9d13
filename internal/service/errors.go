package service

import (
	"errors"
	"fmt"
)

// ValidationError rejects a request at the boundary, before any pricing or
// persistence happens. Its message is safe to return to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationError(msg string) error {
	return &ValidationError{Message: msg}
}

// ErrUnauthorized covers every authentication failure. Callers always see the
// same message so auth internals never leak.
var ErrUnauthorized = errors.New("unauthorized")

// ErrOrderUpdate marks the artifact-persist failure the API reports
// distinctly from the generic initiation failure.
var ErrOrderUpdate = errors.New("failed to update order")

// ErrGatewayNotSpecified is returned when a webhook arrives without a gateway
// path segment.
var ErrGatewayNotSpecified = errors.New("payment gateway not specified")

// ErrUnknownWebhookSource is returned when a webhook matches no known
// gateway fingerprint.
var ErrUnknownWebhookSource = errors.New("unknown webhook source")

// SignatureError rejects a webhook whose signature did not verify.
type SignatureError struct {
	Gateway string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("Invalid %s signature", e.Gateway)
}
