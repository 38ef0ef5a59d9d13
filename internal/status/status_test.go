package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainPairTotal(t *testing.T) {
	for _, tx := range All() {
		pair := DomainPair(tx)
		assert.NotEmpty(t, pair.Payment, "payment status for %s", tx)
		assert.NotEmpty(t, pair.Order, "order status for %s", tx)
	}
}

func TestDomainPairFailsClosed(t *testing.T) {
	for _, unknown := range []Transaction{"", "settled", "bogus"} {
		pair := DomainPair(unknown)
		assert.Equal(t, Pair{Payment: "failed", Order: "failed"}, pair)
	}
}

func TestFromWalletnet(t *testing.T) {
	cases := map[string]Transaction{
		"authorize":      Processing,
		"capture":        Success,
		"settlement":     Success,
		"pending":        Pending,
		"deny":           Failed,
		"failure":        Failed,
		"cancel":         Cancelled,
		"expire":         Expired,
		"refund":         Refunded,
		"partial_refund": Refunded,
	}
	for raw, want := range cases {
		assert.Equal(t, want, FromWalletnet(raw), raw)
	}
}

func TestFromWalletnetUnknownIsInitiated(t *testing.T) {
	assert.Equal(t, Initiated, FromWalletnet("some_future_status"))
	assert.Equal(t, Initiated, FromWalletnet(""))
}

func TestFromCardnet(t *testing.T) {
	cases := map[string]Transaction{
		"payment_intent.created":                  Initiated,
		"payment_intent.requires_action":          Pending,
		"payment_intent.partially_funded":         Pending,
		"payment_intent.amount_capturable_updated": Processing,
		"payment_intent.processing":               Processing,
		"payment_intent.succeeded":                Success,
		"payment_intent.payment_failed":           Failed,
		"payment_intent.canceled":                 Cancelled,
	}
	for event, want := range cases {
		assert.Equal(t, want, FromCardnet(event), event)
	}
}

func TestFromCardnetUnknownIsInitiated(t *testing.T) {
	assert.Equal(t, Initiated, FromCardnet("charge.refunded"))
}

func TestMappingIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, Success, FromWalletnet("settlement"))
		assert.Equal(t, Failed, FromCardnet("payment_intent.payment_failed"))
		assert.Equal(t, DomainPair(Success), DomainPair(Success))
	}
}
