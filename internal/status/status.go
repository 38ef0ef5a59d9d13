// Package status normalizes gateway-specific callback vocabularies into one
// canonical transaction status domain. Everything here is pure: same input,
// same output, no I/O.
package status

// Transaction is the canonical status all gateway events are mapped into
// before touching persisted state.
type Transaction string

const (
	Initiated  Transaction = "initiated"
	Pending    Transaction = "pending"
	Processing Transaction = "processing"
	Success    Transaction = "success"
	Failed     Transaction = "failed"
	Expired    Transaction = "expired"
	Cancelled  Transaction = "cancelled"
	Refunded   Transaction = "refunded"
)

// Pair is the (payment status, order status) tuple derived from a canonical
// transaction status and persisted onto the payment and order rows.
type Pair struct {
	Payment string
	Order   string
}

// FromWalletnet maps a walletnet transaction_status value to its canonical
// status. Unknown values map to Initiated: the wallet adds statuses over time
// and treating an unrecognized one as a failure would cancel live orders.
func FromWalletnet(raw string) Transaction {
	switch raw {
	case "authorize":
		return Processing
	case "capture", "settlement":
		return Success
	case "pending":
		return Pending
	case "deny", "failure":
		return Failed
	case "cancel":
		return Cancelled
	case "expire":
		return Expired
	case "refund", "partial_refund":
		return Refunded
	default:
		return Initiated
	}
}

// FromCardnet maps a cardnet event type to its canonical status. Unknown
// event types map to Initiated for the same reason as FromWalletnet.
func FromCardnet(eventType string) Transaction {
	switch eventType {
	case "payment_intent.created":
		return Initiated
	case "payment_intent.requires_action", "payment_intent.partially_funded":
		return Pending
	case "payment_intent.amount_capturable_updated", "payment_intent.processing":
		return Processing
	case "payment_intent.succeeded":
		return Success
	case "payment_intent.payment_failed":
		return Failed
	case "payment_intent.canceled":
		return Cancelled
	default:
		return Initiated
	}
}

var pairs = map[Transaction]Pair{
	Initiated:  {Payment: "initiated", Order: "draft"},
	Pending:    {Payment: "waiting_payment", Order: "waiting_payment"},
	Processing: {Payment: "processing", Order: "processing"},
	Success:    {Payment: "paid", Order: "paid"},
	Failed:     {Payment: "failed", Order: "failed"},
	Expired:    {Payment: "expired", Order: "cancelled"},
	Cancelled:  {Payment: "cancelled", Order: "cancelled"},
	Refunded:   {Payment: "refunded", Order: "refunded"},
}

// DomainPair returns the payment/order status pair for a canonical status.
// Anything outside the canonical set yields {failed, failed}: writing a wrong
// terminal state is safer than writing an invented one.
func DomainPair(tx Transaction) Pair {
	if p, ok := pairs[tx]; ok {
		return p
	}
	return Pair{Payment: "failed", Order: "failed"}
}

// All lists every canonical transaction status.
func All() []Transaction {
	return []Transaction{Initiated, Pending, Processing, Success, Failed, Expired, Cancelled, Refunded}
}
