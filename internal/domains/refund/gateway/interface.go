package gateway

import (
	"context"
	"errors"
)

// =====================================================
// GATEWAY CLIENT CONTRACT
// =====================================================
// Client is the refund-call contract of the external payment gateway.
// One synchronous attempt per call; retry policy belongs to the caller.
type Client interface {
	// CreateRefund instructs the gateway to refund Amount minor units
	// against the payment identified by PaymentReference.
	CreateRefund(ctx context.Context, req RefundRequest) (*RefundResponse, error)
}

// RefundRequest is the remote refund call input.
type RefundRequest struct {
	PaymentReference string            // original charge/transaction reference
	Amount           int64             // minor currency units
	Reason           string            // optional descriptive reason
	IdempotencyKey   string            // unique per attempt; resending it replays the stored outcome
	Metadata         map[string]string // echoed back in webhook events
}

// RefundResponse is the remote refund call output.
type RefundResponse struct {
	RefundID string // gateway-assigned refund identifier
	Status   string // gateway-side status, e.g. "succeeded" or "pending"
}

// Refund statuses reported by the gateway.
const (
	StatusSucceeded = "succeeded"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// ErrDeclined reports a refund the gateway refused (insufficient
// captured funds, already refunded upstream, closed account, ...).
// Transport failures and timeouts surface as ordinary wrapped errors.
var ErrDeclined = errors.New("refund declined by gateway")
