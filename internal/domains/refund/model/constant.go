package model

import "time"

// =====================================================
// LEDGER ENTRY STATUS
// =====================================================
const (
	LedgerStatusPending   = "pending"
	LedgerStatusRefunded  = "refunded"
	LedgerStatusFailed    = "failed"
	LedgerStatusCancelled = "cancelled"
)

var ValidLedgerStatuses = []string{
	LedgerStatusPending,
	LedgerStatusRefunded,
	LedgerStatusFailed,
	LedgerStatusCancelled,
}

// =====================================================
// REFUND MODE / GATEWAY POLICY
// =====================================================
// Explicit call-time variants. The orchestrator carries no mutable mode
// state so it stays re-entrant under concurrent use.

// RefundMode selects how the refund target is loaded.
type RefundMode string

const (
	// ModeSingleItem refunds one approved return (admin action).
	ModeSingleItem RefundMode = "single_item"
	// ModeBulk refunds every approved return on an order (webhook flow).
	ModeBulk RefundMode = "bulk"
)

func (m RefundMode) IsValid() bool {
	return m == ModeSingleItem || m == ModeBulk
}

// GatewayPolicy controls whether the remote gateway is invoked.
type GatewayPolicy string

const (
	// GatewayCall invokes the remote refund API before writing ledger rows.
	GatewayCall GatewayPolicy = "call"
	// GatewaySkip records the refund without a remote call. Used for
	// webhook events the gateway has already settled.
	GatewaySkip GatewayPolicy = "skip"
)

func (p GatewayPolicy) IsValid() bool {
	return p == GatewayCall || p == GatewaySkip
}

// =====================================================
// REFUND SOURCES
// =====================================================
const (
	SourceAdmin   = "admin"
	SourceWebhook = "webhook"
	SourceManual  = "manual"
)

// =====================================================
// INTERNAL ERROR CODES
// =====================================================
const (
	// Precondition errors (4xx)
	ErrCodeOrderNotFound      = "REF001"
	ErrCodeReturnNotFound     = "REF002"
	ErrCodeNoEligiblePayment  = "REF003"
	ErrCodeReturnNotApproved  = "REF004"
	ErrCodeNoApprovedReturns  = "REF005"
	ErrCodeNonPositiveAmount  = "REF006"
	ErrCodeExceedsRefundable  = "REF007"
	ErrCodeLedgerRowNotFound  = "REF008"
	ErrCodeAmountTooSmall     = "REF009"

	// Gateway errors (422, retryable)
	ErrCodeGatewayDeclined = "REF020"
	ErrCodeGatewayTimeout  = "REF021"

	// Concurrency (409, retryable)
	ErrCodeOrderBusy = "REF030"

	// Reconciliation (500, fatal)
	ErrCodeOverRefunded = "REF040"

	ErrCodeInternalError = "REF099"
)

// =====================================================
// CONFIGURATION
// =====================================================
const (
	// CancelMatchWindow bounds the amount+recency fallback matcher used
	// when a cancellation event carries no ledger entry reference.
	CancelMatchWindow = 24 * time.Hour
)

// =====================================================
// WEBHOOK EVENTS
// =====================================================
const (
	WebhookEventChargeRefunded = "charge.refunded"
	WebhookEventRefundPending  = "refund.pending"
	WebhookEventRefundCanceled = "refund.canceled"
	WebhookEventRefundFailed   = "refund.failed"
)

// =====================================================
// TASK TYPES (asynq)
// =====================================================
const (
	TaskRefundCompleted = "refund:completed"
	TaskRefundFailed    = "refund:failed"
	TaskRefundCancelled = "refund:cancelled"
)
