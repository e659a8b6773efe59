package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/refund/model"
)

// =====================================================
// REFUND ORCHESTRATOR INTERFACE
// =====================================================

// RefundCommand carries everything a refund attempt needs at call time.
// Mode and gateway policy are explicit variants, never instance state.
type RefundCommand struct {
	Mode model.RefundMode

	// TargetID is a return ID in single-item mode, an order ID in bulk mode.
	TargetID uuid.UUID

	// GatewayPolicy defaults to GatewayCall when empty.
	GatewayPolicy model.GatewayPolicy

	Source string
	Notes  *string
}

type RefundOrchestrator interface {
	// Refund runs the full state machine: validate approval, invoke the
	// gateway (per policy), write ledger rows, reconcile order/payment
	// status and complete the consumed returns.
	Refund(ctx context.Context, cmd RefundCommand) (*model.RefundResult, error)

	// CreateManualRefund reconciles an externally issued refund into the
	// ledger, distributing the amount across approved returns with
	// remainder absorption on the last one.
	CreateManualRefund(ctx context.Context, orderID uuid.UUID, amount int64, notes *string, source string) (*model.RefundResult, error)

	// CancelRefund reverses a settled refund. The explicit entry ID from
	// webhook metadata wins; amount+recency matching is the fallback.
	CancelRefund(ctx context.Context, orderID uuid.UUID, entryID *uuid.UUID, amount int64) error

	// FailRefund transitions every pending ledger entry for the order to
	// failed and reverts completed returns linked to them.
	FailRefund(ctx context.Context, orderID uuid.UUID, reason string) error

	// RecordPendingRefund journals a gateway-reported in-flight refund.
	RecordPendingRefund(ctx context.Context, orderID uuid.UUID, amount int64, source string, gatewayRefundID *string) error

	// RecalculateOrderStatus rebuilds order/payment status from the
	// ledger alone. Idempotent; safe to call at any time.
	RecalculateOrderStatus(ctx context.Context, orderID uuid.UUID) error
}

// =====================================================
// PAYMENT GATEWAY INTERFACE (domain level)
// =====================================================

// PaymentGateway executes the remote refund for an order. When item is
// non-nil the amount is that item's refund amount; otherwise it is the
// sum over all items with approved returns. Metadata is echoed back in
// the gateway's webhook events; the orchestrator uses it to carry the
// ledger entry IDs so async cancellations can reference exact rows. On
// success the gateway has durably recorded the refund and the returned
// ID identifies it; on any failure no domain state has been touched.
type PaymentGateway interface {
	Refund(ctx context.Context, order *ordermodel.Order, item *ordermodel.OrderItem, metadata map[string]string) (string, error)
}

// =====================================================
// QUERY SERVICE INTERFACE
// =====================================================
type RefundQueryService interface {
	ListLedger(ctx context.Context, filters model.LedgerListFilters, page, limit int) ([]model.LedgerListRow, int, error)
	ListOrderLedger(ctx context.Context, orderID uuid.UUID) ([]model.LedgerEntry, error)
}

// =====================================================
// TASK ENQUEUER
// =====================================================
// Satisfied by *asynq.Client. Outcome tasks are best effort: an enqueue
// failure is logged, never surfaced to the refund caller.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
