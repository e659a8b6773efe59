package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY INTERFACE
// =====================================================
// All *WithTx methods run inside a caller-owned transaction so the
// refund engine can treat load -> validate -> mutate as one atomic unit.
type OrderRepository interface {
	// Aggregate loads. GetOrderForRefundWithTx locks the order and its
	// payment rows (SELECT ... FOR UPDATE) for the transaction lifetime.
	GetOrderForRefundWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*model.Order, error)
	// GetReturnOrderID resolves a return to its order before the order
	// lock is taken; the authoritative load happens under the lock.
	GetReturnOrderID(ctx context.Context, returnID uuid.UUID) (uuid.UUID, error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error)

	// Status mutations
	UpdateOrderStatusWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.OrderStatus) error
	UpdatePaymentStatusWithTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID, status model.PaymentStatus) error
	UpdateReturnStatusWithTx(ctx context.Context, tx pgx.Tx, returnID uuid.UUID, status model.ReturnStatus) error
}

// =====================================================
// TRANSACTION MANAGER INTERFACE
// =====================================================
type TransactionManager interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
