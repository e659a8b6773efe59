package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront-backend/internal/domains/refund/model"
)

// =====================================================
// LEDGER REPOSITORY INTERFACE
// =====================================================
type LedgerRepoInterface interface {
	// Writes. All mutations run inside the orchestrator's transaction.
	CreateWithTx(ctx context.Context, tx pgx.Tx, entry *model.LedgerEntry) error
	UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string, notes *string) error
	// FailPendingWithTx transitions every pending entry for the order to
	// failed and returns the affected entries.
	FailPendingWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, reason string) ([]model.LedgerEntry, error)

	// Reads inside the transaction (consistent with held row locks)
	SumRefundedWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (int64, error)
	GetByIDWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.LedgerEntry, error)
	// FindRecentRefundedWithTx is the heuristic cancellation matcher:
	// most recent refunded entry for the order with the exact amount,
	// created within the window.
	FindRecentRefundedWithTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, amount int64, window time.Duration) (*model.LedgerEntry, error)

	// Plain reads
	SumRefunded(ctx context.Context, orderID uuid.UUID) (int64, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.LedgerEntry, error)
	ListWithDetails(ctx context.Context, filters model.LedgerListFilters, page, limit int) ([]model.LedgerListRow, int, error)
}

// =====================================================
// AUDIT REPOSITORY INTERFACE
// =====================================================
type AuditRepoInterface interface {
	Record(ctx context.Context, entry *model.AuditEntry) error
}
