package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/refund/model"
)

// =====================================================
// AUDIT REPOSITORY IMPLEMENTATION
// =====================================================
// Written by the worker after a committed refund outcome.
type auditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) AuditRepoInterface {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Record(ctx context.Context, entry *model.AuditEntry) error {
	query := `
		INSERT INTO refund_audit_log (id, order_id, event, amount, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING recorded_at
	`

	err := r.pool.QueryRow(ctx, query,
		entry.ID,
		entry.OrderID,
		entry.Event,
		entry.Amount,
		entry.Detail,
	).Scan(&entry.RecordedAt)

	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}
