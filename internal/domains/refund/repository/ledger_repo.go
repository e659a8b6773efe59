package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/refund/model"
)

// =====================================================
// LEDGER REPOSITORY IMPLEMENTATION
// =====================================================
type ledgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) LedgerRepoInterface {
	return &ledgerRepository{pool: pool}
}

const ledgerColumns = `
	id, order_id, order_return_id, amount, status,
	processed_at, notes, source, is_manual, gateway_refund_id,
	created_at, updated_at
`

// CreateWithTx appends a ledger entry within the provided transaction.
func (r *ledgerRepository) CreateWithTx(
	ctx context.Context,
	tx pgx.Tx,
	entry *model.LedgerEntry,
) error {
	if entry.Amount <= 0 {
		return model.ErrNonPositiveAmount
	}

	query := `
		INSERT INTO refund_ledger (
			id, order_id, order_return_id, amount, status,
			processed_at, notes, source, is_manual, gateway_refund_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		entry.ID,
		entry.OrderID,
		entry.OrderReturnID,
		entry.Amount,
		entry.Status,
		entry.ProcessedAt,
		entry.Notes,
		entry.Source,
		entry.IsManual,
		entry.GatewayRefundID,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// UpdateStatusWithTx transitions a single entry's status. Appends to
// notes rather than replacing them so the journal keeps its history.
func (r *ledgerRepository) UpdateStatusWithTx(
	ctx context.Context,
	tx pgx.Tx,
	id uuid.UUID,
	status string,
	notes *string,
) error {
	query := `
		UPDATE refund_ledger
		SET status = $2,
			notes = CASE
				WHEN $3::text IS NULL THEN notes
				WHEN notes IS NULL THEN $3
				ELSE notes || E'\n' || $3
			END,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query, id, status, notes)
	if err != nil {
		return fmt.Errorf("failed to update ledger status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrLedgerRowNotFound
	}

	return nil
}

// FailPendingWithTx transitions all pending entries for the order to
// failed, recording the reason, and returns the affected entries so the
// caller can revert their linked returns.
func (r *ledgerRepository) FailPendingWithTx(
	ctx context.Context,
	tx pgx.Tx,
	orderID uuid.UUID,
	reason string,
) ([]model.LedgerEntry, error) {
	query := `
		UPDATE refund_ledger
		SET status = 'failed',
			notes = CASE
				WHEN notes IS NULL THEN $2
				ELSE notes || E'\nFailed: ' || $2
			END,
			updated_at = NOW()
		WHERE order_id = $1
		AND status = 'pending'
		RETURNING ` + ledgerColumns

	rows, err := tx.Query(ctx, query, orderID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to fail pending entries: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// SumRefundedWithTx is the transactional refunded-total read used by
// the recalculation step.
func (r *ledgerRepository) SumRefundedWithTx(
	ctx context.Context,
	tx pgx.Tx,
	orderID uuid.UUID,
) (int64, error) {
	return sumRefunded(ctx, tx, orderID)
}

// SumRefunded is the plain refunded-total read used by the validating
// gateway outside the orchestrator transaction.
func (r *ledgerRepository) SumRefunded(
	ctx context.Context,
	orderID uuid.UUID,
) (int64, error) {
	return sumRefunded(ctx, r.pool, orderID)
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumRefunded(ctx context.Context, q queryer, orderID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM refund_ledger
		WHERE order_id = $1
		AND status = 'refunded'
	`

	var total int64
	if err := q.QueryRow(ctx, query, orderID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum refunded entries: %w", err)
	}

	return total, nil
}

// GetByIDWithTx locks and returns one ledger entry.
func (r *ledgerRepository) GetByIDWithTx(
	ctx context.Context,
	tx pgx.Tx,
	id uuid.UUID,
) (*model.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM refund_ledger WHERE id = $1 FOR UPDATE`

	entry := &model.LedgerEntry{}
	err := scanLedgerEntry(tx.QueryRow(ctx, query, id), entry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrLedgerRowNotFound
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// FindRecentRefundedWithTx matches by amount and recency when a
// cancellation event carries no explicit ledger entry reference.
func (r *ledgerRepository) FindRecentRefundedWithTx(
	ctx context.Context,
	tx pgx.Tx,
	orderID uuid.UUID,
	amount int64,
	window time.Duration,
) (*model.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM refund_ledger
		WHERE order_id = $1
		AND amount = $2
		AND status = 'refunded'
		AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`

	entry := &model.LedgerEntry{}
	err := scanLedgerEntry(tx.QueryRow(ctx, query, orderID, amount, time.Now().Add(-window)), entry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrLedgerRowNotFound
		}
		return nil, fmt.Errorf("failed to match ledger entry: %w", err)
	}

	return entry, nil
}

// ListByOrder returns all ledger entries for an order, oldest first.
func (r *ledgerRepository) ListByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) ([]model.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM refund_ledger
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// ListWithDetails is the operator review listing: ledger entries with
// their return/item/order/user context joined, paginated.
func (r *ledgerRepository) ListWithDetails(
	ctx context.Context,
	filters model.LedgerListFilters,
	page, limit int,
) ([]model.LedgerListRow, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filters.OrderID != nil {
		where += fmt.Sprintf(" AND rl.order_id = $%d", argIndex)
		args = append(args, *filters.OrderID)
		argIndex++
	}
	if filters.Status != nil {
		where += fmt.Sprintf(" AND rl.status = $%d", argIndex)
		args = append(args, *filters.Status)
		argIndex++
	}

	countQuery := `SELECT COUNT(*) FROM refund_ledger rl` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	query := `
		SELECT
			rl.id, rl.order_id, rl.order_return_id, rl.amount, rl.status,
			rl.processed_at, rl.notes, rl.source, rl.is_manual, rl.gateway_refund_id,
			rl.created_at, rl.updated_at,
			o.order_number,
			u.email,
			oi.name,
			rt.status,
			rt.created_at
		FROM refund_ledger rl
		INNER JOIN orders o ON rl.order_id = o.id
		INNER JOIN users u ON o.user_id = u.id
		LEFT JOIN order_returns rt ON rl.order_return_id = rt.id
		LEFT JOIN order_items oi ON rt.order_item_id = oi.id
	` + where + fmt.Sprintf(`
		ORDER BY rl.created_at DESC
		LIMIT $%d OFFSET $%d
	`, argIndex, argIndex+1)

	offset := (page - 1) * limit
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var result []model.LedgerListRow
	for rows.Next() {
		var row model.LedgerListRow
		err := rows.Scan(
			&row.Entry.ID,
			&row.Entry.OrderID,
			&row.Entry.OrderReturnID,
			&row.Entry.Amount,
			&row.Entry.Status,
			&row.Entry.ProcessedAt,
			&row.Entry.Notes,
			&row.Entry.Source,
			&row.Entry.IsManual,
			&row.Entry.GatewayRefundID,
			&row.Entry.CreatedAt,
			&row.Entry.UpdatedAt,
			&row.OrderNumber,
			&row.UserEmail,
			&row.ItemName,
			&row.ReturnStatus,
			&row.ReturnedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		row.AmountDisplay = model.FormatMinorUnits(row.Entry.Amount)
		result = append(result, row)
	}

	return result, total, rows.Err()
}

// =====================================================
// SCAN HELPERS
// =====================================================

func scanLedgerEntry(row pgx.Row, entry *model.LedgerEntry) error {
	return row.Scan(
		&entry.ID,
		&entry.OrderID,
		&entry.OrderReturnID,
		&entry.Amount,
		&entry.Status,
		&entry.ProcessedAt,
		&entry.Notes,
		&entry.Source,
		&entry.IsManual,
		&entry.GatewayRefundID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
}

func scanLedgerEntries(rows pgx.Rows) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	for rows.Next() {
		var entry model.LedgerEntry
		if err := scanLedgerEntry(rows, &entry); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
