package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY IMPLEMENTATION
// =====================================================
type orderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

// GetOrderForRefundWithTx loads the full refund aggregate: the order row,
// its payments, and its items with their returns. The order and payment
// rows are locked FOR UPDATE so concurrent refund operations on the same
// order serialize at the database even if the distributed lock is lost.
func (r *orderRepository) GetOrderForRefundWithTx(
	ctx context.Context,
	tx pgx.Tx,
	orderID uuid.UUID,
) (*model.Order, error) {
	order := &model.Order{}

	query := `
		SELECT id, order_number, user_id, total, status, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`
	err := tx.QueryRow(ctx, query, orderID).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.loadPayments(ctx, tx, order, true); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, tx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// GetReturnOrderID resolves a return ID to its order ID.
// Used by the single-item refund path before locking the aggregate.
func (r *orderRepository) GetReturnOrderID(
	ctx context.Context,
	returnID uuid.UUID,
) (uuid.UUID, error) {
	query := `
		SELECT oi.order_id
		FROM order_returns rt
		INNER JOIN order_items oi ON rt.order_item_id = oi.id
		WHERE rt.id = $1
	`

	var orderID uuid.UUID
	err := r.pool.QueryRow(ctx, query, returnID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, model.ErrReturnNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve return order: %w", err)
	}

	return orderID, nil
}

// GetOrderByID loads the order aggregate without locking. Read paths only.
func (r *orderRepository) GetOrderByID(
	ctx context.Context,
	orderID uuid.UUID,
) (*model.Order, error) {
	order := &model.Order{}

	query := `
		SELECT id, order_number, user_id, total, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) loadPayments(ctx context.Context, tx pgx.Tx, order *model.Order, lock bool) error {
	query := `
		SELECT id, order_id, amount, status, transaction_ref, created_at, updated_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at ASC
	`
	if lock {
		query += " FOR UPDATE"
	}

	rows, err := tx.Query(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(
			&p.ID,
			&p.OrderID,
			&p.Amount,
			&p.Status,
			&p.TransactionRef,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan payment: %w", err)
		}
		order.Payments = append(order.Payments, p)
	}

	return rows.Err()
}

func (r *orderRepository) loadItems(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		SELECT
			oi.id, oi.order_id, oi.product_id, oi.name, oi.unit_price, oi.quantity, oi.created_at,
			rt.id, rt.order_item_id, rt.reason, rt.status, rt.created_at, rt.updated_at
		FROM order_items oi
		LEFT JOIN order_returns rt ON rt.order_item_id = oi.id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at ASC, oi.id ASC
	`

	rows, err := tx.Query(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		var (
			retID        *uuid.UUID
			retItemID    *uuid.UUID
			retReason    *string
			retStatus    *model.ReturnStatus
			retCreatedAt *time.Time
			retUpdatedAt *time.Time
		)

		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&item.CreatedAt,
			&retID,
			&retItemID,
			&retReason,
			&retStatus,
			&retCreatedAt,
			&retUpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}

		if retID != nil {
			item.Return = &model.OrderReturn{
				ID:          *retID,
				OrderItemID: *retItemID,
				Reason:      retReason,
				Status:      *retStatus,
				CreatedAt:   *retCreatedAt,
				UpdatedAt:   *retUpdatedAt,
			}
		}

		order.Items = append(order.Items, item)
	}

	return rows.Err()
}

// =====================================================
// STATUS MUTATIONS
// =====================================================

func (r *orderRepository) UpdateOrderStatusWithTx(
	ctx context.Context,
	tx pgx.Tx,
	orderID uuid.UUID,
	status model.OrderStatus,
) error {
	if !status.IsValid() {
		return model.ErrInvalidStatus
	}

	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query, orderID, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) UpdatePaymentStatusWithTx(
	ctx context.Context,
	tx pgx.Tx,
	paymentID uuid.UUID,
	status model.PaymentStatus,
) error {
	if !status.IsValid() {
		return model.ErrInvalidStatus
	}

	query := `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query, paymentID, status)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrPaymentNotFound
	}

	return nil
}

func (r *orderRepository) UpdateReturnStatusWithTx(
	ctx context.Context,
	tx pgx.Tx,
	returnID uuid.UUID,
	status model.ReturnStatus,
) error {
	if !status.IsValid() {
		return model.ErrInvalidStatus
	}

	query := `
		UPDATE order_returns
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query, returnID, status)
	if err != nil {
		return fmt.Errorf("failed to update return status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrReturnNotFound
	}

	return nil
}
