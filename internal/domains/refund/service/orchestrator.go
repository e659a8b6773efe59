package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	ordermodel "storefront-backend/internal/domains/order/model"
	orderrepo "storefront-backend/internal/domains/order/repository"
	"storefront-backend/internal/domains/refund/model"
	repo "storefront-backend/internal/domains/refund/repository"
	"storefront-backend/pkg/lock"
)

// =====================================================
// REFUND ORCHESTRATOR IMPLEMENTATION
// =====================================================
//
// Locking discipline: every refund-affecting operation holds the
// per-order lock for its whole duration, including the gateway call,
// and performs all writes in one transaction that re-loads the
// aggregate FOR UPDATE. The gateway client timeout is required to stay
// below the lock TTL, so a slow gateway cannot outlive the lease. A
// concurrent operation on the same order is rejected as busy rather
// than queued.
type refundOrchestrator struct {
	orderRepo  orderrepo.OrderRepository
	ledgerRepo repo.LedgerRepoInterface
	txManager  orderrepo.TransactionManager
	gateway    PaymentGateway
	locker     lock.OrderLocker
	enqueuer   TaskEnqueuer
}

func NewRefundOrchestrator(
	orderRepo orderrepo.OrderRepository,
	ledgerRepo repo.LedgerRepoInterface,
	txManager orderrepo.TransactionManager,
	gw PaymentGateway,
	locker lock.OrderLocker,
	enqueuer TaskEnqueuer,
) RefundOrchestrator {
	return &refundOrchestrator{
		orderRepo:  orderRepo,
		ledgerRepo: ledgerRepo,
		txManager:  txManager,
		gateway:    gw,
		locker:     locker,
		enqueuer:   enqueuer,
	}
}

// =====================================================
// REFUND (single-item and bulk)
// =====================================================

func (s *refundOrchestrator) Refund(
	ctx context.Context,
	cmd RefundCommand,
) (*model.RefundResult, error) {
	if !cmd.Mode.IsValid() {
		return nil, model.NewRefundError(model.ErrCodeInternalError,
			fmt.Sprintf("invalid refund mode %q", cmd.Mode), nil)
	}
	policy := cmd.GatewayPolicy
	if policy == "" {
		policy = model.GatewayCall
	}
	source := cmd.Source
	if source == "" {
		source = model.SourceAdmin
	}

	// Resolve the order before locking; the authoritative load happens
	// under the lock.
	orderID := cmd.TargetID
	if cmd.Mode == model.ModeSingleItem {
		var err error
		orderID, err = s.orderRepo.GetReturnOrderID(ctx, cmd.TargetID)
		if err != nil {
			if errors.Is(err, ordermodel.ErrReturnNotFound) {
				return nil, model.NewPreconditionError(model.ErrCodeReturnNotFound, err)
			}
			return nil, err
		}
	}

	release, err := s.acquireLock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.txManager.RollbackTx(ctx, tx)

	order, err := s.orderRepo.GetOrderForRefundWithTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			return nil, model.NewPreconditionError(model.ErrCodeOrderNotFound, err)
		}
		return nil, err
	}

	if order.RefundablePayment() == nil {
		return nil, model.NewPreconditionError(model.ErrCodeNoEligiblePayment, model.ErrNoEligiblePayment)
	}

	targets, gatewayItem, err := s.resolveTargets(order, cmd)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, item := range targets {
		amount := item.RefundAmount()
		if amount <= 0 {
			return nil, model.NewPreconditionError(model.ErrCodeNonPositiveAmount,
				fmt.Errorf("%w: item %s computed %d", model.ErrNonPositiveAmount, item.ID, amount))
		}
		total += amount
	}

	// Pre-generate entry IDs so they can ride through gateway metadata
	// and come back on cancellation webhooks.
	entryIDs := make([]uuid.UUID, len(targets))
	for i := range targets {
		entryIDs[i] = uuid.New()
	}

	var gatewayRefundID *string
	if policy == model.GatewayCall {
		refID, gwErr := s.gateway.Refund(ctx, order, gatewayItem, map[string]string{
			"ledger_entry_id": joinIDs(entryIDs),
		})
		if gwErr != nil {
			if model.IsPrecondition(gwErr) {
				return nil, gwErr
			}
			return nil, s.recordGatewayFailure(ctx, tx, order, cmd, targets, total, source, gwErr)
		}
		if refID != "" {
			gatewayRefundID = &refID
		}
	}

	now := time.Now()
	for i, item := range targets {
		entry := &model.LedgerEntry{
			ID:              entryIDs[i],
			OrderID:         order.ID,
			OrderReturnID:   &item.Return.ID,
			Amount:          item.RefundAmount(),
			Status:          model.LedgerStatusRefunded,
			ProcessedAt:     &now,
			Notes:           cmd.Notes,
			Source:          source,
			GatewayRefundID: gatewayRefundID,
		}
		if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}
		if err := s.orderRepo.UpdateReturnStatusWithTx(ctx, tx, item.Return.ID, ordermodel.ReturnStatusCompleted); err != nil {
			return nil, err
		}
	}

	orderStatus, paymentStatus, refundedTotal, err := s.recalculateWithTx(ctx, tx, order)
	if err != nil {
		return nil, err
	}

	if err := s.txManager.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	result := &model.RefundResult{
		OrderID:       order.ID,
		RefundedTotal: refundedTotal,
		EntryIDs:      entryIDs,
		FullRefund:    orderStatus == ordermodel.OrderStatusRefunded,
		OrderStatus:   orderStatus.String(),
		PaymentStatus: paymentStatus.String(),
	}

	s.enqueueCompleted(ctx, result, total, source, now)

	log.Info().
		Str("order_id", order.ID.String()).
		Int64("amount", total).
		Bool("full_refund", result.FullRefund).
		Str("source", source).
		Msg("Refund recorded")

	return result, nil
}

// resolveTargets picks the items whose returns this attempt consumes.
func (s *refundOrchestrator) resolveTargets(
	order *ordermodel.Order,
	cmd RefundCommand,
) ([]ordermodel.OrderItem, *ordermodel.OrderItem, error) {
	if cmd.Mode == model.ModeBulk {
		approved := order.ApprovedReturns()
		if len(approved) == 0 {
			return nil, nil, model.NewPreconditionError(model.ErrCodeNoApprovedReturns, model.ErrNoApprovedReturns)
		}
		return approved, nil, nil
	}

	for i := range order.Items {
		item := order.Items[i]
		if item.Return == nil || item.Return.ID != cmd.TargetID {
			continue
		}
		if !item.Return.IsApproved() {
			return nil, nil, model.NewPreconditionError(model.ErrCodeReturnNotApproved,
				fmt.Errorf("%w: return %s is %s", model.ErrReturnNotApproved, item.Return.ID, item.Return.Status))
		}
		return []ordermodel.OrderItem{item}, &order.Items[i], nil
	}

	return nil, nil, model.NewPreconditionError(model.ErrCodeReturnNotFound, ordermodel.ErrReturnNotFound)
}

// recordGatewayFailure journals the failed attempt and surfaces a
// retryable gateway error. Order/payment status stays untouched and the
// returns stay approved so the caller can retry.
func (s *refundOrchestrator) recordGatewayFailure(
	ctx context.Context,
	tx pgx.Tx,
	order *ordermodel.Order,
	cmd RefundCommand,
	targets []ordermodel.OrderItem,
	total int64,
	source string,
	gwErr error,
) error {
	reason := gwErr.Error()
	entry := &model.LedgerEntry{
		ID:      uuid.New(),
		OrderID: order.ID,
		Amount:  total,
		Status:  model.LedgerStatusFailed,
		Notes:   &reason,
		Source:  source,
	}
	if cmd.Mode == model.ModeSingleItem && len(targets) == 1 {
		entry.OrderReturnID = &targets[0].Return.ID
	}

	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("Failed to journal gateway failure")
		return err
	}
	if err := s.txManager.CommitTx(ctx, tx); err != nil {
		return err
	}

	s.enqueueTask(ctx, model.TaskRefundFailed, model.RefundFailedPayload{
		OrderID: order.ID,
		Amount:  total,
		Reason:  reason,
		Source:  source,
	})

	log.Warn().
		Str("order_id", order.ID.String()).
		Int64("amount", total).
		Err(gwErr).
		Msg("Gateway refund failed")

	if model.IsGateway(gwErr) {
		return gwErr
	}
	return model.NewGatewayError("gateway refund failed", gwErr)
}

// =====================================================
// MANUAL REFUND
// =====================================================

func (s *refundOrchestrator) CreateManualRefund(
	ctx context.Context,
	orderID uuid.UUID,
	amount int64,
	notes *string,
	source string,
) (*model.RefundResult, error) {
	if amount <= 0 {
		return nil, model.NewPreconditionError(model.ErrCodeNonPositiveAmount, model.ErrNonPositiveAmount)
	}
	if source == "" {
		source = model.SourceManual
	}

	release, err := s.acquireLock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.txManager.RollbackTx(ctx, tx)

	order, err := s.orderRepo.GetOrderForRefundWithTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			return nil, model.NewPreconditionError(model.ErrCodeOrderNotFound, err)
		}
		return nil, err
	}
	if order.SettledPayment() == nil {
		return nil, model.NewPreconditionError(model.ErrCodeNoEligiblePayment, model.ErrNoEligiblePayment)
	}

	now := time.Now()
	approved := order.ApprovedReturns()
	var entryIDs []uuid.UUID

	if len(approved) > 0 {
		// Proportional distribution with remainder absorption: every
		// return but the last gets its own computed amount, the last
		// absorbs whatever remains so the ledger total equals amount
		// exactly, regardless of rounding.
		var distributed int64
		for i, item := range approved {
			share := item.RefundAmount()
			if i == len(approved)-1 {
				share = amount - distributed
			}
			if share <= 0 {
				return nil, model.NewPreconditionError(model.ErrCodeAmountTooSmall,
					fmt.Errorf("%w: %d left for return %s", model.ErrAmountTooSmall, share, item.Return.ID))
			}

			entry := &model.LedgerEntry{
				ID:            uuid.New(),
				OrderID:       order.ID,
				OrderReturnID: &item.Return.ID,
				Amount:        share,
				Status:        model.LedgerStatusRefunded,
				ProcessedAt:   &now,
				Notes:         notes,
				Source:        source,
				IsManual:      true,
			}
			if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
				return nil, err
			}
			if err := s.orderRepo.UpdateReturnStatusWithTx(ctx, tx, item.Return.ID, ordermodel.ReturnStatusCompleted); err != nil {
				return nil, err
			}

			entryIDs = append(entryIDs, entry.ID)
			distributed += share
		}
	} else {
		// No approved returns: one undifferentiated row for the full amount.
		entry := &model.LedgerEntry{
			ID:          uuid.New(),
			OrderID:     order.ID,
			Amount:      amount,
			Status:      model.LedgerStatusRefunded,
			ProcessedAt: &now,
			Notes:       notes,
			Source:      source,
			IsManual:    true,
		}
		if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
			return nil, err
		}
		entryIDs = append(entryIDs, entry.ID)
	}

	// Manual refunds co-exist with engine-issued ones, so the status is
	// always rebuilt from scratch rather than from the immediate delta.
	orderStatus, paymentStatus, refundedTotal, err := s.recalculateWithTx(ctx, tx, order)
	if err != nil {
		return nil, err
	}

	if err := s.txManager.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	result := &model.RefundResult{
		OrderID:       order.ID,
		RefundedTotal: refundedTotal,
		EntryIDs:      entryIDs,
		FullRefund:    orderStatus == ordermodel.OrderStatusRefunded,
		OrderStatus:   orderStatus.String(),
		PaymentStatus: paymentStatus.String(),
	}

	s.enqueueCompleted(ctx, result, amount, source, now)

	log.Info().
		Str("order_id", order.ID.String()).
		Int64("amount", amount).
		Int("entries", len(entryIDs)).
		Msg("Manual refund reconciled")

	return result, nil
}

// =====================================================
// CANCEL REFUND
// =====================================================

func (s *refundOrchestrator) CancelRefund(
	ctx context.Context,
	orderID uuid.UUID,
	entryID *uuid.UUID,
	amount int64,
) error {
	release, err := s.acquireLock(ctx, orderID)
	if err != nil {
		return err
	}
	defer release()

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.txManager.RollbackTx(ctx, tx)

	order, err := s.orderRepo.GetOrderForRefundWithTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			return model.NewPreconditionError(model.ErrCodeOrderNotFound, err)
		}
		return err
	}
	if order.SettledPayment() == nil {
		return model.NewPreconditionError(model.ErrCodeNoEligiblePayment, model.ErrNoEligiblePayment)
	}

	var entry *model.LedgerEntry
	if entryID != nil {
		entry, err = s.ledgerRepo.GetByIDWithTx(ctx, tx, *entryID)
		if err == nil && entry.OrderID != orderID {
			err = model.ErrLedgerRowNotFound
		}
	} else {
		// Fallback matcher for events without an explicit row reference.
		entry, err = s.ledgerRepo.FindRecentRefundedWithTx(ctx, tx, orderID, amount, model.CancelMatchWindow)
	}
	if err != nil {
		if errors.Is(err, model.ErrLedgerRowNotFound) {
			return model.NewPreconditionError(model.ErrCodeLedgerRowNotFound, model.ErrLedgerRowNotFound)
		}
		return err
	}

	if !entry.CanBeCancelled() {
		return model.NewPreconditionError(model.ErrCodeLedgerRowNotFound,
			fmt.Errorf("%w: entry %s is %s", model.ErrEntryNotCancellable, entry.ID, entry.Status))
	}

	note := "Cancelled via gateway event"
	if err := s.ledgerRepo.UpdateStatusWithTx(ctx, tx, entry.ID, model.LedgerStatusCancelled, &note); err != nil {
		return err
	}

	// Compensating transition: the consumed return is approved again so
	// the refund can be re-attempted.
	if entry.OrderReturnID != nil {
		if err := s.orderRepo.UpdateReturnStatusWithTx(ctx, tx, *entry.OrderReturnID, ordermodel.ReturnStatusApproved); err != nil {
			return err
		}
	}

	if _, _, _, err := s.recalculateWithTx(ctx, tx, order); err != nil {
		return err
	}

	if err := s.txManager.CommitTx(ctx, tx); err != nil {
		return err
	}

	s.enqueueTask(ctx, model.TaskRefundCancelled, model.RefundCancelledPayload{
		OrderID: orderID,
		EntryID: entry.ID,
		Amount:  entry.Amount,
		Source:  model.SourceWebhook,
	})

	log.Info().
		Str("order_id", orderID.String()).
		Str("entry_id", entry.ID.String()).
		Int64("amount", entry.Amount).
		Msg("Refund cancelled")

	return nil
}

// =====================================================
// FAIL REFUND
// =====================================================

func (s *refundOrchestrator) FailRefund(
	ctx context.Context,
	orderID uuid.UUID,
	reason string,
) error {
	release, err := s.acquireLock(ctx, orderID)
	if err != nil {
		return err
	}
	defer release()

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.txManager.RollbackTx(ctx, tx)

	order, err := s.orderRepo.GetOrderForRefundWithTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			return model.NewPreconditionError(model.ErrCodeOrderNotFound, err)
		}
		return err
	}

	failed, err := s.ledgerRepo.FailPendingWithTx(ctx, tx, orderID, reason)
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		return model.NewPreconditionError(model.ErrCodeLedgerRowNotFound, model.ErrNoPendingEntries)
	}

	var total int64
	for _, entry := range failed {
		total += entry.Amount
		if entry.OrderReturnID == nil {
			continue
		}
		if ret := findReturn(order, *entry.OrderReturnID); ret != nil && ret.IsCompleted() {
			if err := s.orderRepo.UpdateReturnStatusWithTx(ctx, tx, ret.ID, ordermodel.ReturnStatusApproved); err != nil {
				return err
			}
		}
	}

	if _, _, _, err := s.recalculateWithTx(ctx, tx, order); err != nil {
		return err
	}

	if err := s.txManager.CommitTx(ctx, tx); err != nil {
		return err
	}

	s.enqueueTask(ctx, model.TaskRefundFailed, model.RefundFailedPayload{
		OrderID: orderID,
		Amount:  total,
		Reason:  reason,
		Source:  model.SourceWebhook,
	})

	log.Info().
		Str("order_id", orderID.String()).
		Int("entries", len(failed)).
		Str("reason", reason).
		Msg("Pending refunds marked failed")

	return nil
}

// =====================================================
// RECORD PENDING REFUND
// =====================================================

func (s *refundOrchestrator) RecordPendingRefund(
	ctx context.Context,
	orderID uuid.UUID,
	amount int64,
	source string,
	gatewayRefundID *string,
) error {
	if amount <= 0 {
		return model.NewPreconditionError(model.ErrCodeNonPositiveAmount, model.ErrNonPositiveAmount)
	}
	if source == "" {
		source = model.SourceWebhook
	}

	release, err := s.acquireLock(ctx, orderID)
	if err != nil {
		return err
	}
	defer release()

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.txManager.RollbackTx(ctx, tx)

	order, err := s.orderRepo.GetOrderForRefundWithTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			return model.NewPreconditionError(model.ErrCodeOrderNotFound, err)
		}
		return err
	}
	if order.SettledPayment() == nil {
		return model.NewPreconditionError(model.ErrCodeNoEligiblePayment, model.ErrNoEligiblePayment)
	}

	entry := &model.LedgerEntry{
		ID:              uuid.New(),
		OrderID:         orderID,
		Amount:          amount,
		Status:          model.LedgerStatusPending,
		Source:          source,
		GatewayRefundID: gatewayRefundID,
	}
	if err := s.ledgerRepo.CreateWithTx(ctx, tx, entry); err != nil {
		return err
	}

	return s.txManager.CommitTx(ctx, tx)
}

// =====================================================
// RECALCULATE ORDER STATUS
// =====================================================

// RecalculateOrderStatus rebuilds aggregate status from the ledger.
func (s *refundOrchestrator) RecalculateOrderStatus(
	ctx context.Context,
	orderID uuid.UUID,
) error {
	release, err := s.acquireLock(ctx, orderID)
	if err != nil {
		return err
	}
	defer release()

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer s.txManager.RollbackTx(ctx, tx)

	order, err := s.orderRepo.GetOrderForRefundWithTx(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, ordermodel.ErrOrderNotFound) {
			return model.NewPreconditionError(model.ErrCodeOrderNotFound, err)
		}
		return err
	}

	if _, _, _, err := s.recalculateWithTx(ctx, tx, order); err != nil {
		return err
	}

	return s.txManager.CommitTx(ctx, tx)
}

// recalculateWithTx is the single source of truth for aggregate status:
// a full scan of refunded ledger rows, never an incremental delta.
// A refunded total above the payment amount is fatal and logged, never
// clamped; it means a locking or ordering bug let money out twice.
func (s *refundOrchestrator) recalculateWithTx(
	ctx context.Context,
	tx pgx.Tx,
	order *ordermodel.Order,
) (ordermodel.OrderStatus, ordermodel.PaymentStatus, int64, error) {
	payment := order.SettledPayment()
	if payment == nil {
		return "", "", 0, model.NewPreconditionError(model.ErrCodeNoEligiblePayment, model.ErrNoEligiblePayment)
	}

	total, err := s.ledgerRepo.SumRefundedWithTx(ctx, tx, order.ID)
	if err != nil {
		return "", "", 0, err
	}

	if total > payment.Amount {
		reconErr := model.NewReconciliationError(order.ID.String(), total, payment.Amount)
		log.Error().
			Str("order_id", order.ID.String()).
			Int64("refunded_total", total).
			Int64("payment_amount", payment.Amount).
			Msg("Ledger inconsistency: refunded total exceeds payment amount")
		return "", "", 0, reconErr
	}

	var orderStatus ordermodel.OrderStatus
	var paymentStatus ordermodel.PaymentStatus
	switch {
	case total == payment.Amount:
		orderStatus = ordermodel.OrderStatusRefunded
		paymentStatus = ordermodel.PaymentStatusRefunded
	case total > 0:
		orderStatus = ordermodel.OrderStatusPartiallyRefunded
		paymentStatus = ordermodel.PaymentStatusPartiallyRefunded
	default:
		orderStatus = ordermodel.OrderStatusConfirmed
		paymentStatus = ordermodel.PaymentStatusPaid
	}

	if err := s.orderRepo.UpdateOrderStatusWithTx(ctx, tx, order.ID, orderStatus); err != nil {
		return "", "", 0, err
	}
	if err := s.orderRepo.UpdatePaymentStatusWithTx(ctx, tx, payment.ID, paymentStatus); err != nil {
		return "", "", 0, err
	}

	order.Status = orderStatus
	payment.Status = paymentStatus

	return orderStatus, paymentStatus, total, nil
}

// =====================================================
// HELPERS
// =====================================================

func (s *refundOrchestrator) acquireLock(ctx context.Context, orderID uuid.UUID) (func(), error) {
	release, err := s.locker.Acquire(ctx, orderID)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, model.NewRefundError(model.ErrCodeOrderBusy, model.ErrOrderBusy.Error(), model.ErrOrderBusy)
		}
		return nil, err
	}
	return release, nil
}

func (s *refundOrchestrator) enqueueCompleted(
	ctx context.Context,
	result *model.RefundResult,
	amount int64,
	source string,
	processedAt time.Time,
) {
	s.enqueueTask(ctx, model.TaskRefundCompleted, model.RefundCompletedPayload{
		OrderID:     result.OrderID,
		EntryIDs:    result.EntryIDs,
		Amount:      amount,
		FullRefund:  result.FullRefund,
		Source:      source,
		ProcessedAt: processedAt.Format(time.RFC3339),
	})
}

// enqueueTask dispatches an outcome task. Best effort only: the refund
// has already committed, so an enqueue failure is logged and dropped.
func (s *refundOrchestrator) enqueueTask(ctx context.Context, taskType string, payload any) {
	if s.enqueuer == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("task", taskType).Msg("Failed to marshal task payload")
		return
	}

	if _, err := s.enqueuer.EnqueueContext(ctx, asynq.NewTask(taskType, raw), asynq.MaxRetry(5)); err != nil {
		log.Error().Err(err).Str("task", taskType).Msg("Failed to enqueue task")
	}
}

func findReturn(order *ordermodel.Order, returnID uuid.UUID) *ordermodel.OrderReturn {
	for i := range order.Items {
		if ret := order.Items[i].Return; ret != nil && ret.ID == returnID {
			return ret
		}
	}
	return nil
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
