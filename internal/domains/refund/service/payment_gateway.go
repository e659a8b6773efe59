package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/refund/gateway"
	"storefront-backend/internal/domains/refund/model"
	repo "storefront-backend/internal/domains/refund/repository"
)

// =====================================================
// DIRECT GATEWAY
// =====================================================
// Refunds exactly the computed amount. Trusts the caller to have
// validated the refundable balance.
type directGateway struct {
	client gateway.Client
}

func NewDirectGateway(client gateway.Client) PaymentGateway {
	return &directGateway{client: client}
}

func (g *directGateway) Refund(
	ctx context.Context,
	order *ordermodel.Order,
	item *ordermodel.OrderItem,
	metadata map[string]string,
) (string, error) {
	payment, amount, err := resolveRefund(order, item)
	if err != nil {
		return "", err
	}

	return callGateway(ctx, g.client, order, payment, amount, metadata)
}

// =====================================================
// VALIDATING GATEWAY
// =====================================================
// Additionally enforces, before calling out, that the requested amount
// does not exceed the remaining refundable balance. Fails closed rather
// than over-refunding.
type validatingGateway struct {
	client     gateway.Client
	ledgerRepo repo.LedgerRepoInterface
}

func NewValidatingGateway(client gateway.Client, ledgerRepo repo.LedgerRepoInterface) PaymentGateway {
	return &validatingGateway{client: client, ledgerRepo: ledgerRepo}
}

func (g *validatingGateway) Refund(
	ctx context.Context,
	order *ordermodel.Order,
	item *ordermodel.OrderItem,
	metadata map[string]string,
) (string, error) {
	payment, amount, err := resolveRefund(order, item)
	if err != nil {
		return "", err
	}

	refunded, err := g.ledgerRepo.SumRefunded(ctx, order.ID)
	if err != nil {
		return "", fmt.Errorf("failed to read refunded total: %w", err)
	}

	if remaining := payment.Amount - refunded; amount > remaining {
		return "", model.NewPreconditionError(model.ErrCodeExceedsRefundable,
			fmt.Errorf("%w: requested %d, remaining %d", model.ErrExceedsRefundable, amount, remaining))
	}

	return callGateway(ctx, g.client, order, payment, amount, metadata)
}

// =====================================================
// SHARED HELPERS
// =====================================================

// resolveRefund finds the eligible payment and computes the refund
// amount for the attempt. Pure validation; no side effects.
func resolveRefund(order *ordermodel.Order, item *ordermodel.OrderItem) (*ordermodel.Payment, int64, error) {
	payment := order.RefundablePayment()
	if payment == nil {
		return nil, 0, model.NewPreconditionError(model.ErrCodeNoEligiblePayment, model.ErrNoEligiblePayment)
	}

	var amount int64
	if item != nil {
		if !item.HasApprovedReturn() {
			return nil, 0, model.NewPreconditionError(model.ErrCodeReturnNotApproved, model.ErrReturnNotApproved)
		}
		amount = item.RefundAmount()
	} else {
		approved := order.ApprovedReturns()
		if len(approved) == 0 {
			return nil, 0, model.NewPreconditionError(model.ErrCodeNoApprovedReturns, model.ErrNoApprovedReturns)
		}
		for _, it := range approved {
			amount += it.RefundAmount()
		}
	}

	if amount <= 0 {
		return nil, 0, model.NewPreconditionError(model.ErrCodeNonPositiveAmount, model.ErrNonPositiveAmount)
	}

	return payment, amount, nil
}

func callGateway(
	ctx context.Context,
	client gateway.Client,
	order *ordermodel.Order,
	payment *ordermodel.Payment,
	amount int64,
	metadata map[string]string,
) (string, error) {
	merged := map[string]string{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
	}
	for k, v := range metadata {
		merged[k] = v
	}

	resp, err := client.CreateRefund(ctx, gateway.RefundRequest{
		PaymentReference: payment.TransactionRef,
		Amount:           amount,
		Reason:           "order return refund",
		IdempotencyKey:   attemptKey(merged),
		Metadata:         merged,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrDeclined) {
			return "", model.NewGatewayError("gateway declined refund", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", model.NewGatewayTimeoutError(err)
		}
		return "", model.NewGatewayError("gateway call failed", err)
	}

	return resp.RefundID, nil
}

// attemptKey picks the idempotency key for one gateway attempt. Ledger
// entry IDs are generated fresh per attempt, so the first one uniquely
// identifies the attempt even for bulk refunds that carry several.
func attemptKey(metadata map[string]string) string {
	key := metadata["ledger_entry_id"]
	if i := strings.IndexByte(key, ','); i >= 0 {
		key = key[:i]
	}
	return key
}
