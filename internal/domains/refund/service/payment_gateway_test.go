package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/refund/gateway"
	"storefront-backend/internal/domains/refund/model"
)

type fakeGatewayClient struct {
	requests []gateway.RefundRequest
	failWith error
	refundID string
}

func (c *fakeGatewayClient) CreateRefund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResponse, error) {
	c.requests = append(c.requests, req)
	if c.failWith != nil {
		return nil, c.failWith
	}
	id := c.refundID
	if id == "" {
		id = "re_fake_1"
	}
	return &gateway.RefundResponse{RefundID: id, Status: gateway.StatusSucceeded}, nil
}

func TestDirectGatewayRefundsSingleItemAmount(t *testing.T) {
	order := buildOrder(10000,
		itemSpec{unitPrice: 2000, quantity: 2, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{refundID: "re_42"}
	gw := NewDirectGateway(client)

	refundID, err := gw.Refund(context.Background(), order, &order.Items[0], nil)
	require.NoError(t, err)
	assert.Equal(t, "re_42", refundID)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "txn_1001", req.PaymentReference)
	assert.Equal(t, int64(4000), req.Amount)
}

func TestDirectGatewaySumsBulkAmount(t *testing.T) {
	order := buildOrder(10000,
		itemSpec{unitPrice: 3000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved},
		itemSpec{unitPrice: 2000, quantity: 2, returnStatus: ordermodel.ReturnStatusApproved},
		itemSpec{unitPrice: 1000, quantity: 1, returnStatus: ordermodel.ReturnStatusRequested},
	)
	client := &fakeGatewayClient{}
	gw := NewDirectGateway(client)

	_, err := gw.Refund(context.Background(), order, nil, nil)
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	assert.Equal(t, int64(7000), client.requests[0].Amount)
}

func TestGatewayMetadataMergesOverDefaults(t *testing.T) {
	order := buildOrder(4000,
		itemSpec{unitPrice: 4000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{}
	gw := NewDirectGateway(client)

	entryID := uuid.NewString()
	_, err := gw.Refund(context.Background(), order, nil, map[string]string{
		"ledger_entry_id": entryID,
		"order_number":    "OVERRIDE",
	})
	require.NoError(t, err)

	md := client.requests[0].Metadata
	assert.Equal(t, order.ID.String(), md["order_id"])
	assert.Equal(t, entryID, md["ledger_entry_id"])
	// Caller metadata wins on key collision
	assert.Equal(t, "OVERRIDE", md["order_number"])
}

func TestGatewayKeysIdempotencyToAttempt(t *testing.T) {
	// Two same-priced returns refunded one at a time are distinct
	// attempts against the same charge for the same amount. Each must
	// carry its own key or an idempotent gateway replays the first
	// refund and never moves money for the second.
	order := buildOrder(10000,
		itemSpec{unitPrice: 2000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved},
		itemSpec{unitPrice: 2000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{}
	gw := NewDirectGateway(client)

	firstEntry := uuid.NewString()
	secondEntry := uuid.NewString()

	_, err := gw.Refund(context.Background(), order, &order.Items[0], map[string]string{"ledger_entry_id": firstEntry})
	require.NoError(t, err)
	_, err = gw.Refund(context.Background(), order, &order.Items[1], map[string]string{"ledger_entry_id": secondEntry})
	require.NoError(t, err)

	require.Len(t, client.requests, 2)
	assert.Equal(t, firstEntry, client.requests[0].IdempotencyKey)
	assert.Equal(t, secondEntry, client.requests[1].IdempotencyKey)
	assert.Equal(t, client.requests[0].Amount, client.requests[1].Amount)
	assert.NotEqual(t, client.requests[0].IdempotencyKey, client.requests[1].IdempotencyKey)
}

func TestGatewayBulkAttemptKeyUsesFirstEntry(t *testing.T) {
	order := buildOrder(10000,
		itemSpec{unitPrice: 3000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved},
		itemSpec{unitPrice: 2000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{}
	gw := NewDirectGateway(client)

	first := uuid.NewString()
	second := uuid.NewString()
	_, err := gw.Refund(context.Background(), order, nil, map[string]string{
		"ledger_entry_id": first + "," + second,
	})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	assert.Equal(t, first, client.requests[0].IdempotencyKey)
}

func TestGatewayTimeoutMapsToTimeoutCode(t *testing.T) {
	order := buildOrder(4000,
		itemSpec{unitPrice: 4000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{failWith: fmt.Errorf("refund call failed: %w", context.DeadlineExceeded)}
	gw := NewDirectGateway(client)

	_, err := gw.Refund(context.Background(), order, nil, nil)

	var refundErr *model.RefundError
	require.ErrorAs(t, err, &refundErr)
	assert.Equal(t, model.ErrCodeGatewayTimeout, refundErr.Code)
	assert.True(t, model.IsGateway(err))
}

func TestGatewayReturnNotApproved(t *testing.T) {
	order := buildOrder(4000,
		itemSpec{unitPrice: 4000, quantity: 1, returnStatus: ordermodel.ReturnStatusRequested})
	client := &fakeGatewayClient{}
	gw := NewDirectGateway(client)

	_, err := gw.Refund(context.Background(), order, &order.Items[0], nil)

	assert.True(t, model.IsPrecondition(err))
	assert.Empty(t, client.requests)
}

func TestGatewayDeclinedMapsToGatewayError(t *testing.T) {
	order := buildOrder(4000,
		itemSpec{unitPrice: 4000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{failWith: gateway.ErrDeclined}
	gw := NewDirectGateway(client)

	_, err := gw.Refund(context.Background(), order, nil, nil)

	require.Error(t, err)
	assert.True(t, model.IsGateway(err))
	assert.False(t, model.IsPrecondition(err))
}

func TestGatewayTransportErrorMapsToGatewayError(t *testing.T) {
	order := buildOrder(4000,
		itemSpec{unitPrice: 4000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{failWith: errors.New("connection reset")}
	gw := NewDirectGateway(client)

	_, err := gw.Refund(context.Background(), order, nil, nil)

	require.Error(t, err)
	assert.True(t, model.IsGateway(err))
}

func TestValidatingGatewayFailsClosedOnOverRefund(t *testing.T) {
	order := buildOrder(5000,
		itemSpec{unitPrice: 4000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{}
	ledger := newFakeLedgerRepo()
	gw := NewValidatingGateway(client, ledger)

	// 2000 already refunded leaves 3000 of the 5000 payment; 4000 must
	// be rejected before the remote call.
	require.NoError(t, ledger.CreateWithTx(context.Background(), nil, &model.LedgerEntry{
		ID:      uuid.New(),
		OrderID: order.ID,
		Amount:  2000,
		Status:  model.LedgerStatusRefunded,
		Source:  model.SourceManual,
	}))

	_, err := gw.Refund(context.Background(), order, nil, nil)

	var refundErr *model.RefundError
	require.ErrorAs(t, err, &refundErr)
	assert.Equal(t, model.ErrCodeExceedsRefundable, refundErr.Code)
	assert.Empty(t, client.requests)
}

func TestValidatingGatewayAllowsExactRemainder(t *testing.T) {
	order := buildOrder(4000,
		itemSpec{unitPrice: 3000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{}
	ledger := newFakeLedgerRepo()
	gw := NewValidatingGateway(client, ledger)

	require.NoError(t, ledger.CreateWithTx(context.Background(), nil, &model.LedgerEntry{
		ID:      uuid.New(),
		OrderID: order.ID,
		Amount:  1000,
		Status:  model.LedgerStatusRefunded,
		Source:  model.SourceManual,
	}))

	_, err := gw.Refund(context.Background(), order, nil, nil)
	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	assert.Equal(t, int64(3000), client.requests[0].Amount)
}

func TestValidatingGatewayIgnoresNonRefundedRows(t *testing.T) {
	order := buildOrder(4000,
		itemSpec{unitPrice: 4000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	client := &fakeGatewayClient{}
	ledger := newFakeLedgerRepo()
	gw := NewValidatingGateway(client, ledger)

	// Failed and cancelled rows never count against the balance
	for _, status := range []string{model.LedgerStatusFailed, model.LedgerStatusCancelled, model.LedgerStatusPending} {
		require.NoError(t, ledger.CreateWithTx(context.Background(), nil, &model.LedgerEntry{
			ID:      uuid.New(),
			OrderID: order.ID,
			Amount:  4000,
			Status:  status,
			Source:  model.SourceAdmin,
		}))
	}

	_, err := gw.Refund(context.Background(), order, nil, nil)
	require.NoError(t, err)
	require.Len(t, client.requests, 1)
}
