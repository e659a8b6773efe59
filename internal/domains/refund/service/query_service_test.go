package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermodel "storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/refund/model"
)

func TestListOrderLedgerReturnsEntries(t *testing.T) {
	order := buildOrder(10000,
		itemSpec{unitPrice: 4000, quantity: 1, returnStatus: ordermodel.ReturnStatusApproved})
	ledger := newFakeLedgerRepo()
	svc := NewRefundQueryService(ledger, newFakeOrderRepo(order))

	require.NoError(t, ledger.CreateWithTx(context.Background(), nil, &model.LedgerEntry{
		ID:      uuid.New(),
		OrderID: order.ID,
		Amount:  4000,
		Status:  model.LedgerStatusRefunded,
		Source:  model.SourceAdmin,
	}))

	entries, err := svc.ListOrderLedger(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4000), entries[0].Amount)
}

func TestListOrderLedgerUnknownOrder(t *testing.T) {
	svc := NewRefundQueryService(newFakeLedgerRepo(), newFakeOrderRepo())

	_, err := svc.ListOrderLedger(context.Background(), uuid.New())

	var refundErr *model.RefundError
	require.ErrorAs(t, err, &refundErr)
	assert.Equal(t, model.ErrCodeOrderNotFound, refundErr.Code)
}
