package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefundablePayment(t *testing.T) {
	order := &Order{Payments: []Payment{
		{ID: uuid.New(), Status: PaymentStatusFailed},
		{ID: uuid.New(), Status: PaymentStatusPaid},
	}}

	payment := order.RefundablePayment()
	require.NotNil(t, payment)
	assert.Equal(t, order.Payments[1].ID, payment.ID)

	// Partially refunded payments still accept further refunds
	order.Payments[1].Status = PaymentStatusPartiallyRefunded
	assert.NotNil(t, order.RefundablePayment())

	// Fully refunded ones do not
	order.Payments[1].Status = PaymentStatusRefunded
	assert.Nil(t, order.RefundablePayment())
}

func TestSettledPayment(t *testing.T) {
	order := &Order{Payments: []Payment{
		{ID: uuid.New(), Status: PaymentStatusPending},
		{ID: uuid.New(), Status: PaymentStatusRefunded, Amount: 4000},
	}}

	// Refunded still counts as settled for status recalculation
	payment := order.SettledPayment()
	require.NotNil(t, payment)
	assert.Equal(t, int64(4000), payment.Amount)

	assert.Nil(t, (&Order{Payments: []Payment{{Status: PaymentStatusPending}}}).SettledPayment())
}

func TestApprovedReturns(t *testing.T) {
	order := &Order{Items: []OrderItem{
		{ID: uuid.New(), Return: &OrderReturn{Status: ReturnStatusApproved}},
		{ID: uuid.New(), Return: &OrderReturn{Status: ReturnStatusRequested}},
		{ID: uuid.New()},
		{ID: uuid.New(), Return: &OrderReturn{Status: ReturnStatusApproved}},
	}}

	approved := order.ApprovedReturns()
	require.Len(t, approved, 2)
	assert.Equal(t, order.Items[0].ID, approved[0].ID)
	assert.Equal(t, order.Items[3].ID, approved[1].ID)
}

func TestItemRefundAmount(t *testing.T) {
	item := OrderItem{UnitPrice: 1999, Quantity: 3}
	assert.Equal(t, int64(5997), item.RefundAmount())
}
