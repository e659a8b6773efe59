package model

import (
	"errors"
	"fmt"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrNoEligiblePayment   = errors.New("no payment in refundable status")
	ErrReturnNotApproved   = errors.New("return is not approved")
	ErrNoApprovedReturns   = errors.New("order has no approved returns")
	ErrNonPositiveAmount   = errors.New("computed refund amount is not positive")
	ErrExceedsRefundable   = errors.New("amount exceeds remaining refundable balance")
	ErrAmountTooSmall      = errors.New("amount too small to distribute across approved returns")
	ErrLedgerRowNotFound   = errors.New("refund ledger entry not found")
	ErrEntryNotCancellable = errors.New("ledger entry is not in a cancellable status")
	ErrNoPendingEntries    = errors.New("no pending ledger entries for order")
	ErrOrderBusy           = errors.New("another refund operation is in progress for this order")
	ErrGatewayDeclined     = errors.New("gateway declined the refund")
	ErrOverRefunded        = errors.New("refunded total exceeds payment amount")
)

// =====================================================
// CUSTOM REFUND ERROR
// =====================================================

type RefundError struct {
	Code    string
	Message string
	Err     error
}

func (e *RefundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RefundError) Unwrap() error {
	return e.Err
}

// NewRefundError creates a new refund error
func NewRefundError(code, message string, err error) *RefundError {
	return &RefundError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// =====================================================
// ERROR CONSTRUCTORS
// =====================================================

// NewPreconditionError wraps a validation failure rejected before any
// mutation. Surfaced to callers as a 4xx.
func NewPreconditionError(code string, err error) *RefundError {
	return NewRefundError(code, err.Error(), err)
}

// NewGatewayError wraps a failed or timed-out remote call. The failure
// has been recorded as a failed ledger row and the caller may retry.
func NewGatewayError(message string, err error) *RefundError {
	return NewRefundError(ErrCodeGatewayDeclined, message, errors.Join(ErrGatewayDeclined, err))
}

// NewGatewayTimeoutError wraps a remote call that ran out of time
// before the gateway answered. The outcome on the gateway side is
// unknown until its webhook arrives.
func NewGatewayTimeoutError(err error) *RefundError {
	return NewRefundError(ErrCodeGatewayTimeout, "gateway call timed out", errors.Join(ErrGatewayDeclined, err))
}

// NewReconciliationError reports an inconsistent ledger state. This is
// fatal: it indicates a locking or ordering bug upstream and must never
// be clamped away.
func NewReconciliationError(orderID string, refunded, paymentAmount int64) *RefundError {
	return NewRefundError(
		ErrCodeOverRefunded,
		fmt.Sprintf("order %s: refunded total %d exceeds payment amount %d", orderID, refunded, paymentAmount),
		ErrOverRefunded,
	)
}

// IsPrecondition reports whether err is a rejected-before-mutation failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrNoEligiblePayment) ||
		errors.Is(err, ErrReturnNotApproved) ||
		errors.Is(err, ErrNoApprovedReturns) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrExceedsRefundable) ||
		errors.Is(err, ErrAmountTooSmall) ||
		errors.Is(err, ErrLedgerRowNotFound) ||
		errors.Is(err, ErrEntryNotCancellable) ||
		errors.Is(err, ErrNoPendingEntries)
}

// IsGateway reports whether err came from the remote refund call.
func IsGateway(err error) bool {
	return errors.Is(err, ErrGatewayDeclined)
}

// IsReconciliation reports whether err is a fatal ledger inconsistency.
func IsReconciliation(err error) bool {
	return errors.Is(err, ErrOverRefunded)
}
