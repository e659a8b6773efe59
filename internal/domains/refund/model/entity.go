package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// REFUND LEDGER ENTRY
// =====================================================
// Append-mostly journal row. One row per refunded item, or one
// undifferentiated row for a manual reconciliation. Rows are never
// deleted; the only in-place mutation is the status transition driven
// by cancel/fail operations.
//
// Invariant: the sum of Amount over rows with status 'refunded' for an
// order never exceeds that order's payment amount.
type LedgerEntry struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       uuid.UUID  `json:"order_id"`
	OrderReturnID *uuid.UUID `json:"order_return_id,omitempty"` // nil for manual/global refunds

	// Amount in minor currency units, always > 0
	Amount int64  `json:"amount"`
	Status string `json:"status"`

	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Source      string     `json:"source"`
	IsManual    bool       `json:"is_manual"`

	// External gateway refund reference, when the gateway reported one
	GatewayRefundID *string `json:"gateway_refund_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRefunded reports whether the entry counts toward the refunded total.
func (e *LedgerEntry) IsRefunded() bool {
	return e.Status == LedgerStatusRefunded
}

// CanBeCancelled reports whether a cancellation event may transition
// this entry. Only settled rows are cancellable.
func (e *LedgerEntry) CanBeCancelled() bool {
	return e.Status == LedgerStatusRefunded
}

// =====================================================
// AUDIT LOG ENTRY
// =====================================================
// Written by the worker after a committed refund outcome. The audit
// trail is intentionally separate from the ledger: it records who/what
// triggered an outcome, not money movement.
type AuditEntry struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	Event      string    `json:"event"`
	Amount     int64     `json:"amount"`
	Detail     string    `json:"detail"`
	RecordedAt time.Time `json:"recorded_at"`
}
