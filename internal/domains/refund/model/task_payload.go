package model

import "github.com/google/uuid"

// RefundCompletedPayload is enqueued after a refund commits.
type RefundCompletedPayload struct {
	OrderID     uuid.UUID   `json:"order_id"`
	EntryIDs    []uuid.UUID `json:"entry_ids"`
	Amount      int64       `json:"amount"`
	FullRefund  bool        `json:"full_refund"`
	Source      string      `json:"source"`
	ProcessedAt string      `json:"processed_at"` // RFC3339
}

// RefundFailedPayload is enqueued after a gateway failure or a
// fail-refund operation commits.
type RefundFailedPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	Amount  int64     `json:"amount"`
	Reason  string    `json:"reason"`
	Source  string    `json:"source"`
}

// RefundCancelledPayload is enqueued after a cancellation commits.
type RefundCancelledPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	EntryID uuid.UUID `json:"entry_id"`
	Amount  int64     `json:"amount"`
	Source  string    `json:"source"`
}
