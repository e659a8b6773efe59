package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// REQUEST DTOs
// =====================================================

// RefundRequestDTO triggers a gateway refund for one approved return
// (single-item) or every approved return on an order (bulk).
type RefundRequestDTO struct {
	Notes  *string `json:"notes,omitempty"`
	Source string  `json:"source,omitempty"`
}

// ManualRefundRequestDTO reconciles a refund issued outside the engine
// (e.g. directly in the gateway dashboard) into the ledger.
type ManualRefundRequestDTO struct {
	Amount int64   `json:"amount"`
	Notes  *string `json:"notes,omitempty"`
	Source string  `json:"source,omitempty"`
}

func (r ManualRefundRequestDTO) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Source, validation.Length(0, 64)),
	)
}

// CancelRefundRequestDTO reverses a previously recorded refund. The
// ledger entry ID is authoritative when present; the amount is the
// recency-window fallback matcher.
type CancelRefundRequestDTO struct {
	LedgerEntryID *uuid.UUID `json:"ledger_entry_id,omitempty"`
	Amount        int64      `json:"amount"`
}

func (r CancelRefundRequestDTO) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount,
			validation.When(r.LedgerEntryID == nil, validation.Required, validation.Min(int64(1)))),
	)
}

// FailRefundRequestDTO marks every pending ledger entry failed.
type FailRefundRequestDTO struct {
	Reason string `json:"reason"`
}

func (r FailRefundRequestDTO) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(1, 500)),
	)
}

// WebhookEventDTO is the gateway webhook payload consumed here.
// Transport and signature verification happen upstream.
type WebhookEventDTO struct {
	Type     string            `json:"type"`
	OrderID  uuid.UUID         `json:"order_id"`
	Amount   int64             `json:"amount"`
	RefundID string            `json:"refund_id,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (w WebhookEventDTO) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Type, validation.Required, validation.In(
			WebhookEventChargeRefunded,
			WebhookEventRefundPending,
			WebhookEventRefundCanceled,
			WebhookEventRefundFailed,
		)),
		validation.Field(&w.OrderID, validation.By(func(any) error {
			if w.OrderID == uuid.Nil {
				return validation.NewError("validation_required", "order_id is required")
			}
			return nil
		})),
	)
}

// LedgerEntryID extracts the explicit ledger row reference carried
// through gateway metadata, when the event has one.
func (w WebhookEventDTO) LedgerEntryID() *uuid.UUID {
	raw, ok := w.Metadata["ledger_entry_id"]
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// =====================================================
// RESPONSE DTOs
// =====================================================

// RefundResult summarizes a completed refund operation.
type RefundResult struct {
	OrderID       uuid.UUID   `json:"order_id"`
	RefundedTotal int64       `json:"refunded_total"`
	EntryIDs      []uuid.UUID `json:"entry_ids"`
	FullRefund    bool        `json:"full_refund"`
	OrderStatus   string      `json:"order_status"`
	PaymentStatus string      `json:"payment_status"`
}

// LedgerListRow is one operator-facing listing row: a ledger entry with
// its return/item/order/user context joined.
type LedgerListRow struct {
	Entry LedgerEntry `json:"entry"`

	// Display amount in major units. Presentation only; all arithmetic
	// stays in integer minor units.
	AmountDisplay string `json:"amount_display"`

	OrderNumber  string     `json:"order_number"`
	UserEmail    string     `json:"user_email"`
	ItemName     *string    `json:"item_name,omitempty"`
	ReturnStatus *string    `json:"return_status,omitempty"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
}

// FormatMinorUnits renders an integer minor-unit amount in major units
// for operator display (e.g. 4000 -> "40.00").
func FormatMinorUnits(amount int64) string {
	return decimal.NewFromInt(amount).Shift(-2).StringFixed(2)
}

// LedgerListFilters narrows the operator listing.
type LedgerListFilters struct {
	OrderID *uuid.UUID
	Status  *string
}
