package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// ENTITY: Order
// =====================================================
// All monetary amounts are integers in minor currency units (pence).
type Order struct {
	ID          uuid.UUID   `json:"id"`
	OrderNumber string      `json:"order_number"`
	UserID      uuid.UUID   `json:"user_id"`
	Total       int64       `json:"total"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Loaded on demand by the repository
	Payments []Payment   `json:"payments,omitempty"`
	Items    []OrderItem `json:"items,omitempty"`
}

// RefundablePayment returns the payment refunds are taken against:
// the first payment in paid or partially_refunded status, or nil.
func (o *Order) RefundablePayment() *Payment {
	for i := range o.Payments {
		if o.Payments[i].IsRefundable() {
			return &o.Payments[i]
		}
	}
	return nil
}

// SettledPayment returns the first payment money actually moved
// through, regardless of how much has since been refunded. This is the
// payment the status recalculation measures against.
func (o *Order) SettledPayment() *Payment {
	for i := range o.Payments {
		switch o.Payments[i].Status {
		case PaymentStatusPaid, PaymentStatusPartiallyRefunded, PaymentStatusRefunded:
			return &o.Payments[i]
		}
	}
	return nil
}

// ApprovedReturns returns items whose return is approved, in stable
// (load) order.
func (o *Order) ApprovedReturns() []OrderItem {
	var items []OrderItem
	for _, item := range o.Items {
		if item.Return != nil && item.Return.IsApproved() {
			items = append(items, item)
		}
	}
	return items
}

// =====================================================
// ENTITY: Payment
// =====================================================
type Payment struct {
	ID             uuid.UUID     `json:"id"`
	OrderID        uuid.UUID     `json:"order_id"`
	Amount         int64         `json:"amount"`
	Status         PaymentStatus `json:"status"`
	TransactionRef string        `json:"transaction_ref"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsRefundable reports whether refunds can be taken against this payment.
func (p *Payment) IsRefundable() bool {
	return p.Status == PaymentStatusPaid || p.Status == PaymentStatusPartiallyRefunded
}

// =====================================================
// ENTITY: OrderItem
// =====================================================
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`

	// At most one return per item
	Return *OrderReturn `json:"return,omitempty"`
}

// RefundAmount is the per-item refundable amount in minor units,
// computed by the order subsystem. Currently the full line total.
func (i *OrderItem) RefundAmount() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// HasApprovedReturn reports whether this item has an approved return.
func (i *OrderItem) HasApprovedReturn() bool {
	return i.Return != nil && i.Return.IsApproved()
}

// =====================================================
// ENTITY: OrderReturn
// =====================================================
type OrderReturn struct {
	ID          uuid.UUID    `json:"id"`
	OrderItemID uuid.UUID    `json:"order_item_id"`
	Reason      *string      `json:"reason,omitempty"`
	Status      ReturnStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsApproved reports whether the return is refund-eligible.
func (r *OrderReturn) IsApproved() bool {
	return r.Status == ReturnStatusApproved
}

// IsCompleted reports whether the return has been consumed by a refund.
func (r *OrderReturn) IsCompleted() bool {
	return r.Status == ReturnStatusCompleted
}

// ReturnContext is the single-item refund load: a return joined with its
// item and order, with the order's payments and sibling items attached.
type ReturnContext struct {
	Return *OrderReturn
	Item   *OrderItem
	Order  *Order
}
