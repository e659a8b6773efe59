package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/refund/gateway"
)

// =====================================================
// MOCK GATEWAY CLIENT
// =====================================================
// In-memory gateway for development and tests. Succeeds unless told
// otherwise, and records every call it receives.

type Client struct {
	mu sync.Mutex

	// FailWith, when set, is returned from every CreateRefund call.
	FailWith error

	// Calls records the requests received, in order.
	Calls []gateway.RefundRequest
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) CreateRefund(
	_ context.Context,
	req gateway.RefundRequest,
) (*gateway.RefundResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls = append(c.Calls, req)

	if c.FailWith != nil {
		return nil, c.FailWith
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount", gateway.ErrDeclined)
	}

	return &gateway.RefundResponse{
		RefundID: "re_" + uuid.NewString(),
		Status:   gateway.StatusSucceeded,
	}, nil
}
