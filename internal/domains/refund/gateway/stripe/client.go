package stripe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/refund/gateway"
)

// =====================================================
// STRIPE-LIKE CLIENT
// =====================================================

type Client struct {
	config     *Config
	httpClient *http.Client
}

func NewClient(config *Config) (gateway.Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

type refundPayload struct {
	Charge   string            `json:"charge"`
	Amount   int64             `json:"amount"`
	Reason   string            `json:"reason,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type refundReply struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CreateRefund performs one synchronous refund attempt. A non-2xx reply
// with an error body maps to ErrDeclined; everything else (transport,
// timeout, malformed body) surfaces as a wrapped error.
func (c *Client) CreateRefund(
	ctx context.Context,
	req gateway.RefundRequest,
) (*gateway.RefundResponse, error) {
	if req.PaymentReference == "" {
		return nil, fmt.Errorf("payment reference is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.Amount)
	}

	body, err := json.Marshal(refundPayload{
		Charge:   req.PaymentReference,
		Amount:   req.Amount,
		Reason:   req.Reason,
		Metadata: req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refund request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.RefundsURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build refund request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	// The key must be unique per attempt, never derived from the refund
	// contents: two legitimate refunds of the same amount against the
	// same charge are distinct attempts, and a fresh attempt after a
	// decline must not replay the cached decline.
	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	httpReq.Header.Set("Idempotency-Key", key)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("refund call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read refund response: %w", err)
	}

	var reply refundReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode refund response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if reply.Error != nil {
			return nil, fmt.Errorf("%w: %s (%s)", gateway.ErrDeclined, reply.Error.Message, reply.Error.Code)
		}
		return nil, fmt.Errorf("refund call returned status %d", resp.StatusCode)
	}

	if reply.Status == gateway.StatusFailed {
		return nil, fmt.Errorf("%w: gateway reported status failed", gateway.ErrDeclined)
	}

	return &gateway.RefundResponse{
		RefundID: reply.ID,
		Status:   reply.Status,
	}, nil
}
