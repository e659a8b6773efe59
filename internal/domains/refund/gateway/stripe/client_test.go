package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/refund/gateway"
)

// newGatewayServer returns a stub refunds endpoint that records the
// Idempotency-Key header of every request it receives.
func newGatewayServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":     "re_" + uuid.NewString(),
			"status": gateway.StatusSucceeded,
		})
	}))
	t.Cleanup(srv.Close)

	return srv, &keys
}

func newTestClient(t *testing.T, apiURL string) gateway.Client {
	t.Helper()

	client, err := NewClient(NewConfig(apiURL, "sk_test_key", 2*time.Second))
	require.NoError(t, err)
	return client
}

func TestRefundSendsCallerIdempotencyKey(t *testing.T) {
	srv, keys := newGatewayServer(t)
	client := newTestClient(t, srv.URL)

	attemptKey := uuid.NewString()
	_, err := client.CreateRefund(context.Background(), gateway.RefundRequest{
		PaymentReference: "txn_1001",
		Amount:           4000,
		IdempotencyKey:   attemptKey,
	})
	require.NoError(t, err)

	require.Len(t, *keys, 1)
	assert.Equal(t, attemptKey, (*keys)[0])
}

func TestSameAmountRefundsSendDistinctKeys(t *testing.T) {
	// Same charge, same amount, two attempts. Identical keys here would
	// make an idempotent gateway replay the first refund instead of
	// issuing the second one.
	srv, keys := newGatewayServer(t)
	client := newTestClient(t, srv.URL)

	for i := 0; i < 2; i++ {
		_, err := client.CreateRefund(context.Background(), gateway.RefundRequest{
			PaymentReference: "txn_1001",
			Amount:           4000,
			IdempotencyKey:   uuid.NewString(),
		})
		require.NoError(t, err)
	}

	require.Len(t, *keys, 2)
	assert.NotEqual(t, (*keys)[0], (*keys)[1])
}

func TestMissingIdempotencyKeyGetsFreshValue(t *testing.T) {
	srv, keys := newGatewayServer(t)
	client := newTestClient(t, srv.URL)

	for i := 0; i < 2; i++ {
		_, err := client.CreateRefund(context.Background(), gateway.RefundRequest{
			PaymentReference: "txn_1001",
			Amount:           4000,
		})
		require.NoError(t, err)
	}

	require.Len(t, *keys, 2)
	assert.NotEmpty(t, (*keys)[0])
	assert.NotEmpty(t, (*keys)[1])
	assert.NotEqual(t, (*keys)[0], (*keys)[1])
}

func TestDeclinedReplyMapsToErrDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"code":    "charge_already_refunded",
				"message": "Charge has already been refunded",
			},
		})
	}))
	t.Cleanup(srv.Close)
	client := newTestClient(t, srv.URL)

	_, err := client.CreateRefund(context.Background(), gateway.RefundRequest{
		PaymentReference: "txn_1001",
		Amount:           4000,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrDeclined)
}
