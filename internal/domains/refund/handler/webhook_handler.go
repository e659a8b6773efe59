package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"storefront-backend/internal/domains/refund/model"
	"storefront-backend/internal/domains/refund/service"
)

// WebhookHandler consumes gateway refund events and replays them
// through the orchestrator. Signature verification happens in
// middleware before the request reaches this handler.
type WebhookHandler struct {
	orchestrator service.RefundOrchestrator
}

// NewWebhookHandler creates new webhook handler
func NewWebhookHandler(orchestrator service.RefundOrchestrator) *WebhookHandler {
	return &WebhookHandler{orchestrator: orchestrator}
}

// HandleGatewayEvent processes a gateway refund event
// POST /api/v1/webhooks/gateway
//
// Acknowledgement contract: 200 means the event is settled and must not
// be redelivered, including permanent mismatches we can only log. A
// non-2xx asks the gateway to redeliver, so it is reserved for
// transient failures (order busy, storage errors).
func (h *WebhookHandler) HandleGatewayEvent(c *gin.Context) {
	// Step 1: Bind event payload
	var event model.WebhookEventDTO
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"received": false, "error": "invalid payload"})
		return
	}

	// Step 2: Validate event
	if err := event.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"received": false, "error": err.Error()})
		return
	}

	// Step 3: Dispatch to the orchestrator
	err := h.dispatch(c, event)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if refundErr, ok := err.(*model.RefundError); ok {
		switch refundErr.Code {
		case model.ErrCodeOrderBusy:
			// Another operation holds the order; redeliver later.
			c.JSON(http.StatusConflict, gin.H{"received": false, "error": "order busy"})
			return
		case model.ErrCodeOverRefunded, model.ErrCodeInternalError:
			c.JSON(http.StatusInternalServerError, gin.H{"received": false})
			return
		default:
			// Permanent mismatch (unknown order, no matching ledger
			// row). Ack so the gateway stops retrying, keep the trace.
			log.Warn().
				Str("event", event.Type).
				Str("order_id", event.OrderID.String()).
				Str("code", refundErr.Code).
				Err(err).
				Msg("Webhook event could not be applied")
			c.JSON(http.StatusOK, gin.H{"received": true, "applied": false})
			return
		}
	}

	log.Error().
		Str("event", event.Type).
		Str("order_id", event.OrderID.String()).
		Err(err).
		Msg("Webhook event processing failed")
	c.JSON(http.StatusInternalServerError, gin.H{"received": false})
}

func (h *WebhookHandler) dispatch(c *gin.Context, event model.WebhookEventDTO) error {
	ctx := c.Request.Context()

	switch event.Type {
	case model.WebhookEventChargeRefunded:
		// The gateway already moved the money; record without calling out.
		_, err := h.orchestrator.Refund(ctx, service.RefundCommand{
			Mode:          model.ModeBulk,
			TargetID:      event.OrderID,
			GatewayPolicy: model.GatewaySkip,
			Source:        model.SourceWebhook,
		})
		return err

	case model.WebhookEventRefundPending:
		var refundID *string
		if event.RefundID != "" {
			refundID = &event.RefundID
		}
		return h.orchestrator.RecordPendingRefund(ctx, event.OrderID, event.Amount, model.SourceWebhook, refundID)

	case model.WebhookEventRefundCanceled:
		return h.orchestrator.CancelRefund(ctx, event.OrderID, event.LedgerEntryID(), event.Amount)

	case model.WebhookEventRefundFailed:
		reason := event.Reason
		if reason == "" {
			reason = "gateway reported refund failure"
		}
		return h.orchestrator.FailRefund(ctx, event.OrderID, reason)
	}

	// Unreachable after Validate, kept for safety.
	return model.NewRefundError(model.ErrCodeInternalError, "unhandled webhook event type", nil)
}
