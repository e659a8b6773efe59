package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"storefront-backend/internal/domains/refund/model"
	"storefront-backend/internal/domains/refund/repository"
	"storefront-backend/internal/shared/utils"
	"storefront-backend/pkg/logger"
)

type RefundCompletedHandler struct {
	auditRepo repository.AuditRepoInterface
}

func NewRefundCompletedHandler(auditRepo repository.AuditRepoInterface) *RefundCompletedHandler {
	return &RefundCompletedHandler{
		auditRepo: auditRepo,
	}
}

func (h *RefundCompletedHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.RefundCompletedPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	logger.Info("Processing refund completed task", map[string]interface{}{
		"order_id": payload.OrderID,
		"amount":   payload.Amount,
		"entries":  len(payload.EntryIDs),
	})

	event := "refund.completed"
	if payload.FullRefund {
		event = "refund.completed.full"
	}

	detail := fmt.Sprintf("source=%s entries=%d processed_at=%s",
		payload.Source, len(payload.EntryIDs), payload.ProcessedAt)

	err := h.auditRepo.Record(ctx, &model.AuditEntry{
		ID:         uuid.New(),
		OrderID:    payload.OrderID,
		Event:      event,
		Amount:     payload.Amount,
		Detail:     detail,
		RecordedAt: time.Now(),
	})
	if err != nil {
		logger.Error("Failed to record refund audit entry", err)
		return fmt.Errorf("record audit entry: %w", err)
	}

	return nil
}
