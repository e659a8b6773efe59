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

type RefundFailedHandler struct {
	auditRepo repository.AuditRepoInterface
}

func NewRefundFailedHandler(auditRepo repository.AuditRepoInterface) *RefundFailedHandler {
	return &RefundFailedHandler{
		auditRepo: auditRepo,
	}
}

func (h *RefundFailedHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.RefundFailedPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	logger.Info("Processing refund failed task", map[string]interface{}{
		"order_id": payload.OrderID,
		"amount":   payload.Amount,
		"reason":   payload.Reason,
	})

	err := h.auditRepo.Record(ctx, &model.AuditEntry{
		ID:         uuid.New(),
		OrderID:    payload.OrderID,
		Event:      "refund.failed",
		Amount:     payload.Amount,
		Detail:     fmt.Sprintf("source=%s reason=%s", payload.Source, payload.Reason),
		RecordedAt: time.Now(),
	})
	if err != nil {
		logger.Error("Failed to record refund audit entry", err)
		return fmt.Errorf("record audit entry: %w", err)
	}

	return nil
}
