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

type RefundCancelledHandler struct {
	auditRepo repository.AuditRepoInterface
}

func NewRefundCancelledHandler(auditRepo repository.AuditRepoInterface) *RefundCancelledHandler {
	return &RefundCancelledHandler{
		auditRepo: auditRepo,
	}
}

func (h *RefundCancelledHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.RefundCancelledPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	logger.Info("Processing refund cancelled task", map[string]interface{}{
		"order_id": payload.OrderID,
		"entry_id": payload.EntryID,
		"amount":   payload.Amount,
	})

	err := h.auditRepo.Record(ctx, &model.AuditEntry{
		ID:         uuid.New(),
		OrderID:    payload.OrderID,
		Event:      "refund.cancelled",
		Amount:     payload.Amount,
		Detail:     fmt.Sprintf("source=%s entry_id=%s", payload.Source, payload.EntryID),
		RecordedAt: time.Now(),
	})
	if err != nil {
		logger.Error("Failed to record refund audit entry", err)
		return fmt.Errorf("record audit entry: %w", err)
	}

	return nil
}
