package main

import (
	"github.com/hibiken/asynq"

	refundJob "storefront-backend/internal/domains/refund/job"
	"storefront-backend/internal/domains/refund/model"
	"storefront-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	refundCompleted *refundJob.RefundCompletedHandler
	refundFailed    *refundJob.RefundFailedHandler
	refundCancelled *refundJob.RefundCancelledHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		refundCompleted: refundJob.NewRefundCompletedHandler(c.AuditRepo),
		refundFailed:    refundJob.NewRefundFailedHandler(c.AuditRepo),
		refundCancelled: refundJob.NewRefundCancelledHandler(c.AuditRepo),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(model.TaskRefundCompleted, h.refundCompleted.ProcessTask)
	mux.HandleFunc(model.TaskRefundFailed, h.refundFailed.ProcessTask)
	mux.HandleFunc(model.TaskRefundCancelled, h.refundCancelled.ProcessTask)
}
