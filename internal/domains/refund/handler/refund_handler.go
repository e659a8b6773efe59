package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/internal/domains/refund/model"
	"storefront-backend/internal/domains/refund/service"
	"storefront-backend/internal/shared/response"
)

type RefundHandler struct {
	orchestrator service.RefundOrchestrator
	queryService service.RefundQueryService
}

// NewRefundHandler creates new refund handler
func NewRefundHandler(
	orchestrator service.RefundOrchestrator,
	queryService service.RefundQueryService,
) *RefundHandler {
	return &RefundHandler{
		orchestrator: orchestrator,
		queryService: queryService,
	}
}

// =====================================================
// ADMIN REFUND ENDPOINTS
// =====================================================

// RefundReturn refunds one approved return
// POST /api/v1/admin/returns/:return_id/refund
func (h *RefundHandler) RefundReturn(c *gin.Context) {
	// Step 1: Get return ID from URL
	returnID, err := uuid.Parse(c.Param("return_id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_RETURN_ID", "Invalid return ID")
		return
	}

	// Step 2: Bind request body (optional)
	var req model.RefundRequestDTO
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	// Step 3: Call orchestrator
	result, err := h.orchestrator.Refund(c.Request.Context(), service.RefundCommand{
		Mode:     model.ModeSingleItem,
		TargetID: returnID,
		Source:   sourceOrDefault(req.Source, model.SourceAdmin),
		Notes:    req.Notes,
	})
	if err != nil {
		statusCode, errCode, message := mapRefundError(err)
		response.ErrorResponse(c, statusCode, errCode, message)
		return
	}

	// Step 4: Return response
	response.Success(c, http.StatusOK, result)
}

// RefundOrder refunds every approved return on an order
// POST /api/v1/admin/orders/:order_id/refund
func (h *RefundHandler) RefundOrder(c *gin.Context) {
	// Step 1: Get order ID from URL
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ORDER_ID", "Invalid order ID")
		return
	}

	// Step 2: Bind request body (optional)
	var req model.RefundRequestDTO
	if c.Request.ContentLength > 0 {
		if err := bindJSON(c, &req); err != nil {
			response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	// Step 3: Call orchestrator
	result, err := h.orchestrator.Refund(c.Request.Context(), service.RefundCommand{
		Mode:     model.ModeBulk,
		TargetID: orderID,
		Source:   sourceOrDefault(req.Source, model.SourceAdmin),
		Notes:    req.Notes,
	})
	if err != nil {
		statusCode, errCode, message := mapRefundError(err)
		response.ErrorResponse(c, statusCode, errCode, message)
		return
	}

	// Step 4: Return response
	response.Success(c, http.StatusOK, result)
}

// CreateManualRefund reconciles an externally issued refund
// POST /api/v1/admin/orders/:order_id/refunds/manual
func (h *RefundHandler) CreateManualRefund(c *gin.Context) {
	// Step 1: Get order ID from URL
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ORDER_ID", "Invalid order ID")
		return
	}

	// Step 2: Bind request body
	var req model.ManualRefundRequestDTO
	if err := bindJSON(c, &req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Step 3: Validate request
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	// Step 4: Call orchestrator
	result, err := h.orchestrator.CreateManualRefund(
		c.Request.Context(),
		orderID,
		req.Amount,
		req.Notes,
		sourceOrDefault(req.Source, model.SourceManual),
	)
	if err != nil {
		statusCode, errCode, message := mapRefundError(err)
		response.ErrorResponse(c, statusCode, errCode, message)
		return
	}

	// Step 5: Return response
	response.Success(c, http.StatusCreated, result)
}

// CancelRefund reverses a settled refund
// POST /api/v1/admin/orders/:order_id/refunds/cancel
func (h *RefundHandler) CancelRefund(c *gin.Context) {
	// Step 1: Get order ID from URL
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ORDER_ID", "Invalid order ID")
		return
	}

	// Step 2: Bind request body
	var req model.CancelRefundRequestDTO
	if err := bindJSON(c, &req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Step 3: Validate request
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	// Step 4: Call orchestrator
	if err := h.orchestrator.CancelRefund(c.Request.Context(), orderID, req.LedgerEntryID, req.Amount); err != nil {
		statusCode, errCode, message := mapRefundError(err)
		response.ErrorResponse(c, statusCode, errCode, message)
		return
	}

	// Step 5: Return response
	response.Success(c, http.StatusOK, gin.H{"cancelled": true})
}

// FailRefund marks every pending ledger entry failed
// POST /api/v1/admin/orders/:order_id/refunds/fail
func (h *RefundHandler) FailRefund(c *gin.Context) {
	// Step 1: Get order ID from URL
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ORDER_ID", "Invalid order ID")
		return
	}

	// Step 2: Bind request body
	var req model.FailRefundRequestDTO
	if err := bindJSON(c, &req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Step 3: Validate request
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	// Step 4: Call orchestrator
	if err := h.orchestrator.FailRefund(c.Request.Context(), orderID, req.Reason); err != nil {
		statusCode, errCode, message := mapRefundError(err)
		response.ErrorResponse(c, statusCode, errCode, message)
		return
	}

	// Step 5: Return response
	response.Success(c, http.StatusOK, gin.H{"failed": true})
}

// RecalculateOrder rebuilds order/payment status from the ledger
// POST /api/v1/admin/orders/:order_id/refunds/recalculate
func (h *RefundHandler) RecalculateOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ORDER_ID", "Invalid order ID")
		return
	}

	if err := h.orchestrator.RecalculateOrderStatus(c.Request.Context(), orderID); err != nil {
		statusCode, errCode, message := mapRefundError(err)
		response.ErrorResponse(c, statusCode, errCode, message)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"recalculated": true})
}

// =====================================================
// ADMIN LEDGER LISTING
// =====================================================

// ListLedger lists ledger entries with order/user/return context
// GET /api/v1/admin/refunds
func (h *RefundHandler) ListLedger(c *gin.Context) {
	// Step 1: Parse filters
	var filters model.LedgerListFilters
	if raw := c.Query("order_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ORDER_ID", "Invalid order ID filter")
			return
		}
		filters.OrderID = &id
	}
	if raw := c.Query("status"); raw != "" {
		if !validLedgerStatus(raw) {
			response.ErrorResponse(c, http.StatusBadRequest, "INVALID_STATUS", "Invalid status filter")
			return
		}
		filters.Status = &raw
	}

	// Step 2: Parse pagination
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	// Step 3: Call query service
	rows, total, err := h.queryService.ListLedger(c.Request.Context(), filters, page, limit)
	if err != nil {
		statusCode, errCode, message := mapRefundError(err)
		response.ErrorResponse(c, statusCode, errCode, message)
		return
	}

	// Step 4: Return response with pagination meta
	response.SuccessWithMeta(c, http.StatusOK, rows, &response.Meta{
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// ListOrderLedger lists the raw ledger for one order
// GET /api/v1/admin/orders/:order_id/refunds
func (h *RefundHandler) ListOrderLedger(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ORDER_ID", "Invalid order ID")
		return
	}

	entries, err := h.queryService.ListOrderLedger(c.Request.Context(), orderID)
	if err != nil {
		statusCode, errCode, message := mapRefundError(err)
		response.ErrorResponse(c, statusCode, errCode, message)
		return
	}

	response.Success(c, http.StatusOK, entries)
}

// =====================================================
// ERROR MAPPING HELPER
// =====================================================

// mapRefundError translates domain errors into HTTP responses.
// Reconciliation failures and unknown errors return a generic 500
// message so internal ledger detail never leaks to API clients.
func mapRefundError(err error) (statusCode int, errorCode, message string) {
	refundErr, ok := err.(*model.RefundError)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}

	switch refundErr.Code {
	case model.ErrCodeOrderNotFound, model.ErrCodeReturnNotFound, model.ErrCodeLedgerRowNotFound:
		return http.StatusNotFound, refundErr.Code, refundErr.Message
	case model.ErrCodeOrderBusy:
		return http.StatusConflict, refundErr.Code, refundErr.Message
	case model.ErrCodeGatewayDeclined, model.ErrCodeGatewayTimeout:
		return http.StatusUnprocessableEntity, refundErr.Code, refundErr.Message
	case model.ErrCodeOverRefunded, model.ErrCodeInternalError:
		return http.StatusInternalServerError, refundErr.Code, "Internal server error"
	default:
		// Remaining codes are precondition rejections
		return http.StatusBadRequest, refundErr.Code, refundErr.Message
	}
}

// =====================================================
// HELPER FUNCTIONS
// =====================================================

// bindJSON binds JSON request body
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func sourceOrDefault(source, fallback string) string {
	if source == "" {
		return fallback
	}
	return source
}

func validLedgerStatus(status string) bool {
	for _, s := range model.ValidLedgerStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil || v < 1 {
		return fallback
	}
	return v
}
