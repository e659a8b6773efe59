package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/shared/middleware"
	"storefront-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAdminRefundRoutes(v1, c)
		setupWebhookRoutes(v1, c)
	}

	return router
}

// ========================================
// ADMIN REFUND ROUTES
// ========================================
func setupAdminRefundRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(c.JWTManager),
		middleware.AdminMiddleware(),
	)
	{
		// Refund one approved return
		admin.POST("/returns/:return_id/refund", c.RefundHandler.RefundReturn)

		// Order-scoped refund operations
		admin.POST("/orders/:order_id/refund", c.RefundHandler.RefundOrder)
		admin.POST("/orders/:order_id/refunds/manual", c.RefundHandler.CreateManualRefund)
		admin.POST("/orders/:order_id/refunds/cancel", c.RefundHandler.CancelRefund)
		admin.POST("/orders/:order_id/refunds/fail", c.RefundHandler.FailRefund)
		admin.POST("/orders/:order_id/refunds/recalculate", c.RefundHandler.RecalculateOrder)
		admin.GET("/orders/:order_id/refunds", c.RefundHandler.ListOrderLedger)

		// Ledger listing with order/user/return context
		admin.GET("/refunds", c.RefundHandler.ListLedger)
	}
}

// ========================================
// WEBHOOK ROUTES
// ========================================
func setupWebhookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	webhooks := v1.Group("/webhooks")
	webhooks.Use(middleware.WebhookSignature(c.Config.Gateway.WebhookKey))
	{
		webhooks.POST("/gateway", c.WebhookHandler.HandleGatewayEvent)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := http.StatusOK
		checks := gin.H{}

		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = err.Error()
		} else {
			checks["database"] = "ok"
		}

		if err := c.Redis.HealthCheck(ctx.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}

		ctx.JSON(status, gin.H{
			"status":  http.StatusText(status),
			"version": c.Config.App.Version,
			"time":    time.Now().UTC().Format(time.RFC3339),
			"checks":  checks,
		})
	}
}
