package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/config"
	orderrepo "storefront-backend/internal/domains/order/repository"
	"storefront-backend/internal/domains/refund/gateway/stripe"
	refundhandler "storefront-backend/internal/domains/refund/handler"
	refundrepo "storefront-backend/internal/domains/refund/repository"
	refundservice "storefront-backend/internal/domains/refund/service"
	"storefront-backend/internal/infrastructure/cache"
	"storefront-backend/internal/infrastructure/database"
	"storefront-backend/pkg/jwt"
	"storefront-backend/pkg/lock"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. Everything in it is a
// singleton wired once at startup.
type Container struct {
	// Infrastructure
	Config      *config.Config
	DB          *database.PostgresDB
	Redis       *cache.RedisClient
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client

	// Repositories
	OrderRepo  orderrepo.OrderRepository
	TxManager  orderrepo.TransactionManager
	LedgerRepo refundrepo.LedgerRepoInterface
	AuditRepo  refundrepo.AuditRepoInterface

	// Domain services
	OrderLocker  lock.OrderLocker
	Gateway      refundservice.PaymentGateway
	Orchestrator refundservice.RefundOrchestrator
	QueryService refundservice.RefundQueryService

	// HTTP handlers
	RefundHandler  *refundhandler.RefundHandler
	WebhookHandler *refundhandler.WebhookHandler
}

// NewContainer builds the whole dependency graph in order: config,
// infrastructure, repositories, services, handlers.
func NewContainer() (*Container, error) {
	log.Println("[CONTAINER] Initializing...")

	c := &Container{}

	// Step 1: configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	// Step 2: PostgreSQL
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db

	// Step 3: Redis. The refund engine depends on it for the per-order
	// lock, so a failed connection is fatal here, unlike a cache.
	redisClient := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Connect(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Redis = redisClient

	// Step 4: shared components
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Step 5: repositories
	c.OrderRepo = orderrepo.NewOrderRepository(db.Pool)
	c.TxManager = orderrepo.NewPostgresTransactionManager(db.Pool)
	c.LedgerRepo = refundrepo.NewLedgerRepository(db.Pool)
	c.AuditRepo = refundrepo.NewAuditRepository(db.Pool)

	// Step 6: domain services
	c.OrderLocker = lock.NewRedisOrderLocker(redisClient.Client, cfg.Lock.TTL)

	gatewayClient, err := stripe.NewClient(stripe.NewConfig(
		cfg.Gateway.APIURL,
		cfg.Gateway.SecretKey,
		cfg.Gateway.Timeout,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway client: %w", err)
	}
	c.Gateway = refundservice.NewValidatingGateway(gatewayClient, c.LedgerRepo)

	c.Orchestrator = refundservice.NewRefundOrchestrator(
		c.OrderRepo,
		c.LedgerRepo,
		c.TxManager,
		c.Gateway,
		c.OrderLocker,
		c.AsynqClient,
	)
	c.QueryService = refundservice.NewRefundQueryService(c.LedgerRepo, c.OrderRepo)

	// Step 7: handlers
	c.RefundHandler = refundhandler.NewRefundHandler(c.Orchestrator, c.QueryService)
	c.WebhookHandler = refundhandler.NewWebhookHandler(c.Orchestrator)

	log.Println("[CONTAINER] Initialized successfully")
	return c, nil
}

// Cleanup releases container resources during shutdown.
func (c *Container) Cleanup() {
	log.Println("[CONTAINER] Cleaning up...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("[CONTAINER] Failed to close asynq client: %v", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("[CONTAINER] Failed to close redis: %v", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Println("[CONTAINER] Cleanup completed")
}
