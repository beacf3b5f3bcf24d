package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"technest-backend/internal/config"
	infraCache "technest-backend/internal/infrastructure/cache"
	"technest-backend/internal/infrastructure/database"
	"technest-backend/internal/infrastructure/queue"
	"technest-backend/pkg/cache"
	"technest-backend/pkg/jwt"

	orderHandler "technest-backend/internal/domains/order/handler"
	orderRepo "technest-backend/internal/domains/order/repository"
	orderService "technest-backend/internal/domains/order/service"
	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/gateway/bkash"
	"technest-backend/internal/domains/payment/gateway/nagad"
	"technest-backend/internal/domains/payment/gateway/payoneer"
	"technest-backend/internal/domains/payment/gateway/sslcommerz"
	"technest-backend/internal/domains/payment/gateway/stripe"
	paymentHandler "technest-backend/internal/domains/payment/handler"
	paymentRepo "technest-backend/internal/domains/payment/repository"
	paymentService "technest-backend/internal/domains/payment/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph for the api binary.
// Everything in here is a singleton for the process lifetime.
type Container struct {
	// Infrastructure
	Config     *config.Config
	DB         *database.PostgresDB
	Cache      cache.Cache
	JWTManager *jwt.Manager
	Notifier   *queue.AsynqNotifier

	// Gateway adapters, keyed by payment method name
	Adapters map[string]gateway.Adapter

	// Repositories
	OrderRepo   orderRepo.OrderRepository
	WebhookRepo paymentRepo.WebhookLogRepository

	// Services
	OrderService   orderService.OrderService
	PaymentService paymentService.PaymentService

	// Handlers
	OrderHandler   *orderHandler.OrderHandler
	PaymentHandler *paymentHandler.PaymentHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer initializes the whole graph in dependency order:
// config, then infrastructure, then repositories, services, handlers.
func NewContainer() (*Container, error) {
	log.Println("Initializing DI container...")

	c := &Container{}

	// STEP 1: configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("Config loaded (environment: %s)", cfg.App.Environment)

	// STEP 2: database
	db := database.NewPostgresDB(&cfg.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	log.Println("Database connected")

	// STEP 3: cache
	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			// Redis being down degrades caching and the replay guard but
			// never blocks startup; the database transitions still hold.
			log.Printf("WARNING: Redis connection failed (non-critical): %v", err)
		}
	}
	c.Cache = redisCache

	// STEP 4: queue client and JWT
	c.Notifier = queue.NewAsynqNotifier(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// STEP 5: gateway adapters
	c.Adapters = map[string]gateway.Adapter{
		"sslcommerz": sslcommerz.New(cfg.SSLCommerz, cfg.Payment.GatewayTimeout),
		"stripe":     stripe.New(cfg.Stripe, cfg.Payment.GatewayTimeout),
		"bkash":      bkash.New(cfg.Bkash, cfg.Payment.GatewayTimeout),
		"nagad":      nagad.New(cfg.Nagad),
		"payoneer":   payoneer.New(cfg.Payoneer),
	}

	// STEP 6: repositories
	c.OrderRepo = orderRepo.NewOrderRepository(db.Pool)
	c.WebhookRepo = paymentRepo.NewWebhookLogRepository(db.Pool)

	// STEP 7: services
	c.OrderService = orderService.NewOrderService(
		c.OrderRepo,
		c.Cache,
		c.Notifier,
		cfg.Payment.StaleOrderThreshold,
		cfg.Payment.StaleOrderBatchSize,
	)
	c.PaymentService = paymentService.NewPaymentService(
		c.OrderRepo,
		c.WebhookRepo,
		c.Cache,
		c.Notifier,
		c.Adapters,
		cfg.Payment.GatewayTimeout,
	)

	// STEP 8: handlers
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService, c.WebhookRepo)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService, cfg.App.FrontendURL)

	log.Println("DI container ready")
	return c, nil
}

// Close releases infrastructure resources in reverse order.
func (c *Container) Close() {
	if c.Notifier != nil {
		if err := c.Notifier.Close(); err != nil {
			log.Printf("Failed to close queue client: %v", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	log.Println("Container closed")
}
