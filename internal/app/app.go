// Package app wires configuration, storage and transport into a Fiber app.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"maplestore/internal/cache"
	"maplestore/internal/config"
	"maplestore/internal/events"
	"maplestore/internal/handlers"
	"maplestore/internal/metrics"
	"maplestore/internal/middleware"
	"maplestore/internal/repositories"
	"maplestore/internal/services"
	"maplestore/internal/shipping"
	"maplestore/pkg/docgen"
	"maplestore/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// App is the assembled storefront.
type App struct {
	Fiber       *fiber.App
	DB          *gorm.DB
	AuthService *services.AuthService
	MQ          *rabbitmq.Client
	Notifier    *events.Notifier
}

// New connects to the configured backends and registers every route.
func New(cfg *config.Config) (*App, error) {
	db, err := repositories.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := repositories.Migrate(db); err != nil {
		return nil, err
	}

	a := &App{DB: db}

	var publisher events.Publisher = events.LogPublisher{}
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:        cfg.RabbitMQURL,
			Exchange:   cfg.RabbitMQExchange,
			Queue:      cfg.RabbitMQQueue,
			BindingKey: "order.#",
		})
		if err != nil {
			return nil, err
		}
		a.MQ = mq
		publisher = events.NewAMQPPublisher(mq)
		a.Notifier = events.NewNotifier(events.LogSender{}, cfg.AdminEmail)
	} else {
		log.Println("RABBITMQ_URL not set, order events will only be logged")
	}

	var productCache cache.Cache
	if cfg.RedisAddr != "" {
		productCache = cache.NewRedisCache(cfg.RedisAddr, "maplestore")
	}

	m := metrics.New("maplestore")
	estimator := shipping.NewEstimator(cfg.Shipping)

	// --- Repositories ---
	tx := repositories.NewTxManager(db)
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Services ---
	a.AuthService = services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenDuration)
	productService := services.NewProductService(productRepo, productCache, cfg.CacheTTL)
	cartService := services.NewCartService(tx, cartRepo, productRepo, m)
	checkoutService := services.NewCheckoutService(tx, cartRepo, productRepo, orderRepo, estimator, publisher, m)
	orderService := services.NewOrderService(orderRepo, publisher, m)
	receiptService := services.NewReceiptService(orderService, docgen.NewClient(docgen.Config{
		BaseURL: cfg.ReceiptURL,
		Timeout: cfg.ReceiptTimeout,
	}))

	if err := seed(context.Background(), cfg, a.AuthService, productRepo); err != nil {
		return nil, err
	}

	// --- Fiber ---
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"rabbitmq": "disabled",
		}
		if a.MQ != nil {
			status["rabbitmq"] = "connected"
		}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status["status"] = "degraded"
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		return c.JSON(status)
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	apiV1 := app.Group("/api/v1")

	// Public routes must be registered before the authenticated group.
	handlers.NewAuthHandler(a.AuthService).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1)
	handlers.NewShippingHandler(estimator).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(a.AuthService))
	handlers.NewCartHandler(cartService).RegisterRoutes(protected)
	handlers.NewOrderHandler(checkoutService, orderService, receiptService).RegisterRoutes(protected)
	handlers.NewAdminHandler(productService, orderService).RegisterRoutes(protected)

	a.Fiber = app
	return a, nil
}

// StartConsumers begins delivering order events to the notifier.
func (a *App) StartConsumers() error {
	if a.MQ == nil {
		return nil
	}
	if err := a.MQ.Consume(a.Notifier.HandleDelivery); err != nil {
		return fmt.Errorf("failed to start order notification consumer: %w", err)
	}
	return nil
}

// Close releases the broker and database connections.
func (a *App) Close() {
	if a.MQ != nil {
		if err := a.MQ.Close(); err != nil {
			log.Printf("Error closing RabbitMQ client: %v", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
}
