package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/di"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/gateway"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/metrics"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/service"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/worker"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/config"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/database"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/logger"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/middleware"
	pkgredis "github.com/Faisalaliarain/the-house-of-koko-backend/pkg/redis"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/telemetry"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := "info"
	if cfg.App.Debug {
		logLevel = "debug"
	}
	if err := logger.Init(&logger.Config{
		Level:       logLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info(fmt.Sprintf("Starting %s v%s (%s)", cfg.App.Name, cfg.App.Version, cfg.App.Environment))

	ctx := context.Background()

	// Initialize telemetry
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry init failed: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Initialize database connection
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", cfg.Database.MaxIdleConns, cfg.Database.MaxOpenConns))

	// Initialize Redis connection
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: time.Second,
	})
	if err != nil {
		// Idempotency degrades to fail-open without Redis
		appLog.Warn(fmt.Sprintf("Redis connection failed: %v", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info(fmt.Sprintf("Redis connected (%s)", cfg.Redis.Addr()))
	}

	// Select payment gateway
	var paymentGateway gateway.PaymentGateway
	if cfg.Stripe.SecretKey != "" {
		paymentGateway, err = gateway.NewStripeGateway(&gateway.StripeGatewayConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
		})
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Failed to create Stripe gateway: %v", err))
		}
		appLog.Info("Using Stripe payment gateway")
	} else {
		if cfg.IsProduction() {
			appLog.Fatal("STRIPE_SECRET_KEY is required in production")
		}
		paymentGateway = gateway.NewMockGateway(nil)
		appLog.Warn("STRIPE_SECRET_KEY not set, using mock payment gateway")
	}

	// Event publisher
	var eventPublisher service.EventPublisher
	if cfg.Kafka.Enabled {
		eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka publisher init failed, notifications disabled: %v", err))
			eventPublisher = service.NewNoOpEventPublisher()
		} else {
			appLog.Info("Kafka event publisher connected")
		}
	} else {
		eventPublisher = service.NewNoOpEventPublisher()
	}
	defer eventPublisher.Close()

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		PaymentGateway: paymentGateway,
		EventPublisher: eventPublisher,
		ReservationConfig: &service.ReservationServiceConfig{
			HoldTTL: cfg.Reservation.HoldTTL,
		},
		PaymentConfig: &service.PaymentServiceConfig{
			MembershipTermDays: cfg.Membership.TermDays,
		},
		MembershipConfig: &service.MembershipServiceConfig{
			ExpiringSoonDays: cfg.Membership.ExpiringSoonDays,
		},
		StripeWebhookSecret: cfg.Stripe.WebhookSecret,
	})

	// Membership expiry sweeper runs in-process alongside the API
	expiryWorker := worker.NewMembershipExpiryWorker(container.MembershipService, eventPublisher, &worker.MembershipExpiryWorkerConfig{
		ScanInterval:       cfg.Membership.ExpiryScanInterval,
		NotifyExpiringSoon: cfg.Kafka.Enabled,
		ExpiringSoonDays:   cfg.Membership.ExpiringSoonDays,
	})
	if err := expiryWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start expiry worker: %v", err))
	}
	defer expiryWorker.Stop()

	router := setupRouter(cfg, container, redisClient)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		appLog.Info(fmt.Sprintf("Listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, container *di.Container, redisClient *pkgredis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	v1 := router.Group("/api/v1")

	// Webhooks are authenticated by signature, not JWT
	v1.POST("/webhooks/stripe", container.WebhookHandler.HandleStripeWebhook)

	authed := v1.Group("")
	authed.Use(middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret: cfg.JWT.Secret,
	}))

	events := authed.Group("/events")
	{
		events.GET("/:id/seats", container.SeatHandler.ListSeats)
		events.POST("/:id/seats/:number/reserve", container.SeatHandler.ReserveSeat)
		events.POST("/:id/seats/:number/book", container.SeatHandler.BookSeat)
		events.POST("/:id/seats/:number/release", container.SeatHandler.ReleaseSeat)
	}

	payments := authed.Group("/payments")
	{
		if redisClient != nil {
			idempotencyConfig := middleware.DefaultIdempotencyConfig(redisClient)
			payments.POST("/intent", middleware.IdempotencyMiddleware(idempotencyConfig), container.PaymentHandler.CreatePaymentIntent)
		} else {
			payments.POST("/intent", container.PaymentHandler.CreatePaymentIntent)
		}
		payments.POST("/:id/confirm", container.PaymentHandler.ConfirmPayment)
		payments.GET("/:id", container.PaymentHandler.GetPayment)
		payments.GET("", container.PaymentHandler.GetUserPayments)
	}

	memberships := authed.Group("/memberships")
	{
		memberships.GET("/status", container.MembershipHandler.GetStatus)
		memberships.GET("/expiring", container.MembershipHandler.GetExpiring)
		memberships.POST("/:id/cancel", container.MembershipHandler.Cancel)
		memberships.POST("/:id/suspend", container.MembershipHandler.Suspend)
		memberships.POST("/:id/reactivate", container.MembershipHandler.Reactivate)
		memberships.POST("/:id/extend", container.MembershipHandler.Extend)
	}

	return router
}
