package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/repository"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/service"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/worker"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/config"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/database"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/logger"
)

// Standalone membership expiry sweeper. Safe to run alongside the API's
// in-process worker: the batch expiry update is status-guarded.
func main() {
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
		ServiceName: cfg.App.Name + "-membership-worker",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting membership expiry worker...")

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()

	var eventPublisher service.EventPublisher
	if cfg.Kafka.Enabled {
		eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID + "-membership-worker",
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka publisher init failed, notifications disabled: %v", err))
			eventPublisher = service.NewNoOpEventPublisher()
		}
	} else {
		eventPublisher = service.NewNoOpEventPublisher()
	}
	defer eventPublisher.Close()

	membershipRepo := repository.NewPostgresMembershipRepository(db)
	membershipService := service.NewMembershipService(membershipRepo, eventPublisher, &service.MembershipServiceConfig{
		ExpiringSoonDays: cfg.Membership.ExpiringSoonDays,
	})

	expiryWorker := worker.NewMembershipExpiryWorker(membershipService, eventPublisher, &worker.MembershipExpiryWorkerConfig{
		ScanInterval:       cfg.Membership.ExpiryScanInterval,
		NotifyExpiringSoon: cfg.Kafka.Enabled,
		ExpiringSoonDays:   cfg.Membership.ExpiringSoonDays,
	})
	if err := expiryWorker.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start expiry worker: %v", err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down...")
	expiryWorker.Stop()

	totalExpired, _, lastScan := expiryWorker.Stats()
	appLog.Info(fmt.Sprintf("Worker exited (total expired: %d, last scan: %s)", totalExpired, lastScan.Format(time.RFC3339)))
}
