package di

import (
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/gateway"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/handler"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/repository"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/service"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/database"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Gateways
	PaymentGateway gateway.PaymentGateway

	// Repositories
	EventRepo      repository.EventRepository
	PaymentRepo    repository.PaymentRepository
	MembershipRepo repository.MembershipRepository
	UserRepo       repository.UserRepository
	PlanRepo       repository.PlanRepository

	// Services
	ReservationService service.ReservationService
	PaymentService     service.PaymentService
	MembershipService  service.MembershipService
	EventPublisher     service.EventPublisher

	// Handlers
	HealthHandler     *handler.HealthHandler
	SeatHandler       *handler.SeatHandler
	PaymentHandler    *handler.PaymentHandler
	MembershipHandler *handler.MembershipHandler
	WebhookHandler    *handler.WebhookHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	PaymentGateway gateway.PaymentGateway
	EventPublisher service.EventPublisher

	ReservationConfig *service.ReservationServiceConfig
	PaymentConfig     *service.PaymentServiceConfig
	MembershipConfig  *service.MembershipServiceConfig

	StripeWebhookSecret string
}

// NewContainer wires repositories, services and handlers together
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		PaymentGateway: cfg.PaymentGateway,
		EventPublisher: cfg.EventPublisher,
	}

	if c.EventPublisher == nil {
		c.EventPublisher = service.NewNoOpEventPublisher()
	}

	c.EventRepo = repository.NewPostgresEventRepository(cfg.DB)
	c.PaymentRepo = repository.NewPostgresPaymentRepository(cfg.DB)
	c.MembershipRepo = repository.NewPostgresMembershipRepository(cfg.DB)
	c.UserRepo = repository.NewPostgresUserRepository(cfg.DB)
	c.PlanRepo = repository.NewPostgresPlanRepository(cfg.DB)

	c.ReservationService = service.NewReservationService(c.EventRepo, cfg.ReservationConfig)
	c.PaymentService = service.NewPaymentService(
		c.PaymentRepo,
		c.MembershipRepo,
		c.UserRepo,
		c.PlanRepo,
		c.PaymentGateway,
		c.EventPublisher,
		cfg.PaymentConfig,
	)
	c.MembershipService = service.NewMembershipService(c.MembershipRepo, c.EventPublisher, cfg.MembershipConfig)

	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.SeatHandler = handler.NewSeatHandler(c.ReservationService)
	c.PaymentHandler = handler.NewPaymentHandler(c.PaymentService)
	c.MembershipHandler = handler.NewMembershipHandler(c.MembershipService)
	c.WebhookHandler = handler.NewWebhookHandler(c.PaymentService, cfg.StripeWebhookSecret)

	return c
}
