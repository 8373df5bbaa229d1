package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/metrics"
	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/service"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/logger"
)

// WebhookHandler handles Stripe webhook events. Every verified event is
// acknowledged 200 whether or not reconciliation succeeds; Stripe retries on
// anything else and the pending-only guard makes retries harmless.
type WebhookHandler struct {
	paymentService service.PaymentService
	webhookSecret  string
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(paymentService service.PaymentService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
		webhookSecret:  webhookSecret,
	}
}

// HandleStripeWebhook handles POST /webhooks/stripe
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.ErrorCtx(ctx, "failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		logger.WarnCtx(ctx, "missing Stripe-Signature header")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing Stripe-Signature header"})
		return
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, h.webhookSecret)
	if err != nil {
		logger.ErrorCtx(ctx, "failed to verify webhook signature", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	metrics.RecordWebhookReceived(ctx, string(event.Type))

	var externalStatus string
	switch event.Type {
	case "payment_intent.succeeded":
		externalStatus = service.IntentStatusSucceeded
	case "payment_intent.payment_failed":
		externalStatus = service.IntentStatusFailed
	case "payment_intent.canceled":
		externalStatus = service.IntentStatusCanceled
	default:
		logger.InfoCtx(ctx, "unhandled webhook event type",
			zap.String("event_type", string(event.Type)),
		)
		c.JSON(http.StatusOK, gin.H{"received": true, "message": "event type not handled"})
		return
	}

	var paymentIntent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
		logger.ErrorCtx(ctx, "failed to parse payment intent event",
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		metrics.RecordWebhookFailed(ctx, string(event.Type), "parse_error")
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse event data"})
		return
	}

	failureReason := ""
	if paymentIntent.LastPaymentError != nil {
		failureReason = paymentIntent.LastPaymentError.Msg
	}

	payment, err := h.paymentService.HandleIntentEvent(ctx, paymentIntent.ID, externalStatus, failureReason)
	if err != nil {
		// Acknowledge anyway: the confirmation poll can still reconcile, and
		// a retried delivery hits the same pending-only guard
		logger.ErrorCtx(ctx, "failed to reconcile webhook event",
			zap.String("event_type", string(event.Type)),
			zap.String("intent_id", paymentIntent.ID),
			zap.Error(err),
		)
		metrics.RecordWebhookFailed(ctx, string(event.Type), "reconcile_error")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	metrics.RecordWebhookProcessed(ctx, string(event.Type), time.Since(start).Seconds())
	logger.InfoCtx(ctx, "webhook processed",
		zap.String("event_type", string(event.Type)),
		zap.String("payment_id", payment.ID),
		zap.String("status", string(payment.Status)),
	)

	c.JSON(http.StatusOK, gin.H{"received": true})
}
