package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/telemetry"
)

var (
	// Reservation counters
	SeatsReserved   *telemetry.Counter
	SeatsBooked     *telemetry.Counter
	SeatsReleased   *telemetry.Counter
	HoldsExpired    *telemetry.Counter
	ReserveConflict *telemetry.Counter

	// Payment counters
	PaymentIntentsCreated *telemetry.Counter
	PaymentsSucceeded     *telemetry.Counter
	PaymentsFailed        *telemetry.Counter
	PaymentsCancelled     *telemetry.Counter

	// Webhook counters
	WebhooksReceived  *telemetry.Counter
	WebhooksProcessed *telemetry.Counter
	WebhooksFailed    *telemetry.Counter

	// Membership counters
	MembershipsActivated *telemetry.Counter
	MembershipsCancelled *telemetry.Counter
	MembershipsExpired   *telemetry.Counter

	// Error tracking
	ErrorsTotal *telemetry.Counter

	// Histograms
	ReconcileDuration     *telemetry.Histogram
	WebhookProcessingTime *telemetry.Histogram
	PaymentAmount         *telemetry.Histogram
	RequestDuration       *telemetry.Histogram

	// Gauges
	PendingPayments *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	SeatsReserved, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "seats_reserved_total",
		Description: "Total number of seat holds placed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SeatsBooked, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "seats_booked_total",
		Description: "Total number of seats booked",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SeatsReleased, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "seats_released_total",
		Description: "Total number of holds voluntarily released",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldsExpired, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "seat_holds_expired_total",
		Description: "Total number of lapsed holds swept back to available",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReserveConflict, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "seat_reserve_conflicts_total",
		Description: "Total number of reserve attempts that lost the seat",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentIntentsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payment_intents_created_total",
		Description: "Total number of payment intents created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsSucceeded, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payments_succeeded_total",
		Description: "Total number of payments reconciled as succeeded",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payments_failed_total",
		Description: "Total number of payments reconciled as failed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	PaymentsCancelled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "payments_cancelled_total",
		Description: "Total number of payments reconciled as cancelled",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WebhooksReceived, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "webhooks_received_total",
		Description: "Total number of webhooks received",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WebhooksProcessed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "webhooks_processed_total",
		Description: "Total number of webhooks successfully processed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WebhooksFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "webhooks_failed_total",
		Description: "Total number of webhooks that failed processing",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	MembershipsActivated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "memberships_activated_total",
		Description: "Total number of memberships activated",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	MembershipsCancelled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "memberships_cancelled_total",
		Description: "Total number of memberships cancelled",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	MembershipsExpired, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "memberships_expired_total",
		Description: "Total number of memberships expired by the worker",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ErrorsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "errors_total",
		Description: "Total number of errors by type",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReconcileDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "payment_reconcile_duration_seconds",
		Description: "Duration of payment reconciliation",
		Unit:        "s",
	}, []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5})
	if err != nil {
		return err
	}

	WebhookProcessingTime, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "webhook_processing_seconds",
		Description: "Webhook processing duration",
		Unit:        "s",
	}, []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5})
	if err != nil {
		return err
	}

	PaymentAmount, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "payment_amount_pence",
		Description: "Payment amounts distribution in minor units",
		Unit:        "1",
	}, []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000})
	if err != nil {
		return err
	}

	RequestDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "http_request_duration_seconds",
		Description: "HTTP request duration in seconds",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})
	if err != nil {
		return err
	}

	PendingPayments, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "payments_pending",
		Description: "Current number of pending payments",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordSeatReserved records a successful seat hold
func RecordSeatReserved(ctx context.Context, eventID string) {
	if SeatsReserved != nil {
		SeatsReserved.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordSeatBooked records a successful booking
func RecordSeatBooked(ctx context.Context, eventID string) {
	if SeatsBooked != nil {
		SeatsBooked.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordSeatReleased records a voluntary hold release
func RecordSeatReleased(ctx context.Context, eventID string) {
	if SeatsReleased != nil {
		SeatsReleased.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordHoldsExpired records holds swept back to the available pool
func RecordHoldsExpired(ctx context.Context, eventID string, count int64) {
	if HoldsExpired != nil && count > 0 {
		HoldsExpired.Add(ctx, count, attribute.String("event_id", eventID))
	}
}

// RecordReserveConflict records a reserve attempt that lost the seat
func RecordReserveConflict(ctx context.Context, eventID string) {
	if ReserveConflict != nil {
		ReserveConflict.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordPaymentIntentCreated records a payment intent creation
func RecordPaymentIntentCreated(ctx context.Context, planID, currency string, amount int64) {
	if PaymentIntentsCreated != nil {
		PaymentIntentsCreated.Inc(ctx,
			attribute.String("plan_id", planID),
			attribute.String("currency", currency),
		)
	}
	if PaymentAmount != nil {
		PaymentAmount.Record(ctx, float64(amount),
			attribute.String("currency", currency),
		)
	}
	if PendingPayments != nil {
		PendingPayments.Inc(ctx)
	}
}

// RecordPaymentSucceeded records a payment reconciled as succeeded
func RecordPaymentSucceeded(ctx context.Context, planID string, durationSeconds float64) {
	if PaymentsSucceeded != nil {
		PaymentsSucceeded.Inc(ctx, attribute.String("plan_id", planID))
	}
	if ReconcileDuration != nil {
		ReconcileDuration.Record(ctx, durationSeconds)
	}
	if PendingPayments != nil {
		PendingPayments.Dec(ctx)
	}
}

// RecordPaymentFailed records a payment reconciled as failed
func RecordPaymentFailed(ctx context.Context, planID, reason string) {
	if PaymentsFailed != nil {
		PaymentsFailed.Inc(ctx,
			attribute.String("plan_id", planID),
			attribute.String("reason", reason),
		)
	}
	if PendingPayments != nil {
		PendingPayments.Dec(ctx)
	}
}

// RecordPaymentCancelled records a payment reconciled as cancelled
func RecordPaymentCancelled(ctx context.Context, planID string) {
	if PaymentsCancelled != nil {
		PaymentsCancelled.Inc(ctx, attribute.String("plan_id", planID))
	}
	if PendingPayments != nil {
		PendingPayments.Dec(ctx)
	}
}

// RecordWebhookReceived records a webhook receipt
func RecordWebhookReceived(ctx context.Context, eventType string) {
	if WebhooksReceived != nil {
		WebhooksReceived.Inc(ctx, attribute.String("event_type", eventType))
	}
}

// RecordWebhookProcessed records a successfully processed webhook
func RecordWebhookProcessed(ctx context.Context, eventType string, durationSeconds float64) {
	if WebhooksProcessed != nil {
		WebhooksProcessed.Inc(ctx, attribute.String("event_type", eventType))
	}
	if WebhookProcessingTime != nil {
		WebhookProcessingTime.Record(ctx, durationSeconds,
			attribute.String("event_type", eventType),
		)
	}
}

// RecordWebhookFailed records a webhook processing failure
func RecordWebhookFailed(ctx context.Context, eventType, reason string) {
	if WebhooksFailed != nil {
		WebhooksFailed.Inc(ctx,
			attribute.String("event_type", eventType),
			attribute.String("reason", reason),
		)
	}
}

// RecordMembershipActivated records a membership activation
func RecordMembershipActivated(ctx context.Context, planID string) {
	if MembershipsActivated != nil {
		MembershipsActivated.Inc(ctx, attribute.String("plan_id", planID))
	}
}

// RecordMembershipCancelled records a membership cancellation
func RecordMembershipCancelled(ctx context.Context, reason string) {
	if MembershipsCancelled != nil {
		MembershipsCancelled.Inc(ctx, attribute.String("reason", reason))
	}
}

// RecordMembershipsExpired records memberships expired by the worker
func RecordMembershipsExpired(ctx context.Context, count int64) {
	if MembershipsExpired != nil && count > 0 {
		MembershipsExpired.Add(ctx, count)
	}
}

// RecordError records an error by type and operation
func RecordError(ctx context.Context, errorType, operation string) {
	if ErrorsTotal != nil {
		ErrorsTotal.Inc(ctx,
			attribute.String("error_type", errorType),
			attribute.String("operation", operation),
		)
	}
}

// RecordRequestDuration records HTTP request duration
func RecordRequestDuration(ctx context.Context, operation string, durationSeconds float64) {
	if RequestDuration != nil {
		RequestDuration.Record(ctx, durationSeconds,
			attribute.String("operation", operation),
		)
	}
}
