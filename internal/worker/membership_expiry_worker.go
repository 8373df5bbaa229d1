package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faisalaliarain/the-house-of-koko-backend/internal/service"
	"github.com/Faisalaliarain/the-house-of-koko-backend/pkg/logger"
)

// MembershipExpiryWorkerConfig contains configuration for the expiry worker
type MembershipExpiryWorkerConfig struct {
	// ScanInterval is the interval between expiry scans
	ScanInterval time.Duration
	// NotifyExpiringSoon enables renewal-notice publishing on each scan
	NotifyExpiringSoon bool
	// ExpiringSoonDays is the renewal-notice window in days
	ExpiringSoonDays int
}

// DefaultMembershipExpiryWorkerConfig returns default configuration
func DefaultMembershipExpiryWorkerConfig() *MembershipExpiryWorkerConfig {
	return &MembershipExpiryWorkerConfig{
		ScanInterval:       time.Hour,
		NotifyExpiringSoon: false,
		ExpiringSoonDays:   7,
	}
}

// MembershipExpiryWorker periodically flips memberships past their end date
// to expired. The batch update is status-guarded, so overlapping workers
// never double-count.
type MembershipExpiryWorker struct {
	membershipService service.MembershipService
	eventPublisher    service.EventPublisher
	config            *MembershipExpiryWorkerConfig
	log               *logger.Logger
	stopCh            chan struct{}
	wg                sync.WaitGroup
	mu                sync.Mutex
	running           bool

	// Stats
	totalExpired     int64
	lastScanTime     time.Time
	lastExpiredCount int64
}

// NewMembershipExpiryWorker creates a new membership expiry worker
func NewMembershipExpiryWorker(
	membershipService service.MembershipService,
	eventPublisher service.EventPublisher,
	config *MembershipExpiryWorkerConfig,
) *MembershipExpiryWorker {
	if config == nil {
		config = DefaultMembershipExpiryWorkerConfig()
	}
	if eventPublisher == nil {
		eventPublisher = service.NewNoOpEventPublisher()
	}

	return &MembershipExpiryWorker{
		membershipService: membershipService,
		eventPublisher:    eventPublisher,
		config:            config,
		log:               logger.Get(),
		stopCh:            make(chan struct{}),
	}
}

// Start starts the expiry worker
func (w *MembershipExpiryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("membership expiry worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting membership expiry worker",
		zap.Duration("scan_interval", w.config.ScanInterval),
	)

	w.wg.Add(1)
	go w.scanLoop(ctx)

	return nil
}

// Stop stops the expiry worker
func (w *MembershipExpiryWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping membership expiry worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Membership expiry worker stopped")
}

// IsRunning returns true if the worker is running
func (w *MembershipExpiryWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stats returns a snapshot of the worker's counters
func (w *MembershipExpiryWorker) Stats() (totalExpired, lastExpiredCount int64, lastScanTime time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totalExpired, w.lastExpiredCount, w.lastScanTime
}

func (w *MembershipExpiryWorker) scanLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.runScan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runScan(ctx)
		}
	}
}

// runScan expires lapsed memberships and optionally publishes renewal notices
func (w *MembershipExpiryWorker) runScan(ctx context.Context) {
	expired, err := w.membershipService.UpdateExpiredMemberships(ctx)
	if err != nil {
		w.log.Error("Failed to expire memberships", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.totalExpired += expired
	w.lastExpiredCount = expired
	w.lastScanTime = time.Now()
	w.mu.Unlock()

	if expired > 0 {
		w.log.Info("Expired memberships",
			zap.Int64("count", expired),
			zap.Int64("total_expired", w.totalExpired),
		)
	}

	if w.config.NotifyExpiringSoon {
		w.notifyExpiringSoon(ctx)
	}
}

// notifyExpiringSoon publishes best-effort renewal notices for memberships
// ending within the configured window
func (w *MembershipExpiryWorker) notifyExpiringSoon(ctx context.Context) {
	memberships, err := w.membershipService.GetExpiringMemberships(ctx, w.config.ExpiringSoonDays)
	if err != nil {
		w.log.Error("Failed to list expiring memberships", zap.Error(err))
		return
	}

	for _, membership := range memberships {
		if err := w.eventPublisher.PublishMembershipExpiringSoon(ctx, membership); err != nil {
			w.log.Warn("Failed to publish expiring-soon event",
				zap.String("membership_id", membership.ID),
				zap.Error(err),
			)
		}
	}
}
