package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultCleanupInterval is how often the sweep runs when unconfigured.
const DefaultCleanupInterval = 60 * time.Minute

// CleanupStatus describes the scheduler for the admin status route.
// NextRunEstimate is an approximation (now + interval), not the exact cron
// firing time.
type CleanupStatus struct {
	IsRunning       bool   `json:"isRunning"`
	NextRunEstimate string `json:"nextRunEstimate,omitempty"`
	IntervalMinutes int    `json:"intervalMinutes"`
}

// CleanupResult reports a manually-triggered sweep. Success is false only
// on hard infrastructure failure, never on "nothing to delete".
type CleanupResult struct {
	Success      bool   `json:"success"`
	DeletedCount int64  `json:"deletedCount"`
	DurationMs   int64  `json:"durationMs"`
	Error        string `json:"error,omitempty"`
}

// CleanupService periodically purges expired rows. It owns its cron handle
// and running flag; construct one at startup and hold it for the process
// lifetime.
type CleanupService struct {
	mu       sync.Mutex
	cron     *cron.Cron
	running  bool
	interval time.Duration
	service  *Service
	log      *zap.Logger
}

// NewCleanupService builds a stopped scheduler sweeping every interval.
// A non-positive interval falls back to DefaultCleanupInterval.
func NewCleanupService(service *Service, interval time.Duration, log *zap.Logger) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupService{interval: interval, service: service, log: log}
}

// Start arms the periodic sweep and fires one immediate cleanup so a fresh
// process does not wait a full interval. Starting twice is a no-op.
func (c *CleanupService) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.log.Warn("cache cleanup scheduler already running")
		return
	}

	c.cron = cron.New(cron.WithLocation(time.UTC))
	spec := fmt.Sprintf("@every %s", c.interval)
	if _, err := c.cron.AddFunc(spec, func() {
		c.performCleanup(context.Background())
	}); err != nil {
		c.log.Error("failed to schedule cache cleanup", zap.Error(err))
		c.cron = nil
		return
	}
	c.cron.Start()
	c.running = true
	c.log.Info("cache cleanup scheduler started", zap.Duration("interval", c.interval))

	go c.performCleanup(context.Background())
}

// Stop cancels the timer. Safe to call on a stopped scheduler.
func (c *CleanupService) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		c.cron.Stop()
		c.cron = nil
	}
	c.running = false
	c.log.Info("cache cleanup scheduler stopped")
}

// Status reports the scheduler state.
func (c *CleanupService) Status() CleanupStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := CleanupStatus{
		IsRunning:       c.running,
		IntervalMinutes: int(c.interval / time.Minute),
	}
	if c.running {
		status.NextRunEstimate = time.Now().UTC().Add(c.interval).Format(time.RFC3339)
	}
	return status
}

// ForceCleanup runs a sweep immediately, outside the timer.
func (c *CleanupService) ForceCleanup(ctx context.Context) CleanupResult {
	start := time.Now()
	if !c.service.Ready() {
		return CleanupResult{
			Success:    false,
			DurationMs: time.Since(start).Milliseconds(),
			Error:      "cache store not connected",
		}
	}
	deleted := c.service.Cleanup(ctx)
	return CleanupResult{
		Success:      true,
		DeletedCount: deleted,
		DurationMs:   time.Since(start).Milliseconds(),
	}
}

// performCleanup is one scheduled tick: sweep and log the before/after
// delta. Failures are logged, never propagated; no caller is waiting.
func (c *CleanupService) performCleanup(ctx context.Context) {
	if !c.service.Ready() {
		c.log.Info("store not connected, skipping cache cleanup")
		return
	}

	start := time.Now()
	before := c.service.Stats(ctx)
	deleted := c.service.Cleanup(ctx)
	after := c.service.Stats(ctx)

	c.log.Info("cache cleanup completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int64("entriesBefore", before.Total),
		zap.Int64("entriesAfter", after.Total),
		zap.Int64("deleted", deleted),
		zap.Int64("expiredRemaining", after.ExpiredCount),
		zap.Any("byCategory", after.ByCategory))
}
