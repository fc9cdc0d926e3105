// Package cache implements the dashboard's response cache: typed entries
// with TTL expiry in a durable store, a fail-open service API on top, and a
// periodic sweep of expired rows.
//
// The cache is purely an optimization layer. Every Service method swallows
// storage errors and returns an empty result, so route handlers never carry
// error-handling branches for cache failures.
package cache

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTTL applies when callers do not supply one and no override is
// configured.
const DefaultTTL = 300 * time.Second

var keySanitizer = regexp.MustCompile(`[^a-z0-9:_-]`)

// MakeKey derives a deterministic cache key: category and parts joined with
// ":", lowercased, with anything outside [a-z0-9:_-] replaced by "_".
// Unsafe input is sanitized, never rejected. Empty parts are skipped.
func MakeKey(category Category, parts ...string) string {
	joined := make([]string, 0, len(parts)+1)
	joined = append(joined, string(category))
	for _, p := range parts {
		if p != "" {
			joined = append(joined, p)
		}
	}
	key := strings.ToLower(strings.Join(joined, ":"))
	return keySanitizer.ReplaceAllString(key, "_")
}

// Stats is a point-in-time snapshot of the store, computed fresh per call.
type Stats struct {
	Total        int64              `json:"total"`
	ByCategory   map[Category]int64 `json:"byCategory"`
	ExpiredCount int64              `json:"expiredCount"`
}

// Service is the cache API consumed by route handlers.
type Service struct {
	store      Store
	defaultTTL time.Duration
	log        *zap.Logger
}

// NewService builds a Service over store. A non-positive defaultTTL falls
// back to DefaultTTL.
func NewService(store Store, defaultTTL time.Duration, log *zap.Logger) *Service {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Service{store: store, defaultTTL: defaultTTL, log: log}
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready() bool { return s.store.Connected() }

// Get returns the cached payload for key, or nil on miss, expiry, or any
// storage failure.
func (s *Service) Get(ctx context.Context, key string) any {
	entry := s.GetEntry(ctx, key)
	if entry == nil {
		return nil
	}
	return entry.Payload
}

// GetEntry returns the full live entry for key, or nil. Exposed for the
// stale-while-revalidate path, which needs the expiry timestamp.
func (s *Service) GetEntry(ctx context.Context, key string) *Entry {
	entry, err := s.store.FindLiveByKey(ctx, key)
	if err != nil {
		s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if entry == nil {
		s.log.Debug("cache miss", zap.String("key", key))
		return nil
	}
	s.log.Debug("cache hit", zap.String("key", key))
	return entry
}

// Set upserts key with the given payload and category. A non-positive ttl
// uses the configured default. Returns nil on storage failure.
func (s *Service) Set(ctx context.Context, key string, payload any, category Category, ttl time.Duration, metadata map[string]any) *Entry {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	expiresAt := time.Now().UTC().Add(ttl)
	entry, err := s.store.Upsert(ctx, key, payload, category, expiresAt, metadata)
	if err != nil {
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	s.log.Debug("cache set",
		zap.String("key", key),
		zap.String("category", category.String()),
		zap.Duration("ttl", ttl))
	return entry
}

// Exists reports whether a live entry exists for key.
func (s *Service) Exists(ctx context.Context, key string) bool {
	return s.GetEntry(ctx, key) != nil
}

// Delete removes the entry for key, reporting whether a row was removed.
func (s *Service) Delete(ctx context.Context, key string) bool {
	deleted, err := s.store.DeleteByKey(ctx, key)
	if err != nil {
		s.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return deleted
}

// Recent returns the newest live entries of a category.
func (s *Service) Recent(ctx context.Context, category Category, limit int64) []Entry {
	entries, err := s.store.FindLiveByCategory(ctx, category, limit)
	if err != nil {
		s.log.Warn("cache list failed", zap.String("category", category.String()), zap.Error(err))
		return nil
	}
	return entries
}

// ClearByCategory removes every entry of the category, returning the count.
func (s *Service) ClearByCategory(ctx context.Context, category Category) int64 {
	n, err := s.store.DeleteByCategory(ctx, category)
	if err != nil {
		s.log.Warn("cache clear failed", zap.String("category", category.String()), zap.Error(err))
		return 0
	}
	s.log.Info("cache cleared", zap.String("category", category.String()), zap.Int64("deleted", n))
	return n
}

// ClearAll clears every known category, returning the total removed.
func (s *Service) ClearAll(ctx context.Context) int64 {
	var total int64
	for _, category := range Categories() {
		total += s.ClearByCategory(ctx, category)
	}
	return total
}

// Stats gathers the three store counts concurrently. Any failure collapses
// to zeroed stats.
func (s *Service) Stats(ctx context.Context) Stats {
	stats := Stats{ByCategory: map[Category]int64{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountAll(gctx)
		stats.Total = n
		return err
	})
	g.Go(func() error {
		counts, err := s.store.CountByCategory(gctx)
		if counts != nil {
			stats.ByCategory = counts
		}
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountExpired(gctx)
		stats.ExpiredCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("cache stats failed", zap.Error(err))
		return Stats{ByCategory: map[Category]int64{}}
	}
	return stats
}

// Cleanup sweeps physically-expired rows, returning the count removed.
func (s *Service) Cleanup(ctx context.Context) int64 {
	n, err := s.store.SweepExpired(ctx)
	if err != nil {
		s.log.Warn("cache sweep failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.log.Info("cache sweep removed expired entries", zap.Int64("deleted", n))
	}
	return n
}
