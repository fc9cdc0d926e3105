package cache

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable signals that the backing store cannot be reached.
// It never escapes the Service: callers above see a miss instead.
var ErrStoreUnavailable = errors.New("cache store unavailable")

// Store is the durable entry store. Implementations return explicit errors;
// collapsing them into "cache absent" is the Service's job, not the store's.
type Store interface {
	// Upsert inserts or fully replaces the record for key, preserving the
	// original CreatedAt on replace.
	Upsert(ctx context.Context, key string, payload any, category Category, expiresAt time.Time, metadata map[string]any) (*Entry, error)

	// FindLiveByKey returns the entry only while expiresAt is in the
	// future; an expired-but-unswept row reads as (nil, nil).
	FindLiveByKey(ctx context.Context, key string) (*Entry, error)

	// FindLiveByCategory returns live entries of a category, most recently
	// created first, at most limit.
	FindLiveByCategory(ctx context.Context, category Category, limit int64) ([]Entry, error)

	// DeleteByKey removes the row if present and reports whether it did.
	DeleteByKey(ctx context.Context, key string) (bool, error)

	// DeleteByCategory removes every row of the category, live or expired.
	DeleteByCategory(ctx context.Context, category Category) (int64, error)

	// SweepExpired bulk-deletes rows with expiresAt <= now. Idempotent.
	SweepExpired(ctx context.Context) (int64, error)

	CountAll(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context) (map[Category]int64, error)
	CountExpired(ctx context.Context) (int64, error)

	// Connected reports whether the backing store is reachable. Consulted
	// by the middleware before every cache interaction (fail-open gate).
	Connected() bool
}
