package server

import (
	"context"
	"errors"
	"time"

	"dash-mcp/internal/cache"
)

var errStoreDown = errors.New("connection reset")

// brokenStore reports connected but fails every operation, exercising the
// fail-open path through the middleware.
type brokenStore struct{}

func (brokenStore) Upsert(context.Context, string, any, cache.Category, time.Time, map[string]any) (*cache.Entry, error) {
	return nil, errStoreDown
}
func (brokenStore) FindLiveByKey(context.Context, string) (*cache.Entry, error) {
	return nil, errStoreDown
}
func (brokenStore) FindLiveByCategory(context.Context, cache.Category, int64) ([]cache.Entry, error) {
	return nil, errStoreDown
}
func (brokenStore) DeleteByKey(context.Context, string) (bool, error) { return false, errStoreDown }
func (brokenStore) DeleteByCategory(context.Context, cache.Category) (int64, error) {
	return 0, errStoreDown
}
func (brokenStore) SweepExpired(context.Context) (int64, error) { return 0, errStoreDown }
func (brokenStore) CountAll(context.Context) (int64, error)     { return 0, errStoreDown }
func (brokenStore) CountByCategory(context.Context) (map[cache.Category]int64, error) {
	return nil, errStoreDown
}
func (brokenStore) CountExpired(context.Context) (int64, error) { return 0, errStoreDown }
func (brokenStore) Connected() bool                             { return true }

// offlineStore mimics a store whose connection never came up; the
// middleware should skip caching entirely.
type offlineStore struct{ brokenStore }

func (offlineStore) Connected() bool { return false }
