package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dash-mcp/internal/cache"
)

type ctxKey int

const cacheInfoKey ctxKey = iota

// cacheInfo rides the request context between the cache middleware and the
// handler's write-back call. skipRead suppresses the cache read on a forced
// refresh; the write-back still happens so the refreshed result lands in
// the cache.
type cacheInfo struct {
	key      string
	category cache.Category
	ttl      time.Duration
	skipRead bool
}

// cached wraps a route so repeated identical requests are served from the
// cache without re-invoking the handler. A zero ttl uses the service
// default. The middleware must never fail a request: a disconnected store
// or any cache error degrades to calling the handler.
func (s *Server) cached(category cache.Category, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.cache.Ready() {
				s.log.Debug("store not connected, skipping cache")
				next.ServeHTTP(w, r)
				return
			}

			body := peekBody(r)
			key := s.cacheKeyFor(r, category, body)
			info := &cacheInfo{key: key, category: category, ttl: ttl}
			r = r.WithContext(context.WithValue(r.Context(), cacheInfoKey, info))

			if wantsRefresh(r, body) {
				s.log.Info("force refresh requested", zap.String("key", key))
				info.skipRead = true
				next.ServeHTTP(w, r)
				return
			}

			if payload := s.cache.Get(r.Context(), key); payload != nil {
				s.respondJSON(w, http.StatusOK, envelope{
					Success: true,
					Data:    payload,
					Cached:  true,
					Message: "Response served from cache",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cacheResponse hydrates a handler result into the cache. Handlers call it
// explicitly before responding; it is a no-op when the route was not
// wrapped by cached() or the store is down.
func (s *Server) cacheResponse(r *http.Request, data any, metadata map[string]any) {
	info, _ := r.Context().Value(cacheInfoKey).(*cacheInfo)
	if info == nil || !s.cache.Ready() {
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["userAgent"] = r.UserAgent()
	metadata["ip"] = r.RemoteAddr
	metadata["requestId"] = requestID(r)
	metadata["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	s.cache.Set(r.Context(), info.key, data, info.category, info.ttl, metadata)
}

// refreshFunc re-produces a route's payload outside any request, for
// background revalidation.
type refreshFunc func(ctx context.Context) (any, error)

// staleWhileRevalidate serves an entry inside the stale window immediately
// and dispatches a detached refresh. Entries outside the window, and
// misses, fall through to the next handler in the chain.
func (s *Server) staleWhileRevalidate(category cache.Category, threshold time.Duration, refresh refreshFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.cache.Ready() {
				next.ServeHTTP(w, r)
				return
			}

			body := peekBody(r)
			key := s.cacheKeyFor(r, category, body)
			entry := s.cache.GetEntry(r.Context(), key)
			if entry != nil && time.Until(entry.ExpiresAt) < threshold {
				s.log.Info("cache entry stale, refreshing in background", zap.String("key", key))
				s.respondJSON(w, http.StatusOK, envelope{
					Success: true,
					Data:    entry.Payload,
					Cached:  true,
					Stale:   true,
					Message: "Serving stale cache while refreshing in background",
				})
				go s.refreshInBackground(key, category, refresh)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// refreshInBackground re-runs the route's fetch and upserts the result.
// Fire-and-forget: the originating request never observes the outcome, and
// concurrent requests on the same stale key may each trigger their own
// refresh (redundant upserts are harmless).
func (s *Server) refreshInBackground(key string, category cache.Category, refresh refreshFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := refresh(ctx)
	if err != nil {
		s.log.Warn("background cache refresh failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.cache.Set(ctx, key, data, category, 0, map[string]any{"source": "background-refresh"})
	s.log.Info("background cache refresh completed", zap.String("key", key))
}

// cacheKeyFor derives the cache key for a request per the category's rule.
// It never fails: unparsable input degrades to whatever fields could be
// read, and unknown categories fall back to the request path.
func (s *Server) cacheKeyFor(r *http.Request, category cache.Category, body []byte) string {
	switch category {
	case cache.CategoryAgentResponse, cache.CategoryAgentTest:
		fields := bodyFields(body)
		query := stringField(fields, "query")
		if query == "" {
			query = r.URL.Query().Get("q")
		}
		steps := intField(fields, "maxSteps")
		if steps == 0 {
			steps, _ = strconv.Atoi(r.URL.Query().Get("maxSteps"))
		}
		if steps == 0 {
			steps = 5
		}
		return cache.MakeKey(category, query, strconv.Itoa(steps))

	case cache.CategoryAgentTools:
		// Tool listings rarely change; a 30-minute bucket is deliberately coarse.
		bucket := time.Now().UnixMilli() / (30 * time.Minute).Milliseconds()
		return cache.MakeKey(category, strconv.FormatInt(bucket, 10))

	case cache.CategoryAgentSummary, cache.CategorySummary:
		fields := bodyFields(body)
		emails := listField(fields, "emails")
		events := listField(fields, "events")
		return cache.MakeKey(category,
			strconv.Itoa(len(emails)),
			strconv.Itoa(len(events)),
			fingerprint(emails, "id", "subject"),
			fingerprint(events, "id", "title"))

	case cache.CategoryEmails:
		bucket := time.Now().UnixMilli() / (5 * time.Minute).Milliseconds()
		return cache.MakeKey(category, strconv.FormatInt(bucket, 10))

	case cache.CategoryEvents:
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}
		return cache.MakeKey(category, date)

	default:
		return cache.MakeKey(category, r.URL.Path)
	}
}

// fingerprint joins identifying fields of the first three items with "|".
// Batches differing only beyond the third item share a key; this matches
// the deployed key scheme and is covered by a test documenting it.
func fingerprint(items []any, primary, fallback string) string {
	n := len(items)
	if n > 3 {
		n = 3
	}
	parts := make([]string, 0, n)
	for _, item := range items[:n] {
		m, _ := item.(map[string]any)
		id := stringField(m, primary)
		if id == "" {
			id = stringField(m, fallback)
		}
		parts = append(parts, id)
	}
	return strings.Join(parts, "|")
}

// peekBody reads and restores the request body so both the middleware and
// the handler can consume it.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		r.Body = http.NoBody
		return nil
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

func wantsRefresh(r *http.Request, body []byte) bool {
	if r.URL.Query().Get("refresh") == "true" {
		return true
	}
	v, ok := bodyFields(body)["refresh"].(bool)
	return ok && v
}

func bodyFields(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	return fields
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func intField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func listField(fields map[string]any, key string) []any {
	if v, ok := fields[key].([]any); ok {
		return v
	}
	return nil
}

func requestID(r *http.Request) string {
	if id := chimw.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
