package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"dash-mcp/internal/cache"
)

func keyServer(t *testing.T) *Server {
	s, _ := newTestServer(t, cache.NewMemoryStore(), noRunner{})
	return s
}

func TestCacheKeyForEvents(t *testing.T) {
	s := keyServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/events?date=2024-07-12", nil)
	if key := s.cacheKeyFor(r, cache.CategoryEvents, nil); key != "events:2024-07-12" {
		t.Fatalf("unexpected key %q", key)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	today := time.Now().UTC().Format("2006-01-02")
	if key := s.cacheKeyFor(r, cache.CategoryEvents, nil); key != "events:"+today {
		t.Fatalf("expected today's date key, got %q", key)
	}
}

func TestCacheKeyForAgentQuery(t *testing.T) {
	s := keyServer(t)

	body := []byte(`{"query":"What's On Today?","maxSteps":7}`)
	r := httptest.NewRequest(http.MethodPost, "/api/agent/test", bytes.NewReader(body))
	key := s.cacheKeyFor(r, cache.CategoryAgentTest, body)
	if key != "agent_test:what_s_on_today_:7" {
		t.Fatalf("unexpected key %q", key)
	}

	// maxSteps defaults to 5 when absent.
	body = []byte(`{"query":"hi"}`)
	r = httptest.NewRequest(http.MethodPost, "/api/agent/test", bytes.NewReader(body))
	if key := s.cacheKeyFor(r, cache.CategoryAgentTest, body); key != "agent_test:hi:5" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestCacheKeyForTimeBuckets(t *testing.T) {
	s := keyServer(t)
	r := httptest.NewRequest(http.MethodGet, "/api/mail", nil)

	emailBucket := time.Now().UnixMilli() / (5 * time.Minute).Milliseconds()
	if key := s.cacheKeyFor(r, cache.CategoryEmails, nil); key != "emails:"+strconv.FormatInt(emailBucket, 10) {
		t.Fatalf("unexpected key %q", key)
	}

	toolsBucket := time.Now().UnixMilli() / (30 * time.Minute).Milliseconds()
	r = httptest.NewRequest(http.MethodGet, "/api/agent/tools", nil)
	if key := s.cacheKeyFor(r, cache.CategoryAgentTools, nil); key != "agent_tools:"+strconv.FormatInt(toolsBucket, 10) {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestCacheKeyForSummaryFingerprint(t *testing.T) {
	s := keyServer(t)

	body := []byte(`{"emails":[{"id":"E1"},{"subject":"Sub Two"},{"id":"e3"},{"id":"ignored"}],"events":[{"title":"Run"}]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/agent/summary", bytes.NewReader(body))
	key := s.cacheKeyFor(r, cache.CategoryAgentSummary, body)
	// 4 emails, 1 event, first three email ids/subjects, first event title.
	if key != "agent_summary:4:1:e1_sub_two_e3:run" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestCacheKeyFallbackUsesPath(t *testing.T) {
	s := keyServer(t)
	r := httptest.NewRequest(http.MethodGet, "/api/photos", nil)
	if key := s.cacheKeyFor(r, cache.Category("photos"), nil); key != "photos:_api_photos" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestPeekBodyRestores(t *testing.T) {
	raw := []byte(`{"query":"hello"}`)
	r := httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader(raw))

	peeked := peekBody(r)
	if !bytes.Equal(peeked, raw) {
		t.Fatalf("peek returned %q", peeked)
	}
	rest, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rest, raw) {
		t.Fatal("body must be readable again after peeking")
	}
}

func TestWantsRefresh(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?refresh=true", nil)
	if !wantsRefresh(r, nil) {
		t.Fatal("query flag not honored")
	}
	r = httptest.NewRequest(http.MethodPost, "/x", nil)
	if !wantsRefresh(r, []byte(`{"refresh":true}`)) {
		t.Fatal("body flag not honored")
	}
	if wantsRefresh(r, []byte(`{"refresh":"yes"}`)) {
		t.Fatal("only boolean true counts")
	}
}

func TestCacheResponseNoopWithoutMiddleware(t *testing.T) {
	store := cache.NewMemoryStore()
	svc := cache.NewService(store, 0, zap.NewNop())
	cleanup := cache.NewCleanupService(svc, time.Hour, zap.NewNop())
	s := New(Config{}, svc, cleanup, noRunner{}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	s.cacheResponse(r, "data", nil) // no cacheInfo in context
	if stats := svc.Stats(r.Context()); stats.Total != 0 {
		t.Fatal("write-back without middleware context must be a no-op")
	}
}

func TestCachedMiddlewareEnvelope(t *testing.T) {
	s, svc := newTestServer(t, cache.NewMemoryStore(), noRunner{})

	doJSON(t, s, http.MethodGet, "/api/events?date=2024-08-01", nil)
	entry := svc.GetEntry(context.Background(), "events:2024-08-01")
	if entry == nil {
		t.Fatal("expected hydrated entry")
	}
	if entry.Category != cache.CategoryEvents {
		t.Fatalf("unexpected category %q", entry.Category)
	}
	if entry.Metadata["requestId"] == "" || entry.Metadata["source"] != "mock" {
		t.Fatalf("expected contextual metadata, got %v", entry.Metadata)
	}

	rr, _ := doJSON(t, s, http.MethodGet, "/api/events?date=2024-08-01", nil)
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Message == "" || !env.Cached || env.Timestamp == "" {
		t.Fatalf("cache-hit envelope incomplete: %+v", env)
	}
}
