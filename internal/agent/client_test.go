package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUnconfiguredClient(t *testing.T) {
	c := New("", "", time.Second)
	if c.Available() {
		t.Fatal("empty base URL must report unavailable")
	}
	if _, err := c.Run(context.Background(), "hi"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRunParsesResponseObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/run" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["query"] != "what's up" {
			t.Errorf("unexpected query %q", req["query"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "not much"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", 5*time.Second)
	reply, err := c.Run(context.Background(), "what's up")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "not much" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestRunFallsBackToRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("plain text reply"))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	reply, err := c.Run(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "plain text reply" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestRunSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	if _, err := c.Run(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for 502")
	}
}
