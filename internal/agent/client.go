// Package agent provides a minimal client for the external conversational
// agent that backs email retrieval, tool listing, and summarization. The
// agent is opaque to this service: a prompt goes in, free text comes out.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrUnavailable is returned when no agent endpoint is configured.
var ErrUnavailable = errors.New("agent not configured")

// Runner is the surface route handlers depend on. The HTTP client below is
// the production implementation; tests substitute stubs.
type Runner interface {
	// Run sends a natural-language prompt and returns the agent's reply.
	// May be slow; callers pass a request-scoped context.
	Run(ctx context.Context, prompt string) (string, error)

	// Available reports whether the agent can be called at all.
	Available() bool
}

// Client calls an agent endpoint over HTTP with retries.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the agent at baseURL. An empty baseURL yields a
// client that reports unavailable. Retries and timeout are handled by the
// underlying retryable client.
func New(baseURL, token string, timeout time.Duration) *Client {
	r := retryablehttp.NewClient()
	r.RetryMax = 2
	r.Logger = nil
	r.HTTPClient.Timeout = timeout
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    r.StandardClient(),
	}
}

// Available reports whether an endpoint is configured.
func (c *Client) Available() bool { return c.baseURL != "" }

type runRequest struct {
	Query string `json:"query"`
}

type runResponse struct {
	Response string `json:"response"`
}

// Run posts the prompt to the agent and returns its text reply. The reply
// body may be a {"response": ...} object or raw text; both are tolerated.
func (c *Client) Run(ctx context.Context, prompt string) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	body, err := json.Marshal(runRequest{Query: prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("agent status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed runResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Response != "" {
		return parsed.Response, nil
	}
	return string(raw), nil
}
