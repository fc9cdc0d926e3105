package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// envelope is the uniform response body. Cached and Stale mark responses
// served from the cache layer instead of the handler.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Cached    bool   `json:"cached"`
	Stale     bool   `json:"stale,omitempty"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, env envelope) {
	if env.Timestamp == "" {
		env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (s *Server) respondError(w http.ResponseWriter, status int, errMsg, message string) {
	s.respondJSON(w, status, envelope{Success: false, Error: errMsg, Message: message})
}
