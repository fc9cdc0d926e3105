package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

func (s *Server) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	available := s.agentAvailable()
	msg := "Agent is available"
	if !available {
		msg = "Agent is not available"
	}
	s.respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    map[string]any{"agentAvailable": available},
		Message: msg,
	})
}

func (s *Server) handleAgentTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid json", "Request body must be valid JSON")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter", "Please provide a query in the request body")
		return
	}
	if !s.agentAvailable() {
		s.respondError(w, http.StatusServiceUnavailable, "agent not available", "Agent is not configured. Check server logs for details.")
		return
	}

	start := time.Now()
	reply, err := s.agent.Run(r.Context(), req.Query)
	if err != nil {
		s.log.Error("agent query failed", zap.String("query", req.Query), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "agent query failed", err.Error())
		return
	}
	duration := time.Since(start)
	s.log.Info("agent query completed", zap.Duration("duration", duration))

	data := map[string]any{
		"query":    req.Query,
		"response": reply,
		"duration": fmt.Sprintf("%dms", duration.Milliseconds()),
	}
	s.cacheResponse(r, data, map[string]any{"query": req.Query, "duration": duration.Milliseconds()})
	s.respondJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) handleAgentTools(w http.ResponseWriter, r *http.Request) {
	if !s.agentAvailable() {
		s.respondError(w, http.StatusServiceUnavailable, "agent not available", "Agent is not configured")
		return
	}

	reply, err := s.agent.Run(r.Context(), "List all available tools and their descriptions")
	if err != nil {
		s.log.Error("tool listing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to fetch tools", err.Error())
		return
	}

	data := map[string]any{"tools": reply}
	s.cacheResponse(r, data, map[string]any{"source": "agent"})
	s.respondJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func (s *Server) handleAgentSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emails []map[string]any `json:"emails"`
		Events []map[string]any `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid json", "Request body must be valid JSON")
		return
	}
	if req.Emails == nil || req.Events == nil {
		s.respondError(w, http.StatusBadRequest, "missing data", "Please provide both emails and events data")
		return
	}

	summary, source := s.buildSummary(r, req.Emails, req.Events)
	data := map[string]any{"summary": summary}
	s.cacheResponse(r, data, map[string]any{
		"source":     source,
		"emailCount": len(req.Emails),
		"eventCount": len(req.Events),
	})
	s.respondJSON(w, http.StatusOK, envelope{Success: true, Data: data, Source: source})
}

// buildSummary runs the day-summary prompt through the agent, falling back
// to a canned summary when the agent is down.
func (s *Server) buildSummary(r *http.Request, emails, events []map[string]any) (string, string) {
	if !s.agentAvailable() {
		return fallbackSummary(len(emails), len(events)), "fallback"
	}

	reply, err := s.agent.Run(r.Context(), summaryPrompt(emails, events))
	if err != nil {
		s.log.Warn("summary generation failed, using fallback", zap.Error(err))
		return fallbackSummary(len(emails), len(events)), "fallback"
	}
	return reply, "agent"
}

func summaryPrompt(emails, events []map[string]any) string {
	var b strings.Builder
	b.WriteString("You are a personal assistant creating a brief, engaging daily summary. ")
	b.WriteString("Based on the following data, write a single paragraph (2-3 sentences) that summarizes the day ahead in a friendly, emoji-rich way.\n\n")

	b.WriteString("EMAILS DATA:\n")
	for _, email := range emails {
		fmt.Fprintf(&b, "- %s (Priority: %s, Read: %v)\n",
			stringField(email, "subject"),
			stringField(email, "priority"),
			email["isRead"])
	}
	b.WriteString("\nEVENTS DATA:\n")
	for _, event := range events {
		fmt.Fprintf(&b, "- %s at %s (%s)\n",
			stringField(event, "title"),
			stringField(event, "time"),
			stringField(event, "category"))
	}
	return b.String()
}

func fallbackSummary(emailCount, eventCount int) string {
	return fmt.Sprintf(
		"You have %d emails to review and %d events on the calendar. Looks like a manageable day ahead!",
		emailCount, eventCount)
}
