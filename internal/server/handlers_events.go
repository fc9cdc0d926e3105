package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// handleEvents serves the calendar for the requested date. The calendar
// integration was removed upstream, so events come from mock data.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	events := mockEvents(date)
	s.cacheResponse(r, events, map[string]any{"source": "mock", "date": date})
	s.respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    events,
		Source:  "mock",
		Message: "Using mock calendar data",
	})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Date        string `json:"date"`
		Time        string `json:"time"`
		Location    string `json:"location"`
		Description string `json:"description"`
		Category    string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid json", "Request body must be valid JSON")
		return
	}
	if req.Title == "" || req.Date == "" || req.Time == "" {
		s.respondError(w, http.StatusBadRequest, "missing fields", "Title, date, and time are required")
		return
	}
	if req.Category == "" {
		req.Category = "personal"
	}

	event := Event{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Time:        req.Date + " at " + req.Time,
		Category:    req.Category,
		Location:    req.Location,
		Description: req.Description,
		Date:        req.Date,
	}
	s.respondJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    event,
		Message: "Event created",
	})
}
