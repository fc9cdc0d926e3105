package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dash-mcp/internal/cache"
)

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if !s.cache.Ready() {
		s.respondJSON(w, http.StatusOK, envelope{
			Success: false,
			Data:    cache.Stats{ByCategory: map[cache.Category]int64{}},
			Message: "store not connected",
		})
		return
	}
	s.respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    s.cache.Stats(r.Context()),
	})
}

// handleCacheClear invalidates a single category, or every category when
// the path segment is "all".
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "category")
	var deleted int64
	if name == "all" {
		deleted = s.cache.ClearAll(r.Context())
	} else {
		category, err := cache.ParseCategory(name)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid category", err.Error())
			return
		}
		deleted = s.cache.ClearByCategory(r.Context(), category)
	}
	s.respondJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    map[string]any{"category": name, "deletedCount": deleted},
	})
}

// handleCacheList returns the newest live entries of a category, for
// poking at what the cache holds.
func (s *Server) handleCacheList(w http.ResponseWriter, r *http.Request) {
	category, err := cache.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid category", err.Error())
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit <= 0 {
		limit = 10
	}
	entries := s.cache.Recent(r.Context(), category, limit)
	s.respondJSON(w, http.StatusOK, envelope{Success: true, Data: entries})
}

func (s *Server) handleCacheCleanup(w http.ResponseWriter, r *http.Request) {
	result := s.cleanup.ForceCleanup(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}

func (s *Server) handleCleanupStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.cleanup.Status())
}
