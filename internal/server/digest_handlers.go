package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trendbrief/internal/core"
	"trendbrief/internal/render"
)

// handleGetDigest handles GET /api/digest
func (s *Server) handleGetDigest(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.digest)
}

// handleExclusives handles GET /api/digest/exclusives
func (s *Server) handleExclusives(w http.ResponseWriter, r *http.Request) {
	exclusives := s.digest.PlatformExclusives
	if exclusives == nil {
		exclusives = map[core.Source]core.Exclusive{}
	}
	s.respondJSON(w, http.StatusOK, exclusives)
}

// handleGetStory handles GET /api/digest/stories/{rank}
func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.storyFromPath(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

// handleAppearances handles GET /api/digest/stories/{rank}/appearances
func (s *Server) handleAppearances(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.storyFromPath(w, r)
	if !ok {
		return
	}
	appearances := entry.Appearances
	if appearances == nil {
		appearances = []core.Appearance{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"rank":        entry.Rank,
		"title":       entry.PrimaryTitle,
		"appearances": appearances,
	})
}

// handleMarkdown handles GET /digest.md
func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(render.Markdown(s.digest))); err != nil {
		s.log.Error("Failed to write markdown response", "error", err)
	}
}

func (s *Server) storyFromPath(w http.ResponseWriter, r *http.Request) (core.DigestEntry, bool) {
	rank, err := strconv.Atoi(chi.URLParam(r, "rank"))
	if err != nil || rank < 1 {
		s.respondError(w, http.StatusBadRequest, "Rank must be a positive integer")
		return core.DigestEntry{}, false
	}

	entry, ok := s.digest.Story(rank)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Story not found")
		return core.DigestEntry{}, false
	}
	return entry, true
}
