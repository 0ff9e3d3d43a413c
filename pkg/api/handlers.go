package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/search"
	"github.com/rubiojr/reposearch/pkg/version"
)

const requestIDHeader = "X-Request-Id"

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)

	q, err := search.ParseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b := s.backend.Load()
	if b == nil || b.resolver == nil {
		s.writeError(w, http.StatusInternalServerError, "search is not configured")
		return
	}

	ctx := core.WithRequestID(r.Context(), requestID)
	page, err := b.resolver.Resolve(ctx, q)
	if err != nil {
		status := statusFor(err)
		s.log.With("request_id", requestID).Errorf("search text=%q tags=%s page=%d: %v", q.Text, q.Tags, q.Page, err)
		s.writeError(w, status, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, newSearchResponse(page))
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUpstreamRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	b := s.backend.Load()
	if b == nil || b.store == nil {
		s.writeError(w, http.StatusNotFound, "no cache store configured")
		return
	}

	stats, err := b.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
