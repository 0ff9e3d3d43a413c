package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/rubiojr/reposearch/pkg/cache"
	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/log"
)

// Resolver answers one query. *cache.QueryCache satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, q core.Query) (*core.CombinedPage, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, q core.Query) (*core.CombinedPage, error)

func (f ResolverFunc) Resolve(ctx context.Context, q core.Query) (*core.CombinedPage, error) {
	return f(ctx, q)
}

type backend struct {
	resolver Resolver
	store    cache.AdminStore
}

type Server struct {
	backend atomic.Pointer[backend]
	log     *log.Logger
}

// NewServer creates a server answering queries with resolver. store is
// optional and only used for the cache stats endpoint.
func NewServer(resolver Resolver, store cache.AdminStore) *Server {
	s := &Server{log: log.ForService("api")}
	s.Swap(resolver, store)
	return s
}

// Swap replaces the resolver and store used by subsequent requests. In-flight
// requests finish with the previous ones.
func (s *Server) Swap(resolver Resolver, store cache.AdminStore) {
	s.backend.Store(&backend{resolver: resolver, store: store})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
