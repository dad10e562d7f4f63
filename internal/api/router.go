// Package api exposes the lattice/topology/reconstruct core over HTTP:
// chi router + middleware, JWT auth, rate limiting, a progress websocket,
// and the request/response JSON wire types.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/arxos/crystalgeo/internal/applog"
	"github.com/arxos/crystalgeo/internal/authn"
	"github.com/arxos/crystalgeo/internal/cache"
	"github.com/arxos/crystalgeo/internal/config"
	"github.com/arxos/crystalgeo/internal/store"
)

// Server holds the dependencies every handler needs. cache and store are
// optional (nil-safe) so the service can run with reduced functionality
// when Redis or Postgres are unavailable in a given deployment.
type Server struct {
	log     *applog.Logger
	authn   *authn.Manager
	cache   *cache.Cache
	store   *store.Store
	results *resultStore
	limiter *rateLimiter
}

// NewServer constructs the Server and its dependent subsystems.
func NewServer(log *applog.Logger, authnMgr *authn.Manager, c *cache.Cache, st *store.Store, rl config.RateLimitConfig) *Server {
	return &Server{
		log:     log,
		authn:   authnMgr,
		cache:   c,
		store:   st,
		results: newResultStore(),
		limiter: newRateLimiter(rl),
	}
}

// Router builds the chi mux: CORS + request logging + panic recovery
// globally, bearer-token auth on every route except health and login, and
// per-key rate limiting on the script-run route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Default().Handler)

	r.Get("/v1/health", s.handleHealth)
	r.Post("/v1/auth/login", s.handleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(s.authn.Middleware)
		pr.With(s.limiter.Middleware).Post("/v1/scripts/{id}/run", s.handleScriptRun)
		pr.Get("/v1/scripts/{id}/atoms", s.handleScriptAtoms)
		pr.Get("/v1/scripts/{id}/progress", s.handleScriptProgress)
		pr.Post("/v1/reconstruct", s.handleReconstruct)
		pr.Post("/v1/match", s.handleMatch)
	})

	return r
}
