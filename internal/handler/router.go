package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wisplink/wisp/internal/api"
	"github.com/wisplink/wisp/internal/ratelimit"
	"github.com/wisplink/wisp/internal/shortener"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	Service *shortener.Service
	Limiter *ratelimit.Limiter
	DB      *sqlx.DB
	BaseURL string
}

// NewRouter assembles the full chi router. Named routes are registered before
// the catch-all slug resolver; their first path segments are reserved and can
// never be claimed as aliases.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", healthz(deps.DB))
	r.Handle("/metrics", promhttp.Handler())

	// JSON endpoints: create, alias check, capability delete.
	api.RegisterRoutes(r, deps.Service, deps.Limiter, deps.BaseURL)

	// Slug resolver -- catch-all, must be last.
	resolver := NewResolveHandler(deps.Service)
	r.Get("/{slug}", resolver.Resolve)

	return r
}

// healthz reports liveness; a failing DB ping turns it into a 503 so load
// balancers stop routing here.
func healthz(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	}
}
