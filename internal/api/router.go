package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jmdejong/battilde/internal/game"
)

// StatsSource is the part of the engine the HTTP handlers read. An interface
// so handler tests can fake it without a running tick loop.
type StatsSource interface {
	Stats() game.WorldStats
	PlayerInfos() []game.PlayerInfo
}

// RouterConfig contains the dependencies needed to construct the HTTP
// router.
type RouterConfig struct {
	// Engine provides world snapshots (required)
	Engine StatsSource

	// Limiter is an optional pre-configured client limiter. If nil, a new
	// one is created with DefaultLimiterConfig.
	Limiter *ClientLimiter

	// DisableLogging disables the request logger middleware (useful for
	// tests and benchmarks)
	DisableLogging bool
}

// NewRouter builds the chi router with middleware and the JSON endpoints.
// WebSocket routes are added by Server because they need the hub instance.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	}))

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewClientLimiter(DefaultLimiterConfig)
	}
	r.Use(limiter.Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/api/state", handleState(cfg.Engine))
	r.Get("/api/players", handlePlayers(cfg.Engine))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	return r
}
