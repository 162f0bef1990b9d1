package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmdejong/battilde/internal/game"
)

// Server is the HTTP API server with WebSocket support.
type Server struct {
	engine *game.Engine
	router *chi.Mux
	hub    *Hub
}

// NewServer creates the API server. The hub's per-IP limiter also guards the
// HTTP routes, so a client's requests and connections share one budget.
// Background workers do NOT start until Start() is called, so tests can
// construct it and use Router() directly.
func NewServer(engine *game.Engine, hub *Hub) *Server {
	s := &Server{
		engine: engine,
		hub:    hub,
	}

	s.router = NewRouter(RouterConfig{
		Engine:  engine,
		Limiter: hub.Limiter(),
	})

	// The websocket route needs the hub instance, so it can't be part of
	// the generic NewRouter factory.
	s.router.Get("/ws", s.hub.HandleWebSocket)

	return s
}

// Start begins serving and starts the hub worker. Call once.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	log.Printf("🌐 API server starting on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.hub != nil {
		s.hub.Limiter().Stop()
	}
}
