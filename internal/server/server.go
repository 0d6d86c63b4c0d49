package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MakiNampei/Desktop-Auto-Filer/internal/engine"
	"github.com/MakiNampei/Desktop-Auto-Filer/internal/events"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server exposes the suggestion engine over HTTP plus a websocket event
// stream and Prometheus metrics.
type Server struct {
	cfg        Config
	engine     *engine.Engine
	hub        *events.Hub
	router     chi.Router
	httpServer *http.Server
}

// New creates a server around an already wired engine and event hub.
func New(cfg Config, eng *engine.Engine, hub *events.Hub) *Server {
	s := &Server{
		cfg:    cfg,
		engine: eng,
		hub:    hub,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	// The event stream holds its socket open indefinitely, so it stays
	// outside the request timeout group.
	events.RegisterRoutes(r, s.hub)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		engine.RegisterRoutes(r, s.engine)
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Engine returns the suggestion engine.
func (s *Server) Engine() *engine.Engine { return s.engine }

// Hub returns the event hub.
func (s *Server) Hub() *events.Hub { return s.hub }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("autofiler server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
