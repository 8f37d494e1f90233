package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/21mScot/sitecast/internal/analysis"
	"github.com/21mScot/sitecast/internal/config"
	"github.com/21mScot/sitecast/internal/livedata"
	"github.com/21mScot/sitecast/internal/storage"
)

// Server is the HTTP boundary between the engine and the dashboard. It only
// moves value structures; all rendering happens client-side.
type Server struct {
	cfg        *config.Config
	configPath string
	storage    *storage.SQLiteStorage
	live       *livedata.Service
	engine     *analysis.Engine
	hub        *WebSocketHub
	server     *http.Server
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, configPath string, store *storage.SQLiteStorage, live *livedata.Service, engine *analysis.Engine) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		storage:    store,
		live:       live,
		engine:     engine,
		hub:        NewWebSocketHub(),
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	// Setup chi router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Network snapshot
		r.Get("/network", s.handleGetNetwork)
		r.Post("/network/refresh", s.handleRefreshNetwork)

		// Miner catalogue
		r.Get("/miners", s.handleGetMiners)
		r.Put("/miners", s.handleReplaceMiners)
		r.Get("/miners/analytics", s.handleMinerAnalytics)

		// Analysis
		r.Post("/analyze", s.handleAnalyze)

		// Saved runs
		r.Get("/runs", s.handleGetRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)

		// Settings
		r.Get("/settings", s.handleGetSettings)
		r.Post("/settings", s.handleSaveSettings)

		// Health
		r.Get("/health", s.handleHealth)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	// Start WebSocket hub
	go s.hub.Run()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	log.Printf("Starting HTTP server on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Stop()

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetHub returns the WebSocket hub for external access
func (s *Server) GetHub() *WebSocketHub {
	return s.hub
}
