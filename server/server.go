// Package server provides HTTP server management and lifecycle handling for the inventory API.
// It includes server setup, middleware configuration, route management, and graceful shutdown
// capabilities with proper error handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codice/inventory-api/config"
	"github.com/codice/inventory-api/handlers"
	"github.com/codice/inventory-api/logging"
	"github.com/codice/inventory-api/metrics"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	router  chi.Router
	handler *handlers.Handler
	config  *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler *handlers.Handler) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:  router,
		handler: handler,
		config:  cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitHandler)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Catalog routes
	s.router.Get("/branches", s.handler.ListBranches)
	s.router.Get("/branches/{branchID}", s.handler.GetBranch)
	s.router.Get("/items", s.handler.ListItems)
	s.router.Get("/items/{sku}", s.handler.GetItem)
	s.router.Get("/items/search/{name}", s.handler.SearchItems)

	// Lot ledger routes
	s.router.Post("/lots", s.handler.ReceiveLot)
	s.router.Get("/lots/{sku}/{branchID}", s.handler.ListLots)
	s.router.Post("/lots/{lotID}/adjust", s.handler.AdjustLot)

	// Dispensing routes
	s.router.Post("/dispense", s.handler.Dispense)
	s.router.Post("/dispense/batch", s.handler.DispenseBatch)
	s.router.Get("/dispenses/{branchID}", s.handler.ListDispenses)

	// Redistribution routes
	s.router.Get("/suggestions", s.handler.Suggestions)
	s.router.Get("/suggestions/{sku}", s.handler.SuggestItem)
	s.router.Get("/alerts/expiry", s.handler.ExpiryAlerts)
	s.router.Get("/inventory/{branchID}", s.handler.BranchInventory)

	// Operational routes
	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	// Wait a bit for any ongoing requests to complete
	logging.Info("Waiting for ongoing requests to complete...")
	time.Sleep(2 * time.Second)

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		fmt.Println("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			fmt.Println("Profiling server failed: ", err)
		}
	}()
}
