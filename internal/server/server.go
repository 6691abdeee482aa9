// Package server exposes the persisted ratio data over a read-only HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ratiowatch/internal/server/handler"
	"ratiowatch/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates all HTTP handlers that the server registers.
type Handlers struct {
	Health       *handler.HealthHandler
	Pairs        *handler.PairsHandler
	History      *handler.HistoryHandler
	Alerts       *handler.AlertsHandler
	Stats        *handler.StatsHandler
	VolumeRatios *handler.VolumeRatiosHandler
}

// Server is the read-only HTTP API over the monitor's persisted data.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the logging and CORS middleware applied. Handlers for endpoints that need
// a database may be nil; their routes respond 503.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/pairs", handlers.Pairs.ListPairs)

	if handlers.History != nil {
		mux.HandleFunc("GET /api/history/{pair}", handlers.History.History)
	} else {
		mux.HandleFunc("GET /api/history/{pair}", unavailable)
	}
	if handlers.Alerts != nil {
		mux.HandleFunc("GET /api/alerts", handlers.Alerts.ListAlerts)
	} else {
		mux.HandleFunc("GET /api/alerts", unavailable)
	}
	if handlers.Stats != nil {
		mux.HandleFunc("GET /api/stats/{pair}", handlers.Stats.Stats)
	} else {
		mux.HandleFunc("GET /api/stats/{pair}", unavailable)
	}
	if handlers.VolumeRatios != nil {
		mux.HandleFunc("GET /api/volume-ratios/{pair}", handlers.VolumeRatios.ListVolumeRatios)
	} else {
		mux.HandleFunc("GET /api/volume-ratios/{pair}", unavailable)
	}

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func unavailable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(`{"error":"database not configured"}`))
}
