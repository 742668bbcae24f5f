package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/config"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/internal/logger"
	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/referential"
)

// Server exposes the retrieval workflow over HTTP. The catalog is swapped
// atomically so the referential watcher can reload it under a live server.
type Server struct {
	cfg     *config.AppConfig
	log     *logger.Logger
	catalog atomic.Pointer[referential.Catalog]
	http    *http.Server
}

// New creates a server over a loaded catalog.
func New(cfg *config.AppConfig, catalog *referential.Catalog, log *logger.Logger) *Server {
	s := &Server{cfg: cfg, log: log}
	s.catalog.Store(catalog)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/stop-monitoring", s.handleStopMonitoring)
	mux.HandleFunc("/api/stop-monitoring/artifact", s.handleArtifact)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the route handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start begins listening in the background.
func (s *Server) Start() {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()
	s.log.Info("server listening", "addr", s.http.Addr)
}

// HandleGracefulShutdown blocks until SIGINT or SIGTERM, then drains the
// server.
func (s *Server) HandleGracefulShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	s.log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Error("server shutdown error", "error", err)
	} else {
		s.log.Info("server shut down successfully")
	}
}
