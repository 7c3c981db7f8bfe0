// Package api exposes the project service and the scheduler over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aristath/planner/internal/config"
	"github.com/aristath/planner/internal/project"
)

// Server is the planner HTTP server.
type Server struct {
	routes     *Handler
	handler    http.Handler
	cfg        config.ServerConfig
	httpServer *http.Server
}

// NewServer wires the HTTP handlers and returns a Server instance.
func NewServer(svc *project.Service, cfg config.PlannerConfig, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	routes := NewHandler(svc, HeaderAuthenticator{Header: cfg.Server.UserHeader}, cfg.Limits)
	routes.Register(mux)

	handler := withRequestScope(mux, logger, cfg.Server.RequestTimeout())
	return &Server{
		routes:  routes,
		handler: handler,
		cfg:     cfg.Server,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the HTTP handler, making it easier to embed the server elsewhere.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ReportStoreState makes /health include the store's breaker state as
// reported by state. A state of "open" marks the service degraded.
// Call it before Serve.
func (s *Server) ReportStoreState(state func() string) {
	s.routes.storeState = state
}

// Serve accepts connections on l until Shutdown is called.
// A clean shutdown returns nil.
func (s *Server) Serve(l net.Listener) error {
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, waiting at most the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout())
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
