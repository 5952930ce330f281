package api

import (
	"context"
	"net/http"
	"time"
)

const shutdownGracePeriod = 15 * time.Second

// Server wraps http.Server with a bounded graceful shutdown.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a server listening on addr with the given handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, forcing the listener closed after the
// grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
