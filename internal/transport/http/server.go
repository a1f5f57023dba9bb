package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/opentrusty/autoop/internal/config"
	"github.com/opentrusty/autoop/internal/observability/logger"
)

// Server runs the probe router until shut down
type Server struct {
	srv     *http.Server
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewServer creates a probe server for cfg
func NewServer(cfg config.HealthConfig, h *Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	limiter := NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst)
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(h, limiter, log),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		limiter: limiter,
		logger:  log.With(logger.Component("http")),
	}
}

// Start listens on the configured address and serves in the background.
// Listen errors are returned; serve errors after that are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	s.logger.Info(fmt.Sprintf("listening on %s", ln.Addr()), logger.Operation("listen"))

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", logger.Error(err))
		}
	}()
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	return s.srv.Shutdown(ctx)
}
