package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/techagentng/marketplace/config"
	"github.com/techagentng/marketplace/db"
	"github.com/techagentng/marketplace/logging"
	"github.com/techagentng/marketplace/relay"
	"github.com/techagentng/marketplace/services"
)

const shutdownTimeout = 15 * time.Second

// Server holds all the dependencies our handlers need.
type Server struct {
	Config              *config.Config
	DB                  *db.GormDB
	UserRepository      db.UserRepository
	UserService         services.UserService
	ListingService      services.ListingService
	ChatService         services.ChatService
	NotificationService services.NotificationService
	MediaService        services.MediaService
	Relay               *relay.Relay
	RateLimitStore      ratelimit.Store
}

// Handler returns the fully routed engine.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Int("port", s.Config.Port).Str("env", s.Config.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logging.Info().Msg("server exited")
	return nil
}
