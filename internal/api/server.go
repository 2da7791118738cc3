package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/config"
	"github.com/kashguard/go-escrow/internal/escrow"
	"github.com/kashguard/go-escrow/internal/events"
	"github.com/kashguard/go-escrow/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	// Postgres driver for database/sql.
	_ "github.com/lib/pq"
)

// Router groups the route trees the handlers attach to.
type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1      *echo.Group
	APIV1Admin *echo.Group
}

// Server is the central struct keeping all dependencies. Components are
// initialized in order by InitNewServer; the echo instance and router are
// attached afterwards by router.Init.
type Server struct {
	Echo       *echo.Echo
	Management *echo.Echo
	Router     *Router

	Config  config.Server
	DB      *sql.DB
	Redis   *redis.Client
	Clock   time2.Clock
	JWT     *auth.JWTManager
	Engine  *escrow.Engine
	Events  *events.Publisher
	Metrics *metrics.Service
}

// Ready reports whether the server has been fully initialized.
func (s *Server) Ready() bool {
	return s.Echo != nil && s.Engine != nil
}

// Start runs the public listener and, when configured, the management
// listener for health and metrics. Blocks until the public listener stops.
func (s *Server) Start() error {
	if s.Management != nil {
		go func() {
			if err := s.Management.Start(s.Config.Management.ListenAddress); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Management listener stopped unexpectedly")
			}
		}()
	}
	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

// Shutdown drains in-flight requests and closes external connections.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Warn().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if s.Management != nil {
		if err := s.Management.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down management listener")
		}
	}
	if s.Echo != nil {
		if err := s.Echo.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}
	return nil
}
