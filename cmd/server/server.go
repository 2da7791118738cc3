package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kashguard/go-escrow/internal/api"
	"github.com/kashguard/go-escrow/internal/api/router"
	"github.com/kashguard/go-escrow/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// New returns the server command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the escrow API server",
		Run: func(_ *cobra.Command, _ []string) {
			run()
		},
	}
}

func run() {
	cfg := config.DefaultServiceConfigFromEnv()

	if level, err := zerolog.ParseLevel(cfg.Logger.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}
	router.Init(s)

	go func() {
		log.Info().Str("address", cfg.Echo.ListenAddress).Msg("Starting server")
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server stopped unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := s.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to shut down cleanly")
	}
}
