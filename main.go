package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kashguard/go-escrow/cmd/cert"
	"github.com/kashguard/go-escrow/cmd/db"
	"github.com/kashguard/go-escrow/cmd/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	if os.Getenv("SERVER_LOGGER_PRETTY_PRINT_CONSOLE") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	rootCmd := &cobra.Command{
		Use:   "escrowd",
		Short: "Progressive session escrow engine",
	}
	rootCmd.AddCommand(
		server.New(),
		db.New(),
		cert.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
