package db

import (
	"context"
	"database/sql"

	"github.com/kashguard/go-escrow/internal/config"
	"github.com/kashguard/go-escrow/internal/storage"
	"github.com/kashguard/go-escrow/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

// New returns the db command group.
func New() *cobra.Command {
	return command.NewSubcommandGroup("db",
		newMigrate(),
	)
}

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the ledger schema",
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			db, err := sql.Open("postgres", cfg.Database.ConnectionString())
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to open database")
			}
			defer db.Close()

			ledger := storage.NewPostgresLedger(db)
			if err := ledger.EnsureSchema(context.Background()); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply ledger schema")
			}
			log.Info().Msg("Ledger schema applied")
		},
	}
}
