package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/facuhernandez/melitrack/internal/config"
	"github.com/facuhernandez/melitrack/internal/store"
)

func migrateCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			logger := log.NewWithOptions(os.Stderr, log.Options{
				Level: parseLogLevel(cfg.Logging.Level),
			})

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			pool, err := pgxpool.New(ctx, cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			logger.Info("running migrations",
				"host", cfg.Database.Host, "database", cfg.Database.Name)

			if err := store.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			logger.Info("migrations complete")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall migration timeout")

	return cmd
}
