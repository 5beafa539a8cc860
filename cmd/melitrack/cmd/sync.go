package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/facuhernandez/melitrack/internal/config"
	"github.com/facuhernandez/melitrack/internal/engine"
	"github.com/facuhernandez/melitrack/internal/meli"
	"github.com/facuhernandez/melitrack/internal/store"
	"github.com/facuhernandez/melitrack/pkg/logger"
)

var (
	syncUserID string
	syncTarget string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a one-shot sync without starting the server",
	Long: "Runs catalog sync, order sync, or both once, for a single user or for " +
		"every connected account, then exits.",
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncUserID, "user", "", "sync only this user (default: all accounts)")
	syncCmd.Flags().StringVar(&syncTarget, "target", "all", "what to sync: catalog, orders, or all")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncTarget != "catalog" && syncTarget != "orders" && syncTarget != "all" {
		return fmt.Errorf("invalid target %q: want catalog, orders, or all", syncTarget)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cliLog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(cfg.Logging.Level),
	})
	slogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	cache, err := newStateCache(cfg)
	if err != nil {
		return fmt.Errorf("connecting to state cache: %w", err)
	}
	defer cache.Close()

	oauth := meli.NewOAuthClient(
		cfg.MercadoLibre.ClientID,
		cfg.MercadoLibre.ClientSecret,
		cfg.MercadoLibre.RedirectURI,
		meli.WithAuthURL(cfg.MercadoLibre.AuthURL),
		meli.WithTokenURL(cfg.MercadoLibre.TokenURL),
	)

	limiter := meli.NewRateLimiter(
		cfg.MercadoLibre.RateLimit.PerSecond,
		cfg.MercadoLibre.RateLimit.Burst,
		cfg.MercadoLibre.RateLimit.DailyLimit,
	)
	apiClient := meli.NewHTTPClient(
		meli.WithAPIURL(cfg.MercadoLibre.APIURL),
		meli.WithRateLimiter(limiter),
	)

	eng := engine.NewEngine(st, apiClient, oauth, cache,
		engine.WithLogger(slogger),
		engine.WithPageSize(cfg.Sync.PageSize),
		engine.WithOrderLookback(cfg.Sync.OrderLookback),
		engine.WithRequestTimeout(cfg.Sync.RequestTimeout),
		engine.WithTokenTimeout(cfg.Sync.TokenTimeout),
		engine.WithStaggerOffset(cfg.Schedule.StaggerOffset),
	)

	if syncUserID != "" {
		return syncOneUser(ctx, cliLog, eng, syncUserID)
	}

	if syncTarget == "catalog" || syncTarget == "all" {
		if err := eng.SyncAllCatalogs(ctx); err != nil {
			return fmt.Errorf("syncing catalogs: %w", err)
		}
	}
	if syncTarget == "orders" || syncTarget == "all" {
		if err := eng.SyncAllOrders(ctx); err != nil {
			return fmt.Errorf("syncing orders: %w", err)
		}
	}

	cliLog.Info("sync complete", "target", syncTarget)
	return nil
}

func syncOneUser(ctx context.Context, cliLog *log.Logger, eng *engine.Engine, userID string) error {
	if syncTarget == "catalog" || syncTarget == "all" {
		upserted := eng.SyncCatalog(ctx, userID)
		cliLog.Info("catalog sync complete", "user", userID, "listings", upserted)
	}

	if syncTarget == "orders" || syncTarget == "all" {
		upserted, err := eng.SyncOrders(ctx, userID)
		if err != nil {
			if errors.Is(err, engine.ErrNotConnected) {
				return fmt.Errorf("user %s is not connected", userID)
			}
			return fmt.Errorf("syncing orders for %s: %w", userID, err)
		}
		cliLog.Info("order sync complete", "user", userID, "sales", upserted)
	}

	return nil
}
