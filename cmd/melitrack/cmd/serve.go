package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/facuhernandez/melitrack/internal/api/handlers"
	"github.com/facuhernandez/melitrack/internal/api/middleware"
	"github.com/facuhernandez/melitrack/internal/config"
	"github.com/facuhernandez/melitrack/internal/engine"
	"github.com/facuhernandez/melitrack/internal/meli"
	"github.com/facuhernandez/melitrack/internal/statecache"
	"github.com/facuhernandez/melitrack/internal/store"
	"github.com/facuhernandez/melitrack/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and sync scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cliLog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(cfg.Logging.Level),
	})
	slogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

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
		engine.WithStateTTL(cfg.Sync.StateTTL),
		engine.WithRequestTimeout(cfg.Sync.RequestTimeout),
		engine.WithTokenTimeout(cfg.Sync.TokenTimeout),
		engine.WithStaggerOffset(cfg.Schedule.StaggerOffset),
	)

	sched, err := engine.NewScheduler(
		eng,
		cfg.Schedule.CatalogInterval,
		cfg.Schedule.OrderInterval,
		slogger,
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	e := newRouter(cfg, slogger, st, eng)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	cliLog.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cliLog.Error("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cliLog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	cliLog.Info("server stopped")
	return nil
}

func newStateCache(cfg *config.Config) (statecache.Cache, error) {
	if cfg.Redis.Enabled {
		return statecache.NewRedisCache(
			cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB,
		)
	}
	return statecache.NewMemoryCache(), nil
}

func newRouter(
	cfg *config.Config,
	slogger *slog.Logger,
	st store.Store,
	eng *engine.Engine,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(slogger))
	e.Use(middleware.RequestLog(slogger))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	proxy := handlers.NewProxyHandler(slogger,
		handlers.WithProxyBaseURL(cfg.MercadoLibre.APIURL),
	)
	e.POST("/api/v1/proxy", proxy.Relay)

	api := humaecho.New(e, huma.DefaultConfig("melitrack", Version))
	handlers.RegisterAccountRoutes(api, handlers.NewAccountsHandler(eng))
	handlers.RegisterSyncRoutes(api, handlers.NewSyncHandler(eng))
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(st))
	handlers.RegisterSaleRoutes(api, handlers.NewSalesHandler(st))
	handlers.RegisterSyncRunRoutes(api, handlers.NewSyncRunsHandler(st))

	return e
}

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
