package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiodesk/internal/api"
	"studiodesk/internal/config"
	"studiodesk/internal/database"
	"studiodesk/internal/database/postgres"
	"studiodesk/internal/domain"
	"studiodesk/internal/events"
	"studiodesk/internal/export"
	"studiodesk/internal/google"
	"studiodesk/internal/invoice"
	"studiodesk/internal/logging"
	"studiodesk/internal/metrics"
	"studiodesk/internal/repository"
	"studiodesk/internal/service"
	"studiodesk/internal/storage"
	"studiodesk/internal/telegram"
	"studiodesk/internal/telemetry"
	"studiodesk/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// appStore is what both database drivers provide.
type appStore interface {
	domain.Store
	worker.TaskQueue
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg.Monitoring.TracingEnabled, cfg.Monitoring.ServiceName, cfg.App.Version, &logger)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	store, sqliteDB, err := initStore(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer store.Close()

	redisClient := initRedis(ctx, cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()
	cache := initCache(redisClient, &logger)

	bus := events.NewEventBus(logging.Component(&logger, "events"))

	notifications := service.NewNotificationService(store, initTelegram(cfg, &logger), logging.Component(&logger, "notifications"))
	notifications.Subscribe(bus)

	var syncWorker domain.SyncWorker
	if sheets := initGoogleSheets(ctx, cfg, &logger); sheets != nil {
		sheetsWorker := worker.NewSheetsWorker(store, sheets, redisClient, worker.DefaultRetryPolicy(), logging.Component(&logger, "sheets-worker"))
		go sheetsWorker.Start(ctx)
		go sheets.RunCacheRefresh(ctx, 30*time.Minute)
		syncWorker = sheetsWorker
	}

	bookings := service.NewBookingService(store, bus, syncWorker, logging.Component(&logger, "bookings"))

	logoFiles := storage.NewLocalStorage(cfg.Storage.LogoDir, cfg.Storage.PublicBaseURL)
	logos := service.NewLogoService(store, logoFiles, cache, cfg.Storage.DefaultLogoURL, logging.Component(&logger, "logos"))

	if cfg.Reminders.Enabled {
		reminder := worker.NewDueReminder(store, cache, notifications, cfg.Reminders.Interval,
			cfg.Reminders.UpcomingDays, logging.Component(&logger, "reminders"))
		go reminder.Start(ctx)
	}

	if sqliteDB != nil && cfg.Backup.Enabled {
		backups := database.NewBackupService(sqliteDB, cfg.Backup, logging.Component(&logger, "backup"))
		go backups.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	limiter := api.NewRateLimiter(cfg.API.RateLimit)
	deps := api.Deps{
		Bookings:      bookings,
		Notifications: notifications,
		Logos:         logos,
		Invoices:      invoice.NewRenderer(cfg.Invoice),
		Exporter:      export.NewExporter(cfg.Exports.Path, logging.Component(&logger, "export")),
		LogoFiles:     logoFiles,
		LogoURLPrefix: cfg.Storage.PublicBaseURL,
		Store:         store,
	}

	return startServers(ctx, cfg, deps, limiter, store, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	return cfg, logger, closer, nil
}

// initStore opens the configured database. The SQLite handle is also
// returned for backups.
func initStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (appStore, *database.DB, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.Database.Postgres.DSN())
		if err != nil {
			logger.Error().Err(err).Str("host", cfg.Database.Postgres.Host).Msg("init postgres")
			return nil, nil, err
		}
		logger.Info().Str("host", cfg.Database.Postgres.Host).Str("dbname", cfg.Database.Postgres.DBName).Msg("postgres connected")
		return store, nil, nil
	default:
		db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
		if err != nil {
			logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
			return nil, nil, err
		}
		return db, db, nil
	}
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initCache(client *redis.Client, logger *zerolog.Logger) domain.Cache {
	memory := repository.NewMemoryCache()
	if client == nil {
		return memory
	}
	return repository.NewFailoverCache(
		repository.NewRedisCache(client, "studiodesk:"),
		memory,
		logging.Component(logger, "cache"),
	)
}

func initTelegram(cfg *config.Config, logger *zerolog.Logger) domain.NotificationForwarder {
	if cfg.Telegram.BotToken == "" {
		return nil
	}
	bot, err := telegram.NewBotAPI(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, notifications stay local")
		return nil
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram forwarding enabled")
	return telegram.NewNotifier(bot, cfg.Telegram.ChatID)
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheets, err := google.NewSheetsService(ctx,
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.BookingSpreadSheetID,
		cfg.Google.SheetName,
		logging.Component(logger, "sheets"),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheets.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}
	if err := sheets.EnsureHeader(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets header")
	}
	if err := sheets.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets cache warm-up")
	}

	logger.Info().Msg("google sheets connected")
	return sheets
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func startServers(
	ctx context.Context,
	cfg *config.Config,
	deps api.Deps,
	limiter *api.RateLimiter,
	store api.Pinger,
	logger *zerolog.Logger,
) error {
	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		var err error
		grpcServer, err = api.NewGRPCServer(&cfg.API, store, limiter, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
		go grpcServer.RunProbe(ctx)
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	var httpServer *api.HTTPServer
	if cfg.API.HTTP.Enabled {
		httpServer = api.NewHTTPServer(&cfg.API, deps, limiter, logger)
		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	if grpcServer == nil && httpServer == nil {
		logger.Warn().Msg("no API transport enabled; running background workers only")
	}
	logger.Info().Bool("http", httpServer != nil).Bool("grpc", grpcServer != nil).Msg("studiodesk started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("http shutdown")
		}
	}

	logger.Info().Msg("studiodesk stopped")
	return nil
}
