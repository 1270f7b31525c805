package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"studiobook/internal/api"
	"studiobook/internal/audit"
	"studiobook/internal/config"
	"studiobook/internal/database"
	"studiobook/internal/events"
	"studiobook/internal/lock"
	"studiobook/internal/metrics"
	"studiobook/internal/models"
	"studiobook/internal/service"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	logger := newLogger(cfg)

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var (
		rdb    *redis.Client
		locker lock.Locker
	)
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, lock.RedisLockerConfig{TTL: cfg.LockTTL()}, &logger)
		logger.Info().Str("address", cfg.Redis.Address).Msg("using redis slot locks")
	}

	bus := events.NewEventBus()
	subscribeAuditLog(bus, &logger)

	metrics.Register()

	bookings := service.NewBookingService(db, locker, bus, cfg.LockWait(), &logger)

	srv := api.NewHTTPServer(bookings, audit.NewExporter(db, &logger), api.Config{
		StaticDir: cfg.Server.StaticDir,
		RateLimit: rate.Limit(cfg.Server.RateLimitPerSecond),
		RateBurst: cfg.Server.RateLimitBurst,
	}, &logger)
	srv.AddReadinessCheck("database", db.PingContext)
	if rdb != nil {
		srv.AddReadinessCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.HealthCheckPort > 0 {
		go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, srv, &logger)
	}

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	backups := database.NewBackupService(db, database.BackupConfig{
		Enabled:       cfg.Backup.Enabled,
		Interval:      cfg.BackupInterval(),
		StoragePath:   cfg.Backup.Path,
		RetentionDays: cfg.Backup.RetentionDays,
	}, &logger)
	go backups.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctxShutdown); err != nil {
			logger.Error().Err(err).Msg("http server shutdown failed")
		}
	}()

	logger.Info().Str("address", cfg.Server.Address).Str("static_dir", cfg.Server.StaticDir).Msg("studio booking server started")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http server error")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	for _, eventType := range []string{events.BookingCreated, events.BookingCanceled} {
		bus.Subscribe(eventType, func(ev events.Event) error {
			var b models.Booking
			if err := ev.Decode(&b); err != nil {
				return err
			}
			logger.Debug().
				Int64("event_id", ev.ID).
				Str("event", ev.Type).
				Int64("booking_id", b.ID).
				Str("service", b.Service).
				Str("date", b.Date).
				Str("time", b.Time).
				Msg("booking event")
			return nil
		})
	}
}

func startHealthServer(ctx context.Context, port int, srv *api.HTTPServer, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.Healthz)
	mux.HandleFunc("/readyz", srv.Readyz)

	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serve(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}, "metrics", logger)
}

func serve(ctx context.Context, srv *http.Server, name string, logger *zerolog.Logger) {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}
