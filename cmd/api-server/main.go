package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/spa-bookings/internal/api"
	"github.com/hackgods/spa-bookings/internal/booking"
	"github.com/hackgods/spa-bookings/internal/config"
	"github.com/hackgods/spa-bookings/internal/db"
	"github.com/hackgods/spa-bookings/internal/notify"
	"github.com/hackgods/spa-bookings/internal/payment"
	redisclient "github.com/hackgods/spa-bookings/internal/redis"
	"github.com/hackgods/spa-bookings/internal/testimonial"
)

var version = "dev"

func main() {
	log := newLogger("info", "text")
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	log.Info("api-server starting",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.HTTPPort),
		slog.String("lock_backend", cfg.LockBackend),
		slog.Duration("conflict_lookback", cfg.ConflictLookback),
		slog.Duration("max_booking_duration", cfg.MaxBookingDuration),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns: cfg.PGMaxConns,
		MinConns: cfg.PGMinConns,
	})
	cancelPg()
	if err != nil {
		log.Error("postgres connection failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer pgPool.Close()
	log.Info("connected to postgres")

	if cfg.MigrateOnStart {
		migrateCtx, cancelMigrate := context.WithTimeout(rootCtx, 30*time.Second)
		err := db.Migrate(migrateCtx, pgPool)
		cancelMigrate()
		if err != nil {
			log.Error("migration failed", slog.Any("err", err))
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	var rdb *redis.Client
	var locker redisclient.Locker

	switch cfg.LockBackend {
	case config.LockBackendRedis:
		rdb, err = redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Error("redis connection failed", slog.Any("err", err), slog.String("addr", cfg.RedisAddr))
			os.Exit(1)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		locker = redisclient.NewRedisTherapistLocker(rdb, cfg.LockTTL, cfg.LockWait)
		log.Info("connected to redis", slog.String("addr", cfg.RedisAddr))
	default:
		locker = redisclient.NewLocalTherapistLocker(cfg.LockWait)
		log.Warn("using in-process therapist lock; run a single replica")
	}

	channels, closers := buildNotifiers(cfg.Notify, log)
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("notifier close failed", slog.Any("err", err))
			}
		}
	}()
	notifier := notify.NewAsync(channels, cfg.Notify.QueueSize, cfg.Notify.Workers, cfg.Notify.Timeout, log)

	bookings := booking.NewService(booking.NewPgRepository(pgPool), locker, notifier, cfg, log)
	testimonials := testimonial.NewService(testimonial.NewPgRepository(pgPool))
	payments := payment.NewService(cfg.PaymentDelay, cfg.PaymentQRBaseURL)

	router := api.NewRouter(api.RouterConfig{
		Bookings:       bookings,
		Testimonials:   testimonials,
		Payments:       payments,
		Health:         api.NewHealthHandler(pgPool, api.RedisPinger(rdb), cfg.Env, version),
		Location:       cfg.Location(),
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("http server started", slog.String("addr", srv.Addr))

	select {
	case <-rootCtx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Warn("pending notifications dropped", slog.Any("err", err))
	}
	log.Info("api-server stopped")
}

// buildNotifiers returns every configured channel, falling back to the log.
func buildNotifiers(cfg config.NotifyConfig, log *slog.Logger) (notify.Multi, []func() error) {
	var channels notify.Multi
	var closers []func() error

	if cfg.TelegramEnabled() {
		channels = append(channels, notify.NewTelegram(cfg.TelegramBaseURL, cfg.TelegramToken, cfg.TelegramChatID, nil))
		log.Info("telegram notifications enabled")
	}
	if cfg.AMQPEnabled() {
		pub, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn("amqp notifications disabled", slog.Any("err", err))
		} else {
			channels = append(channels, pub)
			closers = append(closers, pub.Close)
			log.Info("amqp notifications enabled", slog.String("exchange", cfg.AMQPExchange))
		}
	}
	if cfg.TwilioEnabled() {
		channels = append(channels, notify.NewSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom))
		log.Info("sms notifications enabled")
	}
	if len(channels) == 0 {
		channels = append(channels, notify.NewLog(log))
	}
	return channels, closers
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With(slog.String("service", "spa-bookings"))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
