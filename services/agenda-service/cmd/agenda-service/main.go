package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/libs/config"
	"github.com/md-rashed-zaman/clinicagenda/libs/db"
	"github.com/md-rashed-zaman/clinicagenda/libs/grpcx"
	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
	"github.com/md-rashed-zaman/clinicagenda/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicagenda/libs/otel"
	"github.com/md-rashed-zaman/clinicagenda/libs/runtime"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/directory"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/store"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/view"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var checks []runtime.ReadyCheck
	dir, pool, err := openDirectory(ctx, cfg, logger)
	if err != nil {
		logger.Error("provider directory init failed", "err", err)
		panic(err)
	}
	if pool != nil {
		defer pool.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	}

	box := outbox.New(cfg.OutboxMax)
	publisher := outbox.NewPublisher(box, logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	publisherDone := make(chan struct{})
	go func() {
		defer close(publisherDone)
		publisher.Run(ctx)
	}()
	if publisher.Enabled() {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}

	appointments := store.NewAppointments()
	controller := lifecycle.NewController(appointments, dir, box, logger, lifecycle.Options{
		RejectOverlaps: cfg.RejectOverlaps,
	})
	if cfg.SeedDemo {
		seedDemoDay(ctx, controller, cfg.Location, logger)
	}
	agendaHandler := handlers.NewAgendaHandler(appointments, controller, dir, view.NewProjector(cfg.Grid), logger, cfg.Location)

	rateLimitMW, rdb := rateLimiter(cfg, logger)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	agendaHandler.Register(mux)
	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(cfg.CORS),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(cfg.BodyLimit),
		httpx.WithTimeout(cfg.RequestTimeout),
		rateLimitMW,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "agenda")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.GRPCPort != "" {
		if err := startGrpcServer(ctx, logger, cfg); err != nil {
			logger.Error("grpc server init failed", "err", err)
		}
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	select {
	case <-publisherDone:
	case <-shutdownCtx.Done():
		logger.Warn("outbox publisher did not stop in time", "pending", box.Len())
	}
	logger.Info("http server stopped")
}

// openDirectory picks the provider roster source: Postgres, then PROVIDERS_JSON, then the built-in list.
func openDirectory(ctx context.Context, cfg serviceConfig, logger *slog.Logger) (directory.Directory, *db.Pool, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{
			MaxConns: int32(config.Int("DB_MAX_CONNS", 4)),
		})
		if err != nil {
			return nil, nil, err
		}
		dir, err := directory.LoadPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("provider directory loaded", "source", "postgres")
		return dir, pool, nil
	case cfg.ProvidersJSON != "":
		dir, err := directory.FromJSON(cfg.ProvidersJSON)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("provider directory loaded", "source", "env")
		return dir, nil, nil
	default:
		logger.Info("provider directory loaded", "source", "builtin")
		return directory.Default(), nil, nil
	}
}

func rateLimiter(cfg serviceConfig, logger *slog.Logger) (httpx.Middleware, *redis.Client) {
	if cfg.RedisAddr == "" {
		logger.Info("rate limiting enabled (in-memory)", "per_minute", cfg.RateLimitPerMinute)
		return httpx.RateLimit(httpx.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute), logger, false), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	logger.Info("rate limiting enabled (redis)", "per_minute", cfg.RateLimitPerMinute, "redis_addr", cfg.RedisAddr)
	limiter := httpx.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.RateLimitPrefix)
	return httpx.RateLimit(limiter, logger, cfg.RateLimitFailOpen), rdb
}

func startGrpcServer(ctx context.Context, logger *slog.Logger, cfg serviceConfig) error {
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}
	srv := grpcx.NewServer(logger)
	srv.SetServing("", true)
	srv.SetServing(cfg.Service, true)
	srv.ServeUntilDone(ctx, lis)
	return nil
}
