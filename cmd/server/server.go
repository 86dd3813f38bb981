package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/namastexlabs/automagik-agents-sub001/internal/config"
	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/retry"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/database"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/deadletter"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/graphiti"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/logger"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/observability"
	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver"
	"github.com/namastexlabs/automagik-agents-sub001/internal/worker"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	recorder, err := newDeadLetterStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize dead-letter store")
	}

	graphClient := graphiti.NewClient(cfg.GraphitiURL, cfg.GraphitiAPIKey, log)

	pool := worker.NewPool(graphClient, recorder, worker.Config{
		QueueCapacity: cfg.QueueCapacity,
		WorkerCount:   cfg.WorkerCount,
		WriteTimeout:  cfg.WriteTimeout,
		RetryPolicy: retry.Policy{
			MaxAttempts:     cfg.MaxAttempts,
			InitialDelay:    cfg.RetryBackoffBase,
			MaxDelay:        cfg.RetryBackoffMax,
			BackoffStrategy: retry.BackoffLinear,
			JitterFactor:    retry.DefaultJitterFactor,
		},
	}, log)

	// Workers draw attempt contexts from this context, so it must outlive
	// the signal context: draining finishes in-flight writes after SIGTERM.
	if err := pool.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("start ingestion pool")
	}
	defer func() {
		log.Info().Msg("draining ingestion pool")
		pool.Stop(cfg.DrainTimeout)
	}()

	reporter := worker.NewReporter(pool, cfg.MetricsInterval, log)
	go reporter.Run(ctx)

	httpServer := httpserver.New(cfg, log, pool, recorder)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func newDeadLetterStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (deadletter.Recorder, error) {
	if cfg.DeadLetterStore != "postgres" {
		return deadletter.NewInMemoryStore(), nil
	}

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return deadletter.NewPostgresStore(db), nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
