//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/namastexlabs/automagik-agents-sub001/internal/config"
	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/episode"
	"github.com/namastexlabs/automagik-agents-sub001/internal/domain/retry"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/deadletter"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/graphiti"
	"github.com/namastexlabs/automagik-agents-sub001/internal/infrastructure/logger"
	"github.com/namastexlabs/automagik-agents-sub001/internal/interfaces/httpserver"
	"github.com/namastexlabs/automagik-agents-sub001/internal/worker"
)

var ingestSet = wire.NewSet(
	newGraphitiClient,
	wire.Bind(new(episode.Writer), new(*graphiti.Client)),
	newRecorder,
	newPoolConfig,
	newPool,
)

// BuildApplication demonstrates how to assemble the ingestion service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		ingestSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newGraphitiClient(cfg *config.Config, log zerolog.Logger) *graphiti.Client {
	return graphiti.NewClient(cfg.GraphitiURL, cfg.GraphitiAPIKey, log)
}

func newRecorder(ctx context.Context, cfg *config.Config, log zerolog.Logger) (deadletter.Recorder, error) {
	return newDeadLetterStore(ctx, cfg, log)
}

func newPoolConfig(cfg *config.Config) worker.Config {
	return worker.Config{
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
	}
}

func newPool(writer episode.Writer, recorder deadletter.Recorder, cfg worker.Config, log zerolog.Logger) *worker.Pool {
	return worker.NewPool(writer, recorder, cfg, log)
}
