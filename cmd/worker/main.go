package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/distillhq/distillery/internal/batch"
	"github.com/distillhq/distillery/internal/cache"
	"github.com/distillhq/distillery/internal/config"
	"github.com/distillhq/distillery/internal/database"
	"github.com/distillhq/distillery/internal/embedding"
	"github.com/distillhq/distillery/internal/evaluation"
	"github.com/distillhq/distillery/internal/finetune"
	"github.com/distillhq/distillery/internal/pipeline"
	"github.com/distillhq/distillery/internal/provider"
	"github.com/distillhq/distillery/internal/queue"
	"github.com/distillhq/distillery/internal/queue/workers"
	"github.com/distillhq/distillery/internal/registry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var reg *registry.Registry
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database unavailable, running without registry", "error", err)
	} else {
		defer db.Close()
		if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
			slog.Warn("migrations failed", "error", err)
		}
		reg = registry.New(db)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	api := provider.NewClient(cfg.OpenAI)
	batchClient := batch.NewClient(api, cfg.Pipeline.CompletionWindow)
	poll := batch.PollOptions{Interval: cfg.Pipeline.PollInterval, Deadline: cfg.Pipeline.PollDeadline}

	embedSvc := embedding.NewService(api, cache.NewCache(rdb),
		cfg.Pipeline.EmbeddingModel, cfg.Pipeline.EmbeddingDims, cfg.Pipeline.EmbeddingTTL)

	pipe := pipeline.New(batchClient, reg, cfg.Pipeline.DataDir, poll)
	finetuneSvc := finetune.NewService(api)
	runner := evaluation.NewRunner(batchClient, embedSvc, reg, cfg.Pipeline.DataDir, poll)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// Batch tasks spend almost all their time waiting on the
			// provider, so a small pool is plenty.
			Concurrency: 4,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	generateWorker := workers.NewGenerateWorker(pipe)
	finetuneWorker := workers.NewFinetuneWorker(finetuneSvc, reg, cfg.Pipeline.PollInterval, cfg.Pipeline.PollDeadline)
	evaluateWorker := workers.NewEvaluateWorker(runner)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeBatchGenerate, generateWorker.ProcessTask)
	mux.HandleFunc(queue.TypeFinetuneRun, finetuneWorker.ProcessTask)
	mux.HandleFunc(queue.TypeEvalRun, evaluateWorker.ProcessTask)

	slog.Info("starting worker", "concurrency", 4)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
