package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/hbnoboa/CRM-Builder-sub000/internal/config"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/copyengine"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/database"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/queue"
	"github.com/hbnoboa/CRM-Builder-sub000/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// Copies into one target tenant should not race each other;
			// a single worker goroutine serializes them.
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	engine := copyengine.NewEngine(copyengine.NewPostgresDB(db), cfg.Copy.TxTimeout)

	registry := queue.NewHandlersRegistry()
	copyWorker := workers.NewCopyWorker(engine)
	registry.Register(queue.TypeTenantCopy, asynq.HandlerFunc(copyWorker.ProcessTask))

	slog.Info("starting worker")
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
