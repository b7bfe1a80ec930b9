// Package main runs the FreshKeep background worker: an asynq consumer
// handling expiry checks plus the scheduler that enqueues them on a fixed
// cadence.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dmikhr/freshkeep/internal/config"
	"github.com/dmikhr/freshkeep/internal/database"
	"github.com/dmikhr/freshkeep/internal/notify"
	"github.com/dmikhr/freshkeep/internal/queue"
	"github.com/dmikhr/freshkeep/internal/repository"
	"github.com/dmikhr/freshkeep/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	repo := repository.NewInventoryRepository(pool, time.Now)

	var native notify.Notifier
	if cfg.WebhookURL != "" {
		native = notify.NewWebhookNotifier(cfg.WebhookURL, nil)
	}
	dispatcher := notify.NewDispatcher(native, notify.NewToastNotifier(0), logger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerCount,
	})
	processor := worker.NewProcessor(repo, repo, dispatcher, logger)

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if err := queue.RegisterSchedule(scheduler, cfg.CheckInterval.String()); err != nil {
		log.Fatalf("register schedule: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	defer scheduler.Shutdown()

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	if err := srv.Run(processor.Handler()); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
