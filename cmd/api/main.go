// Package main runs the durable FreshKeep API: Postgres inventory, MinIO
// photo storage, and expiry checks delegated to the task queue instead of
// an in-process watcher.
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

	"github.com/dmikhr/freshkeep/internal/api"
	"github.com/dmikhr/freshkeep/internal/classifier"
	"github.com/dmikhr/freshkeep/internal/config"
	"github.com/dmikhr/freshkeep/internal/database"
	"github.com/dmikhr/freshkeep/internal/imagestore"
	"github.com/dmikhr/freshkeep/internal/notify"
	"github.com/dmikhr/freshkeep/internal/queue"
	"github.com/dmikhr/freshkeep/internal/repository"
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

	store, err := imagestore.NewMinioStore(cfg)
	if err != nil {
		log.Fatalf("init image storage: %v", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatalf("ensure bucket: %v", err)
	}

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	var native notify.Notifier
	if cfg.WebhookURL != "" {
		native = notify.NewWebhookNotifier(cfg.WebhookURL, nil)
	}
	dispatcher := notify.NewDispatcher(native, notify.NewToastNotifier(0), logger)

	srv := api.New(cfg, repo, repo, api.Options{
		Images:     &api.MinioImages{Store: store, TTL: cfg.SignedURLTTL},
		Classifier: classifier.NewClient(cfg.PredictURL, cfg.PredictBase64URL, nil),
		Dispatcher: dispatcher,
		Logger:     logger,
		OnSettingsChange: func(ctx context.Context) {
			// New thresholds should take effect without waiting for the
			// next scheduled run.
			if err := queue.EnqueueExpiryCheck(ctx, client, queue.ExpiryCheckPayload{}); err != nil {
				logger.Error("enqueue expiry check", "error", err)
			}
		},
	})

	if err := srv.Run(ctx); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}
