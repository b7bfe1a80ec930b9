// Package main runs the self-contained FreshKeep server: in-memory
// inventory, local image files with signed URLs, and an in-process expiry
// watcher. No external services beyond the classifier are required.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmikhr/freshkeep/internal/api"
	"github.com/dmikhr/freshkeep/internal/classifier"
	"github.com/dmikhr/freshkeep/internal/config"
	"github.com/dmikhr/freshkeep/internal/imagestore"
	"github.com/dmikhr/freshkeep/internal/notify"
	"github.com/dmikhr/freshkeep/internal/signing"
	"github.com/dmikhr/freshkeep/internal/storage"
	"github.com/dmikhr/freshkeep/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	store := storage.NewMemoryStore(time.Now)

	local, err := imagestore.NewLocalStore(cfg.ImageDir)
	if err != nil {
		log.Fatalf("init image store: %v", err)
	}
	images := &api.LocalImages{
		Store:  local,
		Signer: signing.NewSigner(cfg.SigningSecret),
		TTL:    cfg.SignedURLTTL,
	}

	var native notify.Notifier
	if cfg.WebhookURL != "" {
		native = notify.NewWebhookNotifier(cfg.WebhookURL, nil)
	}
	dispatcher := notify.NewDispatcher(native, notify.NewToastNotifier(0), logger)

	watch := watcher.New(store, store, dispatcher, cfg.CheckInterval, logger)

	srv := api.New(cfg, store, store, api.Options{
		Images:     images,
		Classifier: classifier.NewClient(cfg.PredictURL, cfg.PredictBase64URL, nil),
		Dispatcher: dispatcher,
		Logger:     logger,
		OnSettingsChange: func(ctx context.Context) {
			watch.CheckNow(ctx)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watch.Start(ctx)
	defer watch.Stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
