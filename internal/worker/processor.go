package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/dmikhr/freshkeep/internal/notify"
	"github.com/dmikhr/freshkeep/internal/queue"
	"github.com/dmikhr/freshkeep/internal/storage"
)

// Processor is plugged into the asynq worker loop. It runs the same expiry
// check the in-process watcher does, against the durable repository.
type Processor struct {
	inventory  storage.Inventory
	settings   storage.SettingsStore
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(inventory storage.Inventory, settings storage.SettingsStore, dispatcher *notify.Dispatcher, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{inventory: inventory, settings: settings, dispatcher: dispatcher, logger: logger}
}

// Handler registers the expiry-check handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ExpiryCheckTask, p.handleExpiryCheck)
	return mux
}

func (p *Processor) handleExpiryCheck(ctx context.Context, task *asynq.Task) error {
	var payload queue.ExpiryCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	settings, err := p.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.Enabled {
		return nil
	}
	threshold := settings.ThresholdDays
	if payload.ThresholdDays > 0 {
		threshold = payload.ThresholdDays
	}
	items, err := p.inventory.GetExpiring(ctx, threshold)
	if err != nil {
		return fmt.Errorf("query expiring items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	native := p.dispatcher.Show(ctx, "Food Items Expiring Soon",
		fmt.Sprintf("You have %d food item(s) expiring soon", len(items)))
	p.logger.Info("expiry notification sent", "items", len(items), "native", native)
	return nil
}
