// Package watcher runs the periodic expiry check: read the settings, ask
// the store for soon-to-expire items, and emit one summary notification.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmikhr/freshkeep/internal/notify"
	"github.com/dmikhr/freshkeep/internal/storage"
)

// Watcher checks the inventory on a fixed cadence. Items inside the window
// re-trigger a notification on every run until they leave it or are
// removed; there is deliberately no cross-run suppression.
type Watcher struct {
	inventory  storage.Inventory
	settings   storage.SettingsStore
	dispatcher *notify.Dispatcher
	interval   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a watcher. A non-positive interval defaults to one hour.
func New(inventory storage.Inventory, settings storage.SettingsStore, dispatcher *notify.Dispatcher, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		inventory:  inventory,
		settings:   settings,
		dispatcher: dispatcher,
		interval:   interval,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start checks immediately, then on every tick until the context is
// cancelled or Stop is called. Starting twice, or after Stop, is a no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.started = true
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()
	go func() {
		defer close(w.done)
		w.CheckNow(ctx)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.CheckNow(ctx)
			}
		}
	}()
}

// Stop cancels the watcher and waits for the loop to exit; no check runs
// after Stop returns. A watcher stopped before Start stays stopped; Start
// afterward does nothing.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	cancel := w.cancel
	w.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-w.done
}

// CheckNow performs one expiry check. Exported so the settings handler can
// trigger an immediate check when settings load or change.
func (w *Watcher) CheckNow(ctx context.Context) {
	settings, err := w.settings.GetSettings(ctx)
	if err != nil {
		w.logger.Error("load notification settings", "error", err)
		return
	}
	if !settings.Enabled {
		return
	}
	items, err := w.inventory.GetExpiring(ctx, settings.ThresholdDays)
	if err != nil {
		w.logger.Error("query expiring items", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}
	// One summary notification for the whole batch, never one per item.
	title := "Food Items Expiring Soon"
	body := fmt.Sprintf("You have %d food item(s) expiring soon", len(items))
	native := w.dispatcher.Show(ctx, title, body)
	w.logger.Info("expiry notification sent", "items", len(items), "native", native)
}
