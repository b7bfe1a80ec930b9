package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// ExpiryCheckTask runs the periodic soon-to-expire scan.
	ExpiryCheckTask = "expiry:check"
)

// ExpiryCheckPayload lets callers override the settings threshold for a
// one-off check; zero means "use the stored settings".
type ExpiryCheckPayload struct {
	ThresholdDays int `json:"threshold_days,omitempty"`
}

// EnqueueExpiryCheck enqueues an immediate expiry check, used when settings
// change so the new threshold takes effect right away.
func EnqueueExpiryCheck(ctx context.Context, client *asynq.Client, payload ExpiryCheckPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(ExpiryCheckTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("enqueue expiry check: %w", err)
	}
	return nil
}

// RegisterSchedule installs the recurring expiry check on the scheduler.
func RegisterSchedule(scheduler *asynq.Scheduler, every string) error {
	task := asynq.NewTask(ExpiryCheckTask, []byte(`{}`))
	if _, err := scheduler.Register("@every "+every, task); err != nil {
		return fmt.Errorf("register expiry schedule: %w", err)
	}
	return nil
}
