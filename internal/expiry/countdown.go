package expiry

import (
	"context"
	"sync"
	"time"
)

// Countdown re-renders a detailed countdown for one item on a fixed cadence,
// pushing each rendering to the callback. It replaces the ambient
// once-per-second UI timer with an explicit handle: Stop always wins, and a
// stopped countdown never fires again.
type Countdown struct {
	target   time.Time
	interval time.Duration
	now      Clock
	onTick   func(string)

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewCountdown prepares a countdown toward target. A zero interval defaults
// to one second, matching the display cadence for fruits.
func NewCountdown(target time.Time, interval time.Duration, now Clock, onTick func(string)) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Countdown{
		target:   target,
		interval: interval,
		now:      now,
		onTick:   onTick,
		done:     make(chan struct{}),
	}
}

// Start begins ticking. The first rendering is delivered immediately so the
// display never sits empty for a full interval. Starting twice, or after
// Stop, is a no-op.
func (c *Countdown) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		c.onTick(DetailedTimeRemaining(c.target, c.now))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.onTick(DetailedTimeRemaining(c.target, c.now))
			}
		}
	}()
}

// Stop cancels the countdown and waits for the tick goroutine to exit, so
// no callback fires after Stop returns. A countdown stopped before Start
// stays stopped; Start afterward does nothing.
func (c *Countdown) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	started := c.started
	cancel := c.cancel
	c.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-c.done
}
