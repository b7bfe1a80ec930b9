// Package notify delivers expiry alerts. Two variants sit behind one
// interface: a webhook push (the "native" channel, which needs a granted
// permission) and an in-app toast feed that always succeeds. The dispatcher
// picks between them with a capability probe instead of feature-detection
// branching at call sites.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier is one delivery channel.
type Notifier interface {
	// Available reports whether this channel exists at all in the current
	// environment, before any permission handshake.
	Available() bool
	Send(ctx context.Context, title, body string) error
}

// Dispatcher routes a notification to the first usable channel. Permission
// for the native channel is requested once, opportunistically, and the
// outcome is cached for the session.
type Dispatcher struct {
	native   Notifier
	toast    *ToastNotifier
	logger   *slog.Logger
	permOnce sync.Once
	granted  bool
}

// NewDispatcher wires the native channel and the toast fallback. The toast
// notifier is required; native may be absent.
func NewDispatcher(native Notifier, toast *ToastNotifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{native: native, toast: toast, logger: logger}
}

// RequestPermission performs the one-time native-channel handshake. Safe to
// call repeatedly; only the first call does work.
func (d *Dispatcher) RequestPermission(ctx context.Context) bool {
	d.permOnce.Do(func() {
		if d.native == nil || !d.native.Available() {
			return
		}
		if p, ok := d.native.(interface {
			Probe(ctx context.Context) bool
		}); ok {
			d.granted = p.Probe(ctx)
			return
		}
		d.granted = true
	})
	return d.granted
}

// Show delivers a notification, returning true when the native channel
// carried it and false when it fell back to a toast. The fallback path
// never fails.
func (d *Dispatcher) Show(ctx context.Context, title, body string) bool {
	if d.native != nil && d.native.Available() && d.RequestPermission(ctx) {
		err := d.native.Send(ctx, title, body)
		if err == nil {
			return true
		}
		d.logger.Warn("native notification failed, falling back to toast", "error", err)
	}
	d.toast.Push(title, body)
	return false
}

// Toasts exposes the fallback feed for read access (API polling).
func (d *Dispatcher) Toasts() *ToastNotifier {
	return d.toast
}
