package notify

import (
	"context"
	"sync"
	"time"
)

// Toast is one in-app notification entry.
type Toast struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToastNotifier keeps a bounded in-process feed of toasts. Pushing never
// fails; when the feed is full the oldest entry is dropped.
type ToastNotifier struct {
	mu     sync.Mutex
	toasts []Toast
	limit  int
	now    func() time.Time
}

// NewToastNotifier builds a feed holding at most limit entries.
func NewToastNotifier(limit int) *ToastNotifier {
	if limit <= 0 {
		limit = 50
	}
	return &ToastNotifier{limit: limit, now: time.Now}
}

// Available always reports true; the toast feed has no external dependency.
func (t *ToastNotifier) Available() bool { return true }

// Send satisfies Notifier and cannot fail.
func (t *ToastNotifier) Send(_ context.Context, title, body string) error {
	t.Push(title, body)
	return nil
}

// Push appends a toast, evicting the oldest entry past the limit.
func (t *ToastNotifier) Push(title, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toasts = append(t.toasts, Toast{Title: title, Body: body, CreatedAt: t.now().UTC()})
	if len(t.toasts) > t.limit {
		t.toasts = t.toasts[len(t.toasts)-t.limit:]
	}
}

// Recent returns a copy of the feed, newest last.
func (t *ToastNotifier) Recent() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, len(t.toasts))
	copy(out, t.toasts)
	return out
}
