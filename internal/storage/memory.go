package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmikhr/freshkeep/internal/model"
)

// MemoryStore is the in-memory inventory using RWMutex. RWMutex lets us
// differentiate read locks (multiple concurrent readers) from write locks
// (single writer), which suits the request-heavy nature of APIs. A separate
// order slice preserves insertion order, which a bare map would lose.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string]*model.FoodItem
	order    []string
	settings model.NotificationSettings
	now      Clock
}

// NewMemoryStore constructs a MemoryStore. A nil clock falls back to
// time.Now; tests pass a fixed clock.
func NewMemoryStore(now Clock) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		items:    make(map[string]*model.FoodItem),
		settings: model.DefaultNotificationSettings(),
		now:      now,
	}
}

// GetAll returns copies of every item in insertion order.
func (m *MemoryStore) GetAll(_ context.Context) ([]model.FoodItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.FoodItem, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.items[id])
	}
	return out, nil
}

// GetByCategory filters by category, preserving insertion order.
func (m *MemoryStore) GetByCategory(_ context.Context, category model.Category) ([]model.FoodItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.FoodItem
	for _, id := range m.order {
		if item := m.items[id]; item.Category == category {
			out = append(out, *item)
		}
	}
	return out, nil
}

// Get returns a copy of a single item.
func (m *MemoryStore) Get(_ context.Context, id string) (*model.FoodItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Returning a shallow copy prevents callers from mutating internal state.
	cp := *item
	return &cp, nil
}

// Add appends a new item with a generated identifier and a store-assigned
// CreatedAt, and returns a copy of the created record.
func (m *MemoryStore) Add(_ context.Context, form model.FormData) (*model.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := &model.FoodItem{
		ID:         uuid.NewString(),
		Name:       form.Name,
		Category:   form.Category,
		ExpiryDate: form.ExpiryDate,
		Image:      form.Image,
		CreatedAt:  m.now().UTC(),
		Notes:      form.Notes,
		Freshness:  form.Freshness,
	}
	m.items[item.ID] = item
	m.order = append(m.order, item.ID)
	cp := *item
	return &cp, nil
}

// Update merges the patch into an existing record. Returns ErrNotFound and
// leaves the store untouched when the id is unknown.
func (m *MemoryStore) Update(_ context.Context, id string, patch model.Patch) (*model.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	applyPatch(item, patch)
	cp := *item
	return &cp, nil
}

// Delete removes a record, reporting whether anything was removed.
func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// GetExpiring returns items expiring at or before now + thresholdDays,
// already-expired items included.
func (m *MemoryStore) GetExpiring(_ context.Context, thresholdDays int) ([]model.FoodItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := m.now().Add(time.Duration(thresholdDays) * 24 * time.Hour)
	var out []model.FoodItem
	for _, id := range m.order {
		if item := m.items[id]; !item.ExpiryDate.After(cutoff) {
			out = append(out, *item)
		}
	}
	return out, nil
}

// GetSettings returns the session-scoped notification settings.
func (m *MemoryStore) GetSettings(_ context.Context) (model.NotificationSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

// PutSettings replaces the notification settings.
func (m *MemoryStore) PutSettings(_ context.Context, s model.NotificationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

func applyPatch(item *model.FoodItem, patch model.Patch) {
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.ExpiryDate != nil {
		item.ExpiryDate = *patch.ExpiryDate
	}
	if patch.Image != nil {
		item.Image = *patch.Image
	}
	if patch.Notes != nil {
		item.Notes = *patch.Notes
	}
	if patch.Freshness != nil {
		item.Freshness = patch.Freshness
	}
}
