// Package storage contains the inventory persistence contracts and the
// in-memory implementation. Go keeps each package in its own folder; files
// in the folder share a namespace.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dmikhr/freshkeep/internal/model"
)

// ErrNotFound is exported so callers elsewhere can compare errors using
// errors.Is; Go encourages sentinel errors for simple cases.
var ErrNotFound = errors.New("food item not found")

// Inventory is the CRUD surface over the food-item collection. The memory
// store and the Postgres repository both satisfy it, so binaries choose
// durability by construction rather than by flag-checking at call sites.
type Inventory interface {
	GetAll(ctx context.Context) ([]model.FoodItem, error)
	GetByCategory(ctx context.Context, category model.Category) ([]model.FoodItem, error)
	Get(ctx context.Context, id string) (*model.FoodItem, error)
	Add(ctx context.Context, form model.FormData) (*model.FoodItem, error)
	Update(ctx context.Context, id string, patch model.Patch) (*model.FoodItem, error)
	Delete(ctx context.Context, id string) (bool, error)
	// GetExpiring returns items whose expiry is at or before now plus the
	// threshold, using raw timestamp arithmetic rather than the
	// midnight-normalized day math used for display.
	GetExpiring(ctx context.Context, thresholdDays int) ([]model.FoodItem, error)
}

// SettingsStore holds the single process-wide notification settings record.
type SettingsStore interface {
	GetSettings(ctx context.Context) (model.NotificationSettings, error)
	PutSettings(ctx context.Context, s model.NotificationSettings) error
}

// Clock matches expiry.Clock; redeclared here to keep the package leaf-level.
type Clock func() time.Time
