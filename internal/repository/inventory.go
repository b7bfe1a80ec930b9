// Package repository is the Postgres-backed inventory, the durable
// counterpart of storage.MemoryStore. Both satisfy storage.Inventory and
// storage.SettingsStore.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmikhr/freshkeep/internal/model"
	"github.com/dmikhr/freshkeep/internal/storage"
)

// InventoryRepository wraps all SQL used throughout the API and worker.
type InventoryRepository struct {
	pool *pgxpool.Pool
	now  storage.Clock
}

// NewInventoryRepository constructs a repository. A nil clock falls back to
// time.Now.
func NewInventoryRepository(pool *pgxpool.Pool, now storage.Clock) *InventoryRepository {
	if now == nil {
		now = time.Now
	}
	return &InventoryRepository{pool: pool, now: now}
}

const itemColumns = `id, name, category, expiry_date, image, notes, freshness, created_at`

// GetAll returns every item in insertion order.
func (r *InventoryRepository) GetAll(ctx context.Context) ([]model.FoodItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM food_items ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetByCategory filters by category, insertion order preserved.
func (r *InventoryRepository) GetByCategory(ctx context.Context, category model.Category) ([]model.FoodItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM food_items WHERE category=$1 ORDER BY position`, category)
	if err != nil {
		return nil, fmt.Errorf("select items by category: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Get returns a single item.
func (r *InventoryRepository) Get(ctx context.Context, id string) (*model.FoodItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM food_items WHERE id=$1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select item: %w", err)
	}
	return item, nil
}

// Add inserts a new item with a generated id and store-assigned CreatedAt.
func (r *InventoryRepository) Add(ctx context.Context, form model.FormData) (*model.FoodItem, error) {
	item := model.FoodItem{
		ID:         uuid.NewString(),
		Name:       form.Name,
		Category:   form.Category,
		ExpiryDate: form.ExpiryDate,
		Image:      form.Image,
		CreatedAt:  r.now().UTC(),
		Notes:      form.Notes,
		Freshness:  form.Freshness,
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO food_items (id, name, category, expiry_date, image, notes, freshness, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, item.ID, item.Name, item.Category, item.ExpiryDate, item.Image, item.Notes, item.Freshness, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return &item, nil
}

// Update merges the patch into an existing row, returning the updated item
// or storage.ErrNotFound. COALESCE keeps unspecified columns intact.
func (r *InventoryRepository) Update(ctx context.Context, id string, patch model.Patch) (*model.FoodItem, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE food_items
		SET name = COALESCE($1, name),
			category = COALESCE($2, category),
			expiry_date = COALESCE($3, expiry_date),
			image = COALESCE($4, image),
			notes = COALESCE($5, notes),
			freshness = COALESCE($6, freshness)
		WHERE id=$7
		RETURNING `+itemColumns,
		patch.Name, patch.Category, patch.ExpiryDate, patch.Image, patch.Notes, patch.Freshness, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

// Delete removes a row, reporting whether anything was removed.
func (r *InventoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM food_items WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetExpiring returns items whose expiry is at or before now plus the
// threshold, raw timestamp comparison.
func (r *InventoryRepository) GetExpiring(ctx context.Context, thresholdDays int) ([]model.FoodItem, error) {
	cutoff := r.now().Add(time.Duration(thresholdDays) * 24 * time.Hour)
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM food_items WHERE expiry_date <= $1 ORDER BY position`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select expiring items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetSettings reads the singleton settings row, falling back to defaults
// when none has been stored yet.
func (r *InventoryRepository) GetSettings(ctx context.Context) (model.NotificationSettings, error) {
	var s model.NotificationSettings
	row := r.pool.QueryRow(ctx, `SELECT enabled, threshold_days FROM notification_settings WHERE singleton`)
	if err := row.Scan(&s.Enabled, &s.ThresholdDays); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DefaultNotificationSettings(), nil
		}
		return s, fmt.Errorf("select settings: %w", err)
	}
	return s, nil
}

// PutSettings upserts the singleton settings row.
func (r *InventoryRepository) PutSettings(ctx context.Context, s model.NotificationSettings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_settings (singleton, enabled, threshold_days)
		VALUES (TRUE, $1, $2)
		ON CONFLICT (singleton) DO UPDATE SET enabled=$1, threshold_days=$2
	`, s.Enabled, s.ThresholdDays)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func scanItems(rows pgx.Rows) ([]model.FoodItem, error) {
	var out []model.FoodItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row) (*model.FoodItem, error) {
	var item model.FoodItem
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &item.ExpiryDate, &item.Image, &item.Notes, &item.Freshness, &item.CreatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}
