package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmikhr/freshkeep/internal/model"
)

func newTestStore(now time.Time) *MemoryStore {
	return NewMemoryStore(func() time.Time { return now })
}

func intPtr(i int) *int { return &i }

func TestAddRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newTestStore(now)
	ctx := context.Background()

	form := model.FormData{
		Name:       "Apples",
		Category:   model.CategoryFruits,
		ExpiryDate: now.AddDate(0, 0, 2),
		Image:      "/placeholder.svg",
		Freshness:  intPtr(4),
	}
	created, err := store.Add(ctx, form)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, now, created.CreatedAt)

	fetched, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
	assert.Equal(t, form.Name, fetched.Name)
	assert.Equal(t, form.Category, fetched.Category)
	assert.Equal(t, form.ExpiryDate, fetched.ExpiryDate)
	require.NotNil(t, fetched.Freshness)
	assert.Equal(t, 4, *fetched.Freshness)
}

func TestGetAllPreservesInsertionOrder(t *testing.T) {
	store := newTestStore(time.Now())
	ctx := context.Background()

	names := []string{"Milk", "Spinach", "Pasta Sauce"}
	categories := []model.Category{model.CategoryDairy, model.CategoryVegetables, model.CategoryPacked}
	for i, name := range names {
		_, err := store.Add(ctx, model.FormData{Name: name, Category: categories[i], ExpiryDate: time.Now().AddDate(0, 0, 5)})
		require.NoError(t, err)
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, item := range all {
		assert.Equal(t, names[i], item.Name)
	}
}

func TestGetByCategory(t *testing.T) {
	store := newTestStore(time.Now())
	ctx := context.Background()

	_, err := store.Add(ctx, model.FormData{Name: "Bananas", Category: model.CategoryFruits, ExpiryDate: time.Now().AddDate(0, 0, 1)})
	require.NoError(t, err)
	_, err = store.Add(ctx, model.FormData{Name: "Milk", Category: model.CategoryDairy, ExpiryDate: time.Now().AddDate(0, 0, 5)})
	require.NoError(t, err)

	fruits, err := store.GetByCategory(ctx, model.CategoryFruits)
	require.NoError(t, err)
	require.Len(t, fruits, 1)
	assert.Equal(t, "Bananas", fruits[0].Name)

	packed, err := store.GetByCategory(ctx, model.CategoryPacked)
	require.NoError(t, err)
	assert.Empty(t, packed)
}

func TestUpdateMergesPartialFields(t *testing.T) {
	store := newTestStore(time.Now())
	ctx := context.Background()

	created, err := store.Add(ctx, model.FormData{
		Name:       "Milk",
		Category:   model.CategoryDairy,
		ExpiryDate: time.Now().AddDate(0, 0, 5),
		Notes:      "half gallon",
	})
	require.NoError(t, err)

	newName := "Oat Milk"
	updated, err := store.Update(ctx, created.ID, model.Patch{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Oat Milk", updated.Name)
	// Untouched fields survive the merge.
	assert.Equal(t, "half gallon", updated.Notes)
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestUpdateUnknownIDLeavesStoreUntouched(t *testing.T) {
	store := newTestStore(time.Now())
	ctx := context.Background()

	_, err := store.Add(ctx, model.FormData{Name: "Milk", Category: model.CategoryDairy, ExpiryDate: time.Now()})
	require.NoError(t, err)

	name := "Ghost"
	_, err = store.Update(ctx, "missing", model.Patch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Milk", all[0].Name)
}

func TestDeleteIdempotence(t *testing.T) {
	store := newTestStore(time.Now())
	ctx := context.Background()

	created, err := store.Add(ctx, model.FormData{Name: "Milk", Category: model.CategoryDairy, ExpiryDate: time.Now()})
	require.NoError(t, err)

	removed, err := store.Delete(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, removed)
	all, _ := store.GetAll(ctx)
	assert.Len(t, all, 1)

	removed, err = store.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	all, _ = store.GetAll(ctx)
	assert.Empty(t, all)

	removed, err = store.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestGetExpiringUsesRawTimestampWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newTestStore(now)
	ctx := context.Background()

	soon, err := store.Add(ctx, model.FormData{Name: "Bananas", Category: model.CategoryFruits, ExpiryDate: now.Add(24 * time.Hour)})
	require.NoError(t, err)
	_, err = store.Add(ctx, model.FormData{Name: "Yogurt", Category: model.CategoryDairy, ExpiryDate: now.Add(5 * 24 * time.Hour)})
	require.NoError(t, err)
	expired, err := store.Add(ctx, model.FormData{Name: "Spinach", Category: model.CategoryVegetables, ExpiryDate: now.Add(-24 * time.Hour)})
	require.NoError(t, err)

	expiring, err := store.GetExpiring(ctx, 3)
	require.NoError(t, err)
	require.Len(t, expiring, 2)
	ids := []string{expiring[0].ID, expiring[1].ID}
	assert.Contains(t, ids, soon.ID)
	assert.Contains(t, ids, expired.ID)
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	store := newTestStore(time.Now())
	ctx := context.Background()

	got, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.NotificationSettings{Enabled: true, ThresholdDays: 3}, got)

	require.NoError(t, store.PutSettings(ctx, model.NotificationSettings{Enabled: false, ThresholdDays: 7}))
	got, err = store.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, 7, got.ThresholdDays)
}

func TestGetReturnsCopy(t *testing.T) {
	store := newTestStore(time.Now())
	ctx := context.Background()

	created, err := store.Add(ctx, model.FormData{Name: "Milk", Category: model.CategoryDairy, ExpiryDate: time.Now()})
	require.NoError(t, err)

	fetched, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	fetched.Name = "Mutated"

	again, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milk", again.Name)
}
