package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/mapping"
	"github.com/Veraticus/spicebot/internal/model"
)

func TestSQLiteStorage_UpsertMapping(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ws, cats := createTestWorkspace(t, store, "chat-1")
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	entry := model.CategoryMapping{
		WorkspaceID:    ws.ID,
		DescriptionKey: "pastelaria versailles",
		Type:           model.TypeExpense,
		CategoryID:     &cats["Food"].ID,
		CategoryName:   "Food",
		LastUsedAt:     at,
	}
	require.NoError(t, store.UpsertMapping(ctx, entry))

	got, err := store.FindMapping(ctx, ws.ID, "pastelaria versailles", model.TypeExpense)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)
	assert.Equal(t, cats["Food"].ID, *got.CategoryID)
	assert.Equal(t, model.ScopePrivate, got.Scope())

	entry.CategoryID = &cats["Transport"].ID
	entry.CategoryName = "Transport"
	require.NoError(t, store.UpsertMapping(ctx, entry))

	got, err = store.FindMapping(ctx, ws.ID, "pastelaria versailles", model.TypeExpense)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
	assert.Equal(t, "Transport", got.CategoryName)

	require.NoError(t, store.TouchMapping(ctx, got.ID, at.Add(time.Hour)))
	got, err = store.FindMapping(ctx, ws.ID, "pastelaria versailles", model.TypeExpense)
	require.NoError(t, err)
	assert.Equal(t, 3, got.UsageCount)
	assert.True(t, at.Add(time.Hour).Equal(got.LastUsedAt))

	_, err = store.FindMapping(ctx, ws.ID, "pastelaria versailles", model.TypeIncome)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, store.TouchMapping(ctx, 9999, at), common.ErrNotFound)
}

func TestSQLiteStorage_GlobalMappingsCarryNoCategory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	leaked := "c-private"
	err := store.UpsertMapping(ctx, model.CategoryMapping{
		WorkspaceID:    model.GlobalWorkspace,
		DescriptionKey: "uber",
		Type:           model.TypeExpense,
		CategoryID:     &leaked,
		CategoryName:   "Transport",
	})
	require.NoError(t, err)

	got, err := store.FindMapping(ctx, model.GlobalWorkspace, "uber", model.TypeExpense)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, model.ScopeGlobal, got.Scope())

	globals, err := store.ListMappings(ctx, model.GlobalWorkspace)
	require.NoError(t, err)
	require.Len(t, globals, 1)
	assert.Equal(t, "Transport", globals[0].CategoryName)

	err = store.UpsertMapping(ctx, model.CategoryMapping{
		WorkspaceID:    "ws-1",
		DescriptionKey: "uber",
		Type:           model.TypeExpense,
		CategoryName:   "Transport",
	})
	assert.ErrorIs(t, err, ErrInvalidMapping)
}

func TestSQLiteStorage_ConcurrentUpsertsCountEveryWrite(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ws, cats := createTestWorkspace(t, store, "chat-1")

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.UpsertMapping(ctx, model.CategoryMapping{
				WorkspaceID:    ws.ID,
				DescriptionKey: "continente",
				Type:           model.TypeExpense,
				CategoryID:     &cats["Food"].ID,
				CategoryName:   "Food",
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.FindMapping(ctx, ws.ID, "continente", model.TypeExpense)
	require.NoError(t, err)
	assert.Equal(t, writers, got.UsageCount)

	all, err := store.ListMappings(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStorage_BacksMappingCache(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first, firstCats := createTestWorkspace(t, store, "chat-1")
	second, secondCats := createTestWorkspace(t, store, "chat-2")
	cache := mapping.NewCache(store, store, nil)

	key := mapping.Key("Uber")
	require.NoError(t, cache.Put(ctx, key, first.ID, firstCats["Transport"].ID, "Transport", model.TypeExpense, false))

	id, ok, err := cache.Get(ctx, key, first.ID, model.TypeExpense)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, firstCats["Transport"].ID, id)

	// The universal name taught the global scope, which resolves to the second
	// workspace's own category.
	id, ok, err = cache.Get(ctx, key, second.ID, model.TypeExpense)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, secondCats["Transport"].ID, id)
}
