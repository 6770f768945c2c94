package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// createTestWorkspace creates a workspace bound to channel with Food, Transport and
// Salary categories.
func createTestWorkspace(t *testing.T, store *SQLiteStorage, channel string) (*model.Workspace, map[string]*model.Category) {
	t.Helper()
	ctx := context.Background()

	ws := &model.Workspace{Name: "Test " + channel, ChannelID: channel}
	if err := store.CreateWorkspace(ctx, ws); err != nil {
		t.Fatalf("Failed to create workspace: %v", err)
	}

	categories := make(map[string]*model.Category)
	for name, typ := range map[string]model.TransactionType{
		"Food":      model.TypeExpense,
		"Transport": model.TypeExpense,
		"Salary":    model.TypeIncome,
	} {
		cat, err := store.CreateCategory(ctx, ws.ID, name, typ)
		if err != nil {
			t.Fatalf("Failed to create category %s: %v", name, err)
		}
		categories[name] = cat
	}
	return ws, categories
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate(ctx))

	for _, table := range []string{"workspaces", "categories", "transactions", "pending_transactions", "category_mappings"} {
		var count int
		err := store.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}

	assert.Len(t, Migrations(), ExpectedSchemaVersion)
}

func TestSQLiteStorage_Validation(t *testing.T) {
	_, err := NewSQLiteStorage("")
	require.ErrorIs(t, err, ErrEmptyString)

	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	//nolint:staticcheck // exercising nil context validation
	_, err = store.ListWorkspaces(nil)
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = store.ListCategories(ctx, "", model.TypeExpense)
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = store.CreateCategory(ctx, "ws", "Food", "transfer")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	err = store.CreateTransaction(ctx, &model.Transaction{ID: "t", WorkspaceID: "ws", Date: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestSQLiteStorage_Workspaces(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ws := &model.Workspace{Name: "Home", ChannelID: "tg_42", Language: "pt", AutoConfirm: true}
	require.NoError(t, store.CreateWorkspace(ctx, ws))
	assert.NotEmpty(t, ws.ID)

	got, err := store.GetWorkspaceByChannel(ctx, "tg_42")
	require.NoError(t, err)
	assert.Equal(t, ws.ID, got.ID)
	assert.Equal(t, "pt", got.Language)
	assert.True(t, got.AutoConfirm)

	got, err = store.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", got.Name)

	_, err = store.GetWorkspaceByChannel(ctx, "tg_missing")
	assert.ErrorIs(t, err, common.ErrUnknownChannel)
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.CreateWorkspace(ctx, &model.Workspace{Name: "Other", ChannelID: "tg_42"})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// Workspaces without a channel do not collide with each other.
	require.NoError(t, store.CreateWorkspace(ctx, &model.Workspace{Name: "Unbound A"}))
	require.NoError(t, store.CreateWorkspace(ctx, &model.Workspace{Name: "Unbound B"}))

	all, err := store.ListWorkspaces(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "en", all[1].Language)
}

func TestSQLiteStorage_Categories(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ws, _ := createTestWorkspace(t, store, "chat-1")

	expenses, err := store.ListCategories(ctx, ws.ID, model.TypeExpense)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Food", "Transport"}, model.CategoryNames(expenses))

	all, err := store.ListCategories(ctx, ws.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = store.CreateCategory(ctx, ws.ID, "Food", model.TypeExpense)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// The same name may exist once per type.
	_, err = store.CreateCategory(ctx, ws.ID, "Food", model.TypeIncome)
	assert.NoError(t, err)

	other, _ := createTestWorkspace(t, store, "chat-2")
	otherCats, err := store.ListCategories(ctx, other.ID, "")
	require.NoError(t, err)
	assert.Len(t, otherCats, 3)
}

func TestSQLiteStorage_RecentTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ws, cats := createTestWorkspace(t, store, "chat-1")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	insert := func(id string, cents int64, cat *model.Category, age time.Duration) {
		t.Helper()
		txn := &model.Transaction{
			ID:          id,
			WorkspaceID: ws.ID,
			CategoryID:  &cat.ID,
			AmountCents: cents,
			Description: "desc " + id,
			Date:        now.Add(-age),
		}
		require.NoError(t, store.CreateTransaction(ctx, txn))
	}

	insert("lunch", -1500, cats["Food"], 24*time.Hour)
	insert("bus", -200, cats["Transport"], 2*time.Hour)
	insert("seed", -1, cats["Food"], time.Hour)
	insert("salary", 100000, cats["Salary"], 48*time.Hour)
	insert("ancient", -900, cats["Food"], 400*24*time.Hour)

	expenses, err := store.RecentTransactions(ctx, ws.ID, now.Add(-180*24*time.Hour), model.TypeExpense, 10)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "bus", expenses[0].ID)
	assert.Equal(t, "lunch", expenses[1].ID)
	assert.Equal(t, cats["Transport"].ID, *expenses[0].CategoryID)

	income, err := store.RecentTransactions(ctx, ws.ID, now.Add(-180*24*time.Hour), model.TypeIncome, 10)
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, int64(100000), income[0].AmountCents)

	limited, err := store.RecentTransactions(ctx, ws.ID, now.Add(-180*24*time.Hour), model.TypeExpense, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := store.ListTransactions(ctx, ws.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "seed", all[0].ID)

	err = store.CreateTransaction(ctx, &model.Transaction{ID: "lunch", WorkspaceID: ws.ID, AmountCents: -1, Date: now})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestSQLiteStorage_CreateTransactionsIsAtomic(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ws, _ := createTestWorkspace(t, store, "chat-1")
	date := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	batch := []model.Transaction{
		{ID: "t-1", WorkspaceID: ws.ID, AmountCents: -2500, Description: "Lunch", Date: date},
		{ID: "t-1", WorkspaceID: ws.ID, AmountCents: -1000, Description: "Gas", Date: date},
	}
	err := store.CreateTransactions(ctx, batch)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	all, err := store.ListTransactions(ctx, ws.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, all, "a failed batch leaves nothing behind")

	batch[1].ID = "t-2"
	require.NoError(t, store.CreateTransactions(ctx, batch))

	all, err = store.ListTransactions(ctx, ws.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = store.CreateTransactions(ctx, []model.Transaction{{ID: "t-3", WorkspaceID: ws.ID, Date: date}})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestSQLiteStorage_Pending(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ws, cats := createTestWorkspace(t, store, "chat-1")
	date := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"p-1", "p-2"} {
		p := &model.PendingTransaction{
			ID:          id,
			ChannelID:   "chat-1",
			WorkspaceID: ws.ID,
			CategoryID:  &cats["Food"].ID,
			AmountCents: -1500,
			Description: "Lunch",
			Date:        date,
			CreatedAt:   date.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.CreatePending(ctx, p))
	}

	pendings, err := store.ListPending(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, pendings, 2)
	assert.Equal(t, "p-1", pendings[0].ID)
	assert.Equal(t, cats["Food"].ID, *pendings[0].CategoryID)

	none, err := store.ListPending(ctx, "chat-2")
	require.NoError(t, err)
	assert.Empty(t, none)

	txn, err := store.PromotePending(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", txn.ID)
	assert.Equal(t, int64(-1500), txn.AmountCents)
	assert.True(t, date.Equal(txn.Date))

	_, err = store.PromotePending(ctx, "p-1")
	assert.ErrorIs(t, err, common.ErrPendingNotFound)

	require.NoError(t, store.DeletePending(ctx, "p-2"))
	assert.ErrorIs(t, store.DeletePending(ctx, "p-2"), common.ErrPendingNotFound)

	pendings, err = store.ListPending(ctx, "chat-1")
	require.NoError(t, err)
	assert.Empty(t, pendings)

	committed, err := store.ListTransactions(ctx, ws.ID, 0)
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.Equal(t, "Lunch", committed[0].Description)
}

func TestSQLiteStorage_PromoteRollsBackOnInsertFailure(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ws, _ := createTestWorkspace(t, store, "chat-1")
	date := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// A committed transaction already owns the id the pending would be promoted to.
	require.NoError(t, store.CreateTransaction(ctx, &model.Transaction{
		ID: "dup", WorkspaceID: ws.ID, AmountCents: -100, Description: "x", Date: date,
	}))
	require.NoError(t, store.CreatePending(ctx, &model.PendingTransaction{
		ID: "dup", ChannelID: "chat-1", WorkspaceID: ws.ID, AmountCents: -100, Description: "x", Date: date,
	}))

	_, err := store.PromotePending(ctx, "dup")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	pendings, err := store.ListPending(ctx, "chat-1")
	require.NoError(t, err)
	assert.Len(t, pendings, 1, "pending must survive a failed promotion")
}
