// Package testutil provides shared fixtures for tests that need a real database.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/storage"
)

// Category fixtures. Expense names first, then income names.
var (
	EnglishCategories = map[model.TransactionType][]string{
		model.TypeExpense: {"Food", "Transport", "Housing", "Health", "Entertainment"},
		model.TypeIncome:  {"Salary", "Other Income"},
	}
	PortugueseCategories = map[model.TransactionType][]string{
		model.TypeExpense: {"Alimentação", "Transportes", "Habitação", "Saúde", "Lazer"},
		model.TypeIncome:  {"Salário", "Outros Rendimentos"},
	}
)

// TestDB is a migrated in-memory database with one seeded workspace.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	Workspace  *model.Workspace
	Categories map[string]*model.Category
	t          *testing.T
}

// Option configures SetupTestDB.
type Option func(*setup)

type setup struct {
	workspace  model.Workspace
	categories map[model.TransactionType][]string
}

// WithChannel binds the seeded workspace to channelID.
func WithChannel(channelID string) Option {
	return func(s *setup) { s.workspace.ChannelID = channelID }
}

// WithLanguage sets the seeded workspace's reply language.
func WithLanguage(lang string) Option {
	return func(s *setup) { s.workspace.Language = lang }
}

// WithAutoConfirm makes the seeded workspace commit drafts without confirmation.
func WithAutoConfirm() Option {
	return func(s *setup) { s.workspace.AutoConfirm = true }
}

// WithCategories replaces the seeded category fixture.
func WithCategories(cats map[model.TransactionType][]string) Option {
	return func(s *setup) { s.categories = cats }
}

// SetupTestDB creates a new in-memory test database with a workspace bound to channel
// "test-channel" and the English category fixture. It automatically handles migrations
// and cleanup.
func SetupTestDB(t *testing.T, opts ...Option) *TestDB {
	t.Helper()

	cfg := setup{
		workspace:  model.Workspace{Name: "Test Workspace", ChannelID: "test-channel", Language: "en"},
		categories: EnglishCategories,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ws := cfg.workspace
	if err := store.CreateWorkspace(ctx, &ws); err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}

	db := &TestDB{
		Storage:    store,
		Workspace:  &ws,
		Categories: make(map[string]*model.Category),
		t:          t,
	}
	for _, typ := range []model.TransactionType{model.TypeExpense, model.TypeIncome} {
		for _, name := range cfg.categories[typ] {
			cat, err := store.CreateCategory(ctx, ws.ID, name, typ)
			if err != nil {
				t.Fatalf("failed to seed category %q: %v", name, err)
			}
			db.Categories[name] = cat
		}
	}

	return db
}

// MustCategoryID returns the id of the seeded category name or fails the test.
func (db *TestDB) MustCategoryID(name string) string {
	db.t.Helper()
	cat, ok := db.Categories[name]
	if !ok {
		db.t.Fatalf("category %q not seeded", name)
	}
	return cat.ID
}
