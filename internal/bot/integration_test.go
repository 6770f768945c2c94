package bot

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicebot/internal/amount"
	"github.com/Veraticus/spicebot/internal/mapping"
	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/parser"
	"github.com/Veraticus/spicebot/internal/pending"
	"github.com/Veraticus/spicebot/internal/resolver"
	"github.com/Veraticus/spicebot/internal/testutil"
)

type countingCategorizer struct {
	answer string
	calls  atomic.Int32
}

func (c *countingCategorizer) Categorize(_ context.Context, _ string, _ []string) (string, error) {
	c.calls.Add(1)
	return c.answer, nil
}

func newSQLiteService(t *testing.T, db *testutil.TestDB, categorizer resolver.Categorizer) *Service {
	t.Helper()

	cache := mapping.NewCache(db.Storage, db.Storage, nil)
	chain := resolver.DefaultChain(resolver.Config{
		History:     db.Storage,
		Cache:       cache,
		Categorizer: categorizer,
	})

	return NewService(Config{
		Workspaces: db.Storage,
		Categories: db.Storage,
		Parser:     parser.New(amount.NewExtractor(), chain),
		Pending:    pending.NewService(db.Storage),
	})
}

func TestIntegration_LearnsFromCategorizer(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.WithAutoConfirm())
	categorizer := &countingCategorizer{answer: "Food"}
	svc := newSQLiteService(t, db, categorizer)
	ctx := context.Background()

	reply := svc.HandleMessage(ctx, Message{ChannelID: "test-channel", Text: "Pastelaria Versailles 4€"})
	assert.Contains(t, reply.Text, "Food")
	assert.Equal(t, int32(1), categorizer.calls.Load())

	mappings, err := db.Storage.ListMappings(ctx, db.Workspace.ID)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "pastelaria versailles", mappings[0].DescriptionKey)
	assert.Equal(t, db.MustCategoryID("Food"), *mappings[0].CategoryID)

	reply = svc.HandleMessage(ctx, Message{ChannelID: "test-channel", Text: "pastelaria versailles 3,20€"})
	assert.Contains(t, reply.Text, "Food")
	assert.Equal(t, int32(1), categorizer.calls.Load(), "second occurrence must not reach the categorizer")

	txns, err := db.Storage.ListTransactions(ctx, db.Workspace.ID, 0)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, txn := range txns {
		require.NotNil(t, txn.CategoryID)
		assert.Equal(t, db.MustCategoryID("Food"), *txn.CategoryID)
	}
}

func TestIntegration_ConfirmAgainstSQLite(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.WithChannel("tg_7"))
	svc := newSQLiteService(t, db, nil)
	ctx := context.Background()

	reply := svc.HandleMessage(ctx, Message{ChannelID: "tg_7", Text: "Cookies - Food 25€"})
	require.Len(t, reply.Actions, 2)

	reply = svc.HandleAction(ctx, "tg_7", reply.Actions[0].Payload)
	assert.Contains(t, reply.Text, "Transaction confirmed!")
	assert.Contains(t, reply.Text, "Cookies")

	txns, err := db.Storage.ListTransactions(ctx, db.Workspace.ID, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, int64(-2500), txns[0].AmountCents)
	assert.Equal(t, model.TypeExpense, txns[0].Type())

	pendings, err := db.Storage.ListPending(ctx, "tg_7")
	require.NoError(t, err)
	assert.Empty(t, pendings)
}
