// Package service defines the persistence contract shared by the bot and the CLI.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spicebot/internal/model"
)

// Storage is everything the application persists. Components depend on the narrower
// interfaces declared in their own packages; this aggregate is what wiring code holds.
type Storage interface {
	WorkspaceStore
	CategoryStore
	TransactionStore
	PendingStore
	MappingStore

	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

// WorkspaceStore manages workspaces and their channel bindings.
type WorkspaceStore interface {
	CreateWorkspace(ctx context.Context, ws *model.Workspace) error
	GetWorkspace(ctx context.Context, id string) (*model.Workspace, error)
	GetWorkspaceByChannel(ctx context.Context, channelID string) (*model.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]model.Workspace, error)
}

// CategoryStore manages workspace categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, workspaceID, name string, t model.TransactionType) (*model.Category, error)
	ListCategories(ctx context.Context, workspaceID string, t model.TransactionType) ([]model.Category, error)
}

// TransactionStore manages committed transactions.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	CreateTransactions(ctx context.Context, txns []model.Transaction) error
	RecentTransactions(ctx context.Context, workspaceID string, since time.Time, t model.TransactionType, limit int) ([]model.Transaction, error)
	ListTransactions(ctx context.Context, workspaceID string, limit int) ([]model.Transaction, error)
}

// PendingStore manages transactions awaiting confirmation.
type PendingStore interface {
	CreatePending(ctx context.Context, p *model.PendingTransaction) error
	ListPending(ctx context.Context, channelID string) ([]model.PendingTransaction, error)
	PromotePending(ctx context.Context, id string) (*model.Transaction, error)
	DeletePending(ctx context.Context, id string) error
}

// MappingStore persists learned description to category mappings.
type MappingStore interface {
	FindMapping(ctx context.Context, workspaceID, key string, t model.TransactionType) (*model.CategoryMapping, error)
	TouchMapping(ctx context.Context, id int64, at time.Time) error
	UpsertMapping(ctx context.Context, m model.CategoryMapping) error
	ListMappings(ctx context.Context, workspaceID string) ([]model.CategoryMapping, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// WithDefaults fills unset fields with sensible values.
func (o RetryOptions) WithDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	return o
}
