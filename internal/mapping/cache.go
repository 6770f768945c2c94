// Package mapping implements the learned description to category cache.
//
// Entries live in two scopes. Private entries belong to one workspace and point at a
// category id. Global entries are shared by every workspace and only remember a category
// name, which is resolved against the asking workspace's own categories on lookup.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/textnorm"
)

// Store persists mapping entries. FindMapping returns common.ErrNotFound when no entry
// exists. UpsertMapping must create the entry or atomically increment its usage count.
type Store interface {
	FindMapping(ctx context.Context, workspaceID, key string, t model.TransactionType) (*model.CategoryMapping, error)
	TouchMapping(ctx context.Context, id int64, at time.Time) error
	UpsertMapping(ctx context.Context, m model.CategoryMapping) error
}

// CategoryLister lists a workspace's categories of one type.
type CategoryLister interface {
	ListCategories(ctx context.Context, workspaceID string, t model.TransactionType) ([]model.Category, error)
}

// universalNames are category names meaningful in any workspace. Learning a mapping to
// one of them also teaches the global scope.
var universalNames = []string{
	"Food", "Transport", "Transportation", "Housing", "Health", "Entertainment", "Salary",
	"Alimentação", "Transportes", "Habitação", "Saúde", "Lazer", "Salário",
}

// Cache looks up and records learned mappings.
type Cache struct {
	store      Store
	categories CategoryLister
	logger     *slog.Logger
	now        func() time.Time
	universal  map[string]bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for last-used timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithUniversalNames replaces the set of category names shared globally.
func WithUniversalNames(names ...string) Option {
	return func(c *Cache) {
		c.universal = make(map[string]bool, len(names))
		for _, n := range names {
			c.universal[textnorm.Normalize(n)] = true
		}
	}
}

// NewCache creates a cache over the given store.
func NewCache(store Store, categories CategoryLister, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:      store,
		categories: categories,
		logger:     common.LoggerOrDefault(logger),
		now:        time.Now,
	}
	WithUniversalNames(universalNames...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key derives the cache key for a description.
func Key(description string) string {
	return textnorm.Normalize(description)
}

// IsUniversal reports whether a category name belongs to the shared set.
func (c *Cache) IsUniversal(name string) bool {
	return c.universal[textnorm.Normalize(name)]
}

// Get returns the category id learned for key in the workspace. The private scope is
// consulted first; a global hit is translated into the workspace's own category.
func (c *Cache) Get(ctx context.Context, key, workspaceID string, t model.TransactionType) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}

	private, err := c.store.FindMapping(ctx, workspaceID, key, t)
	switch {
	case err == nil && private.CategoryID != nil:
		c.touch(ctx, private)
		return *private.CategoryID, true, nil
	case err != nil && !errors.Is(err, common.ErrNotFound):
		return "", false, fmt.Errorf("failed to look up private mapping: %w", err)
	}

	global, err := c.store.FindMapping(ctx, model.GlobalWorkspace, key, t)
	if errors.Is(err, common.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up global mapping: %w", err)
	}

	category, err := c.ResolveGlobalCategoryName(ctx, workspaceID, global.CategoryName, t)
	if errors.Is(err, common.ErrNotFound) {
		c.logger.Debug("global mapping has no local category",
			"key", key,
			"category_name", global.CategoryName,
			"workspace_id", workspaceID)
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	c.touch(ctx, global)
	return category.ID, true, nil
}

// Put records that key maps to the category in the workspace. Universal category names,
// or isCommon, also record a global entry carrying only the name.
func (c *Cache) Put(ctx context.Context, key, workspaceID, categoryID, categoryName string, t model.TransactionType, isCommon bool) error {
	if key == "" || workspaceID == model.GlobalWorkspace {
		return fmt.Errorf("%w: key and workspace are required", common.ErrCacheWrite)
	}

	now := c.now()
	id := categoryID
	private := model.CategoryMapping{
		WorkspaceID:    workspaceID,
		DescriptionKey: key,
		Type:           t,
		CategoryID:     &id,
		CategoryName:   categoryName,
		UsageCount:     1,
		LastUsedAt:     now,
	}
	if err := c.store.UpsertMapping(ctx, private); err != nil {
		return fmt.Errorf("%w: %w", common.ErrCacheWrite, err)
	}

	if !isCommon && !c.IsUniversal(categoryName) {
		return nil
	}

	global := model.CategoryMapping{
		WorkspaceID:    model.GlobalWorkspace,
		DescriptionKey: key,
		Type:           t,
		CategoryName:   categoryName,
		UsageCount:     1,
		LastUsedAt:     now,
	}
	if err := c.store.UpsertMapping(ctx, global); err != nil {
		return fmt.Errorf("%w: global: %w", common.ErrCacheWrite, err)
	}
	return nil
}

// ResolveGlobalCategoryName finds the workspace category whose name matches name,
// ignoring case and diacritics.
func (c *Cache) ResolveGlobalCategoryName(ctx context.Context, workspaceID, name string, t model.TransactionType) (*model.Category, error) {
	categories, err := c.categories.ListCategories(ctx, workspaceID, t)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	want := textnorm.Normalize(name)
	for i := range categories {
		if textnorm.Normalize(categories[i].Name) == want {
			return &categories[i], nil
		}
	}
	return nil, fmt.Errorf("%w: category %q", common.ErrNotFound, name)
}

func (c *Cache) touch(ctx context.Context, m *model.CategoryMapping) {
	if err := c.store.TouchMapping(ctx, m.ID, c.now()); err != nil {
		c.logger.Warn("failed to update mapping usage",
			"mapping_id", m.ID,
			"error", err)
	}
}
