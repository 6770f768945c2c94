package resolver

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/spicebot/internal/mapping"
	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/textnorm"
)

// DefaultHintThreshold is the minimum Similarity for an explicit hint to be accepted.
const DefaultHintThreshold = 0.6

// ExplicitHint matches a user-typed category hint against category names.
type ExplicitHint struct {
	Threshold float64
}

// Source implements Strategy.
func (ExplicitHint) Source() model.Source { return model.SourceHint }

// Resolve implements Strategy.
func (h ExplicitHint) Resolve(_ context.Context, req Request) (*model.Category, error) {
	if req.Hint == "" {
		return nil, nil
	}
	threshold := h.Threshold
	if threshold <= 0 {
		threshold = DefaultHintThreshold
	}
	category, _ := BestMatch(req.Hint, req.Eligible(), threshold)
	return category, nil
}

// BestMatch returns the category whose name is most similar to text, provided the
// score reaches threshold. Ties keep the earlier category.
func BestMatch(text string, categories []model.Category, threshold float64) (*model.Category, float64) {
	var best *model.Category
	bestScore := 0.0
	for i := range categories {
		score := Similarity(text, categories[i].Name)
		if score > bestScore {
			best, bestScore = &categories[i], score
		}
	}
	if best == nil || bestScore < threshold {
		return nil, bestScore
	}
	return best, bestScore
}

// HistorySource returns a workspace's recent categorized transactions of one sign,
// newest first, with seed rows excluded.
type HistorySource interface {
	RecentTransactions(ctx context.Context, workspaceID string, since time.Time, t model.TransactionType, limit int) ([]model.Transaction, error)
}

// History reuses the category of a similar recent transaction.
type History struct {
	Transactions HistorySource
	Now          func() time.Time
	Limit        int
	Window       time.Duration
}

// History defaults.
const (
	DefaultHistoryLimit  = 500
	DefaultHistoryWindow = 180 * 24 * time.Hour
)

// Source implements Strategy.
func (History) Source() model.Source { return model.SourceHistory }

// Resolve implements Strategy.
func (h History) Resolve(ctx context.Context, req Request) (*model.Category, error) {
	words := textnorm.Words(req.Candidate())
	if len(words) < 2 || h.Transactions == nil {
		return nil, nil
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	limit := h.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	window := h.Window
	if window <= 0 {
		window = DefaultHistoryWindow
	}

	today := now()
	txns, err := h.Transactions.RecentTransactions(ctx, req.WorkspaceID, today.Add(-window), req.Type, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	candidate := wordSet(words)
	var best *model.Category
	bestScore := 0
	for _, txn := range txns {
		if txn.IsSeed() || txn.CategoryID == nil || txn.Type() != req.Type {
			continue
		}
		category := req.categoryByID(*txn.CategoryID)
		if category == nil {
			continue
		}

		shared, long := sharedWords(candidate, textnorm.Words(txn.Description))
		if shared < 3 && (shared < 2 || long == 0) {
			continue
		}

		score := shared + 2*long + recencyBonus(today.Sub(txn.Date))
		if score > bestScore {
			best, bestScore = category, score
		}
	}

	return best, nil
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func sharedWords(candidate map[string]bool, words []string) (shared, long int) {
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if !candidate[w] || seen[w] {
			continue
		}
		seen[w] = true
		shared++
		if utf8.RuneCountInString(w) > 4 {
			long++
		}
	}
	return shared, long
}

func recencyBonus(age time.Duration) int {
	const day = 24 * time.Hour
	switch {
	case age <= 7*day:
		return 3
	case age <= 30*day:
		return 2
	case age <= 90*day:
		return 1
	default:
		return 0
	}
}

// MappingCache is the learned mapping cache as seen by the resolver.
type MappingCache interface {
	Get(ctx context.Context, key, workspaceID string, t model.TransactionType) (string, bool, error)
	Put(ctx context.Context, key, workspaceID, categoryID, categoryName string, t model.TransactionType, isCommon bool) error
}

// LearnedMapping consults the mapping cache.
type LearnedMapping struct {
	Cache MappingCache
}

// Source implements Strategy.
func (LearnedMapping) Source() model.Source { return model.SourceMapping }

// Resolve implements Strategy.
func (l LearnedMapping) Resolve(ctx context.Context, req Request) (*model.Category, error) {
	if l.Cache == nil {
		return nil, nil
	}
	id, ok, err := l.Cache.Get(ctx, mapping.Key(req.Candidate()), req.WorkspaceID, req.Type)
	if err != nil || !ok {
		return nil, err
	}
	return req.categoryByID(id), nil
}

// Fallback returns the first category of the requested type.
type Fallback struct{}

// Source implements Strategy.
func (Fallback) Source() model.Source { return model.SourceFallback }

// Resolve implements Strategy.
func (Fallback) Resolve(_ context.Context, req Request) (*model.Category, error) {
	eligible := req.Eligible()
	if len(eligible) == 0 {
		return nil, nil
	}
	return &eligible[0], nil
}
