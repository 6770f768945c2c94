package resolver

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/mapping"
	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/textnorm"
)

// DefaultAITimeout bounds a single external categorizer call.
const DefaultAITimeout = 8 * time.Second

// Categorizer asks an external model to pick one of allowed for a description.
// The answer is free text and may not match any name exactly.
type Categorizer interface {
	Categorize(ctx context.Context, description string, allowed []string) (string, error)
}

// AI consults the external categorizer and teaches the mapping cache on success.
type AI struct {
	Categorizer Categorizer
	Cache       MappingCache
	Logger      *slog.Logger
	Timeout     time.Duration
}

// Source implements Strategy.
func (AI) Source() model.Source { return model.SourceAI }

// Resolve implements Strategy. Categorizer failures degrade to "no opinion".
func (a AI) Resolve(ctx context.Context, req Request) (*model.Category, error) {
	logger := common.LoggerOrDefault(a.Logger)
	if a.Categorizer == nil {
		logger.Debug("skipping external categorizer", "error", common.ErrCategorizerUnavailable)
		return nil, nil
	}

	candidate := req.Candidate()
	eligible := req.Eligible()
	if candidate == "" || len(eligible) == 0 {
		return nil, nil
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	answer, err := a.Categorizer.Categorize(callCtx, candidate, model.CategoryNames(eligible))
	if err != nil {
		logger.Warn("external categorizer failed",
			"workspace_id", req.WorkspaceID,
			"timeout", timeout,
			"error", err)
		return nil, nil
	}

	category := MatchCategory(answer, eligible)
	if category == nil {
		logger.Info("external categorizer answer matched no category",
			"answer", answer,
			"workspace_id", req.WorkspaceID)
		return nil, nil
	}

	if a.Cache != nil {
		key := mapping.Key(candidate)
		if err := a.Cache.Put(ctx, key, req.WorkspaceID, category.ID, category.Name, req.Type, false); err != nil {
			logger.Warn("failed to learn category mapping",
				"key", key,
				"category", category.Name,
				"error", err)
		}
	}

	return category, nil
}

// MatchCategory maps a free-text answer back onto a category: exact normalized name
// first, then substring containment either way, then the first word.
func MatchCategory(answer string, categories []model.Category) *model.Category {
	want := textnorm.Normalize(answer)
	if want == "" {
		return nil
	}

	names := make([]string, len(categories))
	for i := range categories {
		names[i] = textnorm.Normalize(categories[i].Name)
	}

	for i, n := range names {
		if n == want {
			return &categories[i]
		}
	}
	for i, n := range names {
		if n != "" && (strings.Contains(want, n) || strings.Contains(n, want)) {
			return &categories[i]
		}
	}

	first := strings.Fields(want)[0]
	for i, n := range names {
		if fields := strings.Fields(n); len(fields) > 0 && fields[0] == first {
			return &categories[i]
		}
	}
	return nil
}
