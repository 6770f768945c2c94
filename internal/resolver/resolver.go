// Package resolver picks a category for a parsed transaction by consulting an ordered
// chain of strategies. The first strategy with an answer wins.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
)

// Request carries everything a strategy may look at.
type Request struct {
	Text        string
	Hint        string
	WorkspaceID string
	Type        model.TransactionType
	Categories  []model.Category
}

// Candidate is the text used by every strategy after the explicit hint. A hint that
// was not accepted still carries signal, so it is appended here. The draft description
// never includes it.
func (r Request) Candidate() string {
	return strings.TrimSpace(r.Text + " " + r.Hint)
}

// Eligible returns the workspace categories matching the request's type.
func (r Request) Eligible() []model.Category {
	return model.CategoriesOfType(r.Categories, r.Type)
}

func (r Request) categoryByID(id string) *model.Category {
	for i := range r.Categories {
		if r.Categories[i].ID == id && r.Categories[i].Type == r.Type {
			return &r.Categories[i]
		}
	}
	return nil
}

// Resolution is the outcome of a chain. Category is nil when nothing matched.
type Resolution struct {
	Category *model.Category
	Source   model.Source
}

// Strategy is one tier of the chain. A nil category with a nil error means the
// strategy has no opinion and the next tier should be consulted.
type Strategy interface {
	Source() model.Source
	Resolve(ctx context.Context, req Request) (*model.Category, error)
}

// Chain runs strategies in order.
type Chain struct {
	logger     *slog.Logger
	strategies []Strategy
}

// NewChain builds a chain that consults strategies in the given order.
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	return &Chain{
		logger:     common.LoggerOrDefault(logger),
		strategies: strategies,
	}
}

// Sources lists the chain's tiers in order.
func (c *Chain) Sources() []model.Source {
	out := make([]model.Source, len(c.strategies))
	for i, s := range c.strategies {
		out[i] = s.Source()
	}
	return out
}

// Resolve returns the first category any strategy produces. Strategy errors are logged
// and treated as "no opinion" so a failing tier never breaks parsing.
func (c *Chain) Resolve(ctx context.Context, req Request) Resolution {
	for _, s := range c.strategies {
		if ctx.Err() != nil {
			break
		}

		category, err := s.Resolve(ctx, req)
		if err != nil {
			c.logger.Warn("category strategy failed",
				"source", s.Source(),
				"workspace_id", req.WorkspaceID,
				"error", err)
			continue
		}
		if category != nil {
			c.logger.Debug("category resolved",
				"source", s.Source(),
				"category", category.Name,
				"workspace_id", req.WorkspaceID)
			return Resolution{Category: category, Source: s.Source()}
		}
	}

	return Resolution{Source: model.SourceNone}
}
