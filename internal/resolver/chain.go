package resolver

import (
	"log/slog"
	"time"
)

// Config selects the collaborators and tunables of the default chain.
type Config struct {
	History       HistorySource
	Cache         MappingCache
	Categorizer   Categorizer
	Logger        *slog.Logger
	Now           func() time.Time
	HintThreshold float64
	HistoryLimit  int
	HistoryWindow time.Duration
	AITimeout     time.Duration
	Keywords      bool
}

// DefaultChain builds the standard order: explicit hint, history, learned mapping,
// keyword table, external categorizer, fallback.
func DefaultChain(cfg Config) *Chain {
	strategies := []Strategy{
		ExplicitHint{Threshold: cfg.HintThreshold},
		History{
			Transactions: cfg.History,
			Now:          cfg.Now,
			Limit:        cfg.HistoryLimit,
			Window:       cfg.HistoryWindow,
		},
		LearnedMapping{Cache: cfg.Cache},
	}
	if cfg.Keywords {
		strategies = append(strategies, Keyword{Threshold: cfg.HintThreshold})
	}
	strategies = append(strategies,
		AI{
			Categorizer: cfg.Categorizer,
			Cache:       cfg.Cache,
			Logger:      cfg.Logger,
			Timeout:     cfg.AITimeout,
		},
		Fallback{},
	)
	return NewChain(cfg.Logger, strategies...)
}
