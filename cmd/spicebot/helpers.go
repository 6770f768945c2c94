package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/spicebot/internal/amount"
	"github.com/Veraticus/spicebot/internal/bot"
	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/config"
	"github.com/Veraticus/spicebot/internal/mapping"
	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/parser"
	"github.com/Veraticus/spicebot/internal/pending"
	"github.com/Veraticus/spicebot/internal/ratelimit"
	"github.com/Veraticus/spicebot/internal/resolver"
	"github.com/Veraticus/spicebot/internal/storage"
)

// loadConfig builds the typed configuration from viper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// app holds the wired components shared by the commands.
type app struct {
	cfg     *config.Config
	store   *storage.SQLiteStorage
	pending *pending.Service
	parser  *parser.Parser
	bot     *bot.Service
	logger  *slog.Logger
}

type appOptions struct {
	logger         *slog.Logger
	skipRateLimit  bool
	skipCategorize bool
}

type appOption func(*appOptions)

// withoutRateLimit disables the per-channel limiter, for bulk feeds.
func withoutRateLimit() appOption {
	return func(o *appOptions) { o.skipRateLimit = true }
}

// withoutCategorizer leaves the AI tier out of the chain.
func withoutCategorizer() appOption {
	return func(o *appOptions) { o.skipCategorize = true }
}

// withLogger routes component logs somewhere other than the default logger.
func withLogger(logger *slog.Logger) appOption {
	return func(o *appOptions) { o.logger = logger }
}

// newApp loads configuration, opens storage and wires the bot.
func newApp(ctx context.Context, opts ...appOption) (*app, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, store: store, logger: o.logger}

	var categorizer resolver.Categorizer
	if !o.skipCategorize {
		categorizer = createCategorizer(cfg.LLM, o.logger)
	}
	a.parser = buildParser(cfg, store, categorizer, o.logger)

	a.pending = pending.NewService(store,
		pending.WithCorrelator(pending.PrefixCorrelator{Length: cfg.Bot.TokenLength}),
		pending.WithLogger(o.logger),
	)

	var limiter ratelimit.Limiter
	if !o.skipRateLimit {
		limiter, err = ratelimit.New(ratelimit.Strategy(cfg.Bot.RateStrategy), cfg.Bot.RateLimit, cfg.Bot.RateWindow)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("invalid rate limit settings: %w", err)
		}
	}

	a.bot = bot.NewService(bot.Config{
		Workspaces:      store,
		Categories:      store,
		Parser:          a.parser,
		Pending:         a.pending,
		Limiter:         limiter,
		Logger:          o.logger,
		DefaultLanguage: cfg.Bot.DefaultLanguage,
	})

	return a, nil
}

// Close releases the database.
func (a *app) Close() error {
	return a.store.Close()
}

// workspaceForChannel loads the workspace bound to channelID and its categories.
func (a *app) workspaceForChannel(ctx context.Context, channelID string) (*model.Workspace, []model.Category, error) {
	ws, err := a.store.GetWorkspaceByChannel(ctx, channelID)
	if errors.Is(err, common.ErrUnknownChannel) {
		return nil, nil, common.NewUserError(
			fmt.Sprintf("no workspace is linked to channel %q; create one with 'spicebot workspace create'", channelID), err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	categories, err := a.store.ListCategories(ctx, ws.ID, "")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return ws, categories, nil
}

// buildParser wires the resolver chain over storage and the optional categorizer.
func buildParser(cfg *config.Config, store *storage.SQLiteStorage, categorizer resolver.Categorizer, logger *slog.Logger) *parser.Parser {
	cache := mapping.NewCache(store, store, logger)

	chain := resolver.DefaultChain(resolver.Config{
		History:       store,
		Cache:         cache,
		Categorizer:   categorizer,
		Logger:        logger,
		HintThreshold: cfg.Resolver.HintThreshold,
		HistoryLimit:  cfg.Resolver.HistoryLimit,
		HistoryWindow: time.Duration(cfg.Resolver.HistoryDays) * 24 * time.Hour,
		AITimeout:     cfg.LLM.Timeout,
		Keywords:      cfg.Resolver.Keywords,
	})

	return parser.New(amount.NewExtractor(), chain,
		parser.WithPlaceholder(cfg.Bot.Placeholder),
		parser.WithLogger(logger),
	)
}
