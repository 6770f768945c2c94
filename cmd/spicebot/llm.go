package main

import (
	"log/slog"

	"github.com/Veraticus/spicebot/internal/config"
	"github.com/Veraticus/spicebot/internal/llm"
	"github.com/Veraticus/spicebot/internal/resolver"
)

// createCategorizer builds the AI categorizer from configuration. It returns nil when
// no provider is configured or the provider cannot be used, which leaves the AI tier
// out of resolution.
func createCategorizer(cfg config.LLMConfig, logger *slog.Logger) resolver.Categorizer {
	if !cfg.Enabled() {
		logger.Debug("AI categorizer disabled", "provider", cfg.Provider)
		return nil
	}

	if cfg.APIKey == "" {
		logger.Warn("AI categorizer disabled: no API key configured",
			"provider", cfg.Provider,
			"hint", "set llm.api_key or the provider's API key environment variable")
		return nil
	}

	categorizer, err := llm.NewCategorizer(llm.Config{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		RateLimit:   cfg.RateLimit,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, logger)
	if err != nil {
		logger.Warn("AI categorizer disabled", "provider", cfg.Provider, "error", err)
		return nil
	}

	logger.Debug("AI categorizer enabled", "provider", cfg.Provider, "model", cfg.Model)
	return categorizer
}
