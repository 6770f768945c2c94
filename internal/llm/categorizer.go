package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/service"
)

// Categorizer picks a category name for a transaction description using an LLM.
type Categorizer struct {
	client      Client
	logger      *slog.Logger
	rateLimiter *rate.Limiter
	retryOpts   service.RetryOptions
}

// NewCategorizer creates a categorizer for the configured provider.
func NewCategorizer(cfg Config, logger *slog.Logger) (*Categorizer, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewCategorizerWithClient(client, cfg, logger), nil
}

// NewCategorizerWithClient wraps an existing client with rate limiting and retries.
func NewCategorizerWithClient(client Client, cfg Config, logger *slog.Logger) *Categorizer {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 250 * time.Millisecond
	}

	return &Categorizer{
		client:      client,
		logger:      common.LoggerOrDefault(logger),
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// Categorize asks the model to choose one of allowed for description. The returned
// name is the model's raw answer; callers map it back onto their categories.
func (c *Categorizer) Categorize(ctx context.Context, description string, allowed []string) (string, error) {
	if len(allowed) == 0 {
		return "", fmt.Errorf("%w: no categories to choose from", common.ErrNoCategoryAvailable)
	}

	prompt := buildPrompt(description, allowed)

	var response ClassificationResponse
	err := common.WithRetry(ctx, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return common.Permanent(fmt.Errorf("rate limiter canceled: %w", err))
		}
		resp, err := c.client.Classify(ctx, prompt)
		if err != nil {
			return err
		}
		response = resp
		return nil
	}, c.retryOpts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrCategorizationFailed, err)
	}

	c.logger.Debug("description categorized",
		"description", description,
		"category", response.Category,
		"confidence", response.Confidence)

	return response.Category, nil
}

func buildPrompt(description string, allowed []string) string {
	var b strings.Builder
	b.WriteString("Pick the single best category for this personal finance transaction.\n\n")
	fmt.Fprintf(&b, "Transaction: %q\n\n", description)
	b.WriteString("Allowed categories (answer with one of these names exactly):\n")
	for _, name := range allowed {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("\nRespond with JSON: {\"category\": \"<name>\", \"confidence\": <0-1>}")
	return b.String()
}
