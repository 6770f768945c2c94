package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Classify(ctx context.Context, prompt string) (ClassificationResponse, error)
}

// ClassificationResponse contains the LLM's pick for a description.
type ClassificationResponse struct {
	Category   string
	Confidence float64
}

// Config holds configuration for the LLM categorizer.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

const systemInstruction = "You categorize personal finance transactions. " +
	"Respond with ONLY a JSON object of the form {\"category\": \"<name>\", \"confidence\": <0-1>}. " +
	"No markdown, no commentary."

// parseClassification reads the provider's text answer. JSON answers are preferred; a
// bare line of text is accepted as the category name.
func parseClassification(content string) (ClassificationResponse, error) {
	content = cleanMarkdownWrapper(content)
	if content == "" {
		return ClassificationResponse{}, fmt.Errorf("empty response")
	}

	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		var resp struct {
			Category   string  `json:"category"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &resp); err == nil && resp.Category != "" {
			return ClassificationResponse{Category: strings.TrimSpace(resp.Category), Confidence: resp.Confidence}, nil
		}
	}

	line := strings.TrimSpace(strings.SplitN(content, "\n", 2)[0])
	line = strings.Trim(line, `"'.`)
	if line == "" || strings.ContainsAny(line, "{}") {
		return ClassificationResponse{}, fmt.Errorf("no category found in response")
	}
	return ClassificationResponse{Category: line}, nil
}

// cleanMarkdownWrapper removes ``` fences models sometimes add around JSON.
func cleanMarkdownWrapper(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
