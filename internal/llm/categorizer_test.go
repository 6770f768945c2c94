package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/resolver"
)

var _ resolver.Categorizer = (*Categorizer)(nil)

type scriptedClient struct {
	prompts   []string
	responses []ClassificationResponse
	errs      []error
}

func (s *scriptedClient) Classify(_ context.Context, prompt string) (ClassificationResponse, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return ClassificationResponse{}, err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return s.responses[len(s.responses)-1], nil
}

func testConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: time.Millisecond, RateLimit: 600}
}

func TestCategorizer_Categorize(t *testing.T) {
	client := &scriptedClient{responses: []ClassificationResponse{{Category: "Food", Confidence: 0.9}}}
	c := NewCategorizerWithClient(client, testConfig(), nil)

	got, err := c.Categorize(context.Background(), "Pastelaria Versailles", []string{"Food", "Transport"})
	require.NoError(t, err)
	assert.Equal(t, "Food", got)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], `"Pastelaria Versailles"`)
	assert.Contains(t, client.prompts[0], "- Food\n")
	assert.Contains(t, client.prompts[0], "- Transport\n")
}

func TestCategorizer_RetriesTransientErrors(t *testing.T) {
	client := &scriptedClient{
		errs:      []error{errors.New("connection reset"), nil},
		responses: []ClassificationResponse{{}, {Category: "Transport"}},
	}
	c := NewCategorizerWithClient(client, testConfig(), nil)

	got, err := c.Categorize(context.Background(), "Uber", []string{"Transport"})
	require.NoError(t, err)
	assert.Equal(t, "Transport", got)
	assert.Len(t, client.prompts, 2)
}

func TestCategorizer_PermanentErrorsStop(t *testing.T) {
	client := &scriptedClient{errs: []error{common.Permanent(errors.New("bad key"))}}
	c := NewCategorizerWithClient(client, testConfig(), nil)

	_, err := c.Categorize(context.Background(), "Uber", []string{"Transport"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrCategorizationFailed)
	assert.Len(t, client.prompts, 1)
}

func TestCategorizer_NoCategories(t *testing.T) {
	c := NewCategorizerWithClient(&scriptedClient{}, testConfig(), nil)
	_, err := c.Categorize(context.Background(), "Uber", nil)
	assert.ErrorIs(t, err, common.ErrNoCategoryAvailable)
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "json", content: `{"category": "Food", "confidence": 0.8}`, want: "Food"},
		{name: "fenced json", content: "```json\n{\"category\": \"Saúde\"}\n```", want: "Saúde"},
		{name: "json with preamble", content: `Sure! {"category":"Transport"}`, want: "Transport"},
		{name: "bare name", content: "Food.\n", want: "Food"},
		{name: "quoted name", content: `"Lazer"`, want: "Lazer"},
		{name: "empty", content: "   ", wantErr: true},
		{name: "json without category", content: `{"confidence": 1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestOpenAIClient_Classify(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":"{\"category\":\"Food\",\"confidence\":0.7}"}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{Provider: "openai", APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Food", resp.Category)
	assert.InDelta(t, 0.7, resp.Confidence, 0.001)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
}

func TestOpenAIClient_StatusHandling(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		rateLimit bool
		retryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, rateLimit: true, retryable: true},
		{name: "server error", status: http.StatusBadGateway},
		{name: "bad request", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client, err := NewClient(Config{Provider: "openai", APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Classify(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.rateLimit, errors.Is(err, common.ErrRateLimit))
			if tt.retryable {
				assert.True(t, common.IsRetryable(err))
			}
		})
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Provider: "carrier-pigeon"})
	assert.Error(t, err)

	for _, provider := range []string{"openai", "anthropic", "gemini"} {
		_, err := NewClient(Config{Provider: provider})
		assert.ErrorIs(t, err, common.ErrMissingConfig, provider)
	}
}
