// Package llm asks language models to categorize transaction descriptions.
// It supports OpenAI, Anthropic and Gemini, with client-side rate limiting and retries.
package llm
