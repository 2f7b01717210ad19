// Package llm holds the narrative-analysis providers. A Provider turns a
// prepared prompt into free-text analysis; everything numeric is computed
// locally by the analytics package and never requested from a model.
package llm

import "context"

type Provider interface {
	Name() string
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)
}

type AnalysisRequest struct {
	// Prompt is the fully built analysis prompt (see BuildPrompt).
	Prompt string

	// Model overrides the configured default when non-empty.
	Model string

	MaxTokens int
}

type AnalysisResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config selects and configures a provider.
type Config struct {
	// Provider: "openai", "anthropic", "gemini", or "" (disabled).
	Provider string
	Model    string
	APIKey   string
	// BaseURL overrides the provider's default endpoint (tests, proxies).
	BaseURL string
	// Timeout per request, seconds.
	Timeout   int
	MaxTokens int
}

const systemPrompt = "You are an analyst writing concise, actionable summaries of customer reviews for a business owner. Ground every statement in the supplied reviews; do not invent facts, names, or numbers."
