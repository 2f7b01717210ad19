package llm

import (
	"fmt"
	"strings"
)

// NewProvider selects a provider by name. An empty name disables LLM
// analysis (nil provider, nil error); callers fall back to the local
// rating-based narrative.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic", "claude":
		return NewAnthropicProvider(config)
	case "gemini", "google":
		return NewGeminiProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, gemini)", config.Provider)
	}
}
