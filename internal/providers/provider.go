package providers

import (
	"time"

	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

// AIProvider interface for different AI models
type AIProvider = services.AIProvider

const (
	OpenAI     = "openai"
	Claude     = "claude"
	Perplexity = "perplexity"
)

// defaultSettings mirrors each vendor's rate limits.
var defaultSettings = map[string]common.Settings{
	OpenAI: {
		Model:         "gpt-4o-mini",
		Temperature:   0.7,
		MaxTokens:     4000,
		RateDelay:     100 * time.Millisecond,
		MaxConcurrent: 5,
		Retries:       2,
	},
	Claude: {
		Model:         "claude-3-haiku-20240307",
		Temperature:   0.7,
		MaxTokens:     4000,
		RateDelay:     500 * time.Millisecond,
		MaxConcurrent: 3,
		Retries:       2,
	},
	Perplexity: {
		Model:         "sonar",
		BaseURL:       "https://api.perplexity.ai/",
		Temperature:   0.7,
		MaxTokens:     4000,
		RateDelay:     500 * time.Millisecond,
		MaxConcurrent: 2,
		Retries:       2,
	},
}

// DefaultSettings returns the built-in settings for a canonical provider name.
func DefaultSettings(name string) (common.Settings, bool) {
	s, ok := defaultSettings[name]
	return s, ok
}
