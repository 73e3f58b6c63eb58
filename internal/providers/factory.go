package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/claude"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/openaicompat"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

// Factory builds providers from service config
type Factory struct {
	cfg           *config.Config
	costService   services.CostService
	log           zerolog.Logger
	retryInterval time.Duration
}

func NewFactory(cfg *config.Config, costService services.CostService, log zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, costService: costService, log: log}
}

// WithRetryInterval shortens the initial retry backoff, mostly for tests.
func (f *Factory) WithRetryInterval(d time.Duration) *Factory {
	f.retryInterval = d
	return f
}

// CanonicalName maps provider aliases onto openai, claude or perplexity.
func CanonicalName(name string) (string, error) {
	nameLower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(nameLower, "perplexity"), strings.Contains(nameLower, "sonar"):
		return Perplexity, nil
	case strings.Contains(nameLower, "claude"), strings.Contains(nameLower, "anthropic"),
		strings.Contains(nameLower, "haiku"), strings.Contains(nameLower, "sonnet"), strings.Contains(nameLower, "opus"):
		return Claude, nil
	case strings.Contains(nameLower, "openai"), strings.Contains(nameLower, "gpt"), strings.Contains(nameLower, "chatgpt"):
		return OpenAI, nil
	}
	return "", fmt.Errorf("%w: %s", models.ErrUnknownProvider, name)
}

// NewProvider creates the provider for name with settings layered over its defaults.
func (f *Factory) NewProvider(name string, settings common.Settings) (AIProvider, error) {
	canonical, err := CanonicalName(name)
	if err != nil {
		return nil, err
	}

	apiKey := f.cfg.ProviderKey(canonical)
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is empty in config", canonical)
	}
	settings = settings.WithDefaults(defaultSettings[canonical])

	f.log.Info().Str("provider", canonical).Str("model", settings.Model).Msg("selected provider")

	switch canonical {
	case Claude:
		return claude.NewProvider(apiKey, settings, f.retryInterval, f.costService, f.log), nil
	case Perplexity:
		return openaicompat.NewProvider(openaicompat.Options{
			Name:          Perplexity,
			APIKey:        apiKey,
			Settings:      settings,
			Websearch:     true,
			RetryInterval: f.retryInterval,
		}, f.costService, f.log), nil
	default:
		return openaicompat.NewProvider(openaicompat.Options{
			Name:          OpenAI,
			APIKey:        apiKey,
			Settings:      settings,
			RetryInterval: f.retryInterval,
		}, f.costService, f.log), nil
	}
}

// NewProviders builds every provider the profile enables and the config has a key
// for. only, when non-empty, restricts the set further.
func (f *Factory) NewProviders(profile *config.RunProfile, only []string) ([]AIProvider, error) {
	wanted := make(map[string]bool)
	for _, name := range only {
		canonical, err := CanonicalName(name)
		if err != nil {
			return nil, err
		}
		wanted[canonical] = true
	}

	var result []AIProvider
	for _, name := range profile.EnabledProviders() {
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		if _, known := defaultSettings[name]; !known {
			f.log.Warn().Str("provider", name).Msg("skipping unknown provider in profile")
			continue
		}
		if !f.cfg.HasProviderKey(name) {
			f.log.Warn().Str("provider", name).Msg("skipping provider without API key")
			continue
		}

		provider, err := f.NewProvider(name, common.Settings{
			Model:       profile.ModelFor(name),
			Temperature: profile.Temperature,
			MaxTokens:   profile.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create provider %s: %w", name, err)
		}
		result = append(result, provider)
	}

	if len(result) == 0 {
		return nil, models.ErrNoProviders
	}
	return result, nil
}
