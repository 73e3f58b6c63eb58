package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// ProviderSettings toggles one answer provider in a run profile
type ProviderSettings struct {
	Enabled *bool  `yaml:"enabled" json:"enabled,omitempty"`
	Model   string `yaml:"model" json:"model,omitempty"`
}

// IsEnabled defaults to true when the profile does not say otherwise.
func (p ProviderSettings) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// RunProfile is the YAML document describing one visibility run
type RunProfile struct {
	BusinessName        string                      `yaml:"business_name" json:"business_name,omitempty"`
	BusinessURL         string                      `yaml:"business_url" json:"business_url,omitempty"`
	BusinessAliases     []string                    `yaml:"business_aliases" json:"business_aliases,omitempty"`
	BusinessLocation    string                      `yaml:"business_location" json:"business_location,omitempty"`
	Competitors         []string                    `yaml:"competitors" json:"competitors,omitempty"`
	CompetitorVariants  map[string]string           `yaml:"competitor_variants" json:"competitor_variants,omitempty"`
	NumConsumerQueries  int                         `yaml:"num_consumer_queries" json:"num_consumer_queries,omitempty"`
	NumBusinessQueries  int                         `yaml:"num_business_queries" json:"num_business_queries,omitempty"`
	QueryPromptTemplate string                      `yaml:"query_prompt_template" json:"query_prompt_template,omitempty"`
	OutputDirectory     string                      `yaml:"output_directory" json:"output_directory,omitempty"`
	Temperature         float64                     `yaml:"temperature" json:"temperature,omitempty"`
	MaxTokens           int                         `yaml:"max_tokens" json:"max_tokens,omitempty"`
	Providers           map[string]ProviderSettings `yaml:"providers" json:"providers,omitempty"`
}

var defaultProviderModels = map[string]string{
	"openai":     "gpt-4o-mini",
	"claude":     "claude-3-haiku-20240307",
	"perplexity": "sonar",
}

// LoadProfile reads and validates a run profile.
func LoadProfile(path string) (*RunProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes YAML, applies defaults and validates.
func ParseProfile(data []byte) (*RunProfile, error) {
	var p RunProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.Prepare(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Prepare applies defaults and validates a profile decoded from elsewhere,
// such as an API request or workflow event.
func (p *RunProfile) Prepare() error {
	p.applyDefaults()
	return p.Business().Validate()
}

func (p *RunProfile) applyDefaults() {
	if p.NumConsumerQueries <= 0 {
		p.NumConsumerQueries = 5
	}
	if p.NumBusinessQueries < 0 {
		p.NumBusinessQueries = 0
	}
	if p.OutputDirectory == "" {
		p.OutputDirectory = "./results"
	}
	if p.Temperature == 0 {
		p.Temperature = 0.7
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = 4000
	}
	if p.Providers == nil {
		p.Providers = make(map[string]ProviderSettings)
	}
	for name, model := range defaultProviderModels {
		settings := p.Providers[name]
		if settings.Model == "" {
			settings.Model = model
		}
		p.Providers[name] = settings
	}
}

// Business returns the immutable business profile for the run.
func (p *RunProfile) Business() models.BusinessProfile {
	aliases := make([]string, len(p.BusinessAliases))
	copy(aliases, p.BusinessAliases)
	return models.BusinessProfile{
		Name:     strings.TrimSpace(p.BusinessName),
		URL:      strings.TrimSpace(p.BusinessURL),
		Aliases:  aliases,
		Location: strings.TrimSpace(p.BusinessLocation),
	}
}

// EnabledProviders lists enabled provider names, sorted.
func (p *RunProfile) EnabledProviders() []string {
	var names []string
	for name, settings := range p.Providers {
		if settings.IsEnabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ModelFor returns the configured model for a provider.
func (p *RunProfile) ModelFor(provider string) string {
	if settings, ok := p.Providers[provider]; ok && settings.Model != "" {
		return settings.Model
	}
	return defaultProviderModels[provider]
}

// BusinessDir is the per-business output directory, as used for report files.
func (p *RunProfile) BusinessDir() string {
	name := strings.NewReplacer(" ", "_", "/", "_").Replace(p.BusinessName)
	return filepath.Join(p.OutputDirectory, name)
}
