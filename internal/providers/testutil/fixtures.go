package testutil

import (
	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// SampleConfig returns a test configuration
func SampleConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:     "test-openai-key",
		AnthropicAPIKey:  "test-anthropic-key",
		PerplexityAPIKey: "test-perplexity-key",
		Oracle: config.OracleConfig{
			Model:       "gpt-4o-mini",
			Concurrency: 3,
			Retries:     1,
			Temperature: 0.2,
		},
	}
}

// SampleProfile returns a test business profile
func SampleProfile() models.BusinessProfile {
	return models.BusinessProfile{
		Name:     "Acme Suspensions",
		URL:      "https://www.acme-suspensions.example.com",
		Aliases:  []string{"Acme"},
		Location: "Brisbane, Australia",
	}
}

// SampleRunProfile returns a run profile with every provider enabled
func SampleRunProfile() *config.RunProfile {
	p, err := config.ParseProfile([]byte(`
business_name: Acme Suspensions
business_url: https://www.acme-suspensions.example.com
business_aliases: [Acme]
num_consumer_queries: 2
num_business_queries: 1
`))
	if err != nil {
		panic(err)
	}
	return p
}

// SampleQueries returns test queries
func SampleQueries() []string {
	return []string{
		"My ute sags at the rear when towing, what should I do?",
		"Who does the best 4x4 suspension lifts in Brisbane?",
		"What do people think about Acme Suspensions?",
	}
}

// SampleResponses returns one answer per sample query, in order
func SampleResponses() []string {
	return []string{
		"Consider upgraded rear springs. Old Man Emu and Bilstein both make heavy duty kits.",
		"Acme Suspensions is highly recommended for lifts. Tough Dog is another option. See https://www.acme-suspensions.example.com/lifts",
		"Reviews of Acme are mostly positive, though some say Pedders is cheaper.",
	}
}

// SampleRecords returns the sample responses as records from one provider
func SampleRecords(provider string) []models.ResponseRecord {
	queries := SampleQueries()
	responses := SampleResponses()
	records := make([]models.ResponseRecord, len(queries))
	for i := range queries {
		records[i] = models.ResponseRecord{
			QueryID:      i + 1,
			QueryText:    queries[i],
			Provider:     provider,
			ResponseText: responses[i],
		}
	}
	return records
}
