package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AI-Template-SDK/senso-visibility/services"
)

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		model     string
		input     int
		output    int
		websearch bool
		want      float64
	}{
		{"known model", "openai", "gpt-4o", 1_000_000, 1_000_000, false, 12.50},
		{"claude model", "claude", "claude-sonnet-4-20250514", 2_000, 1_000, false, 0.006 + 0.015},
		{"dated snapshot uses base price", "openai", "gpt-4o-mini-2024-07-18", 1_000_000, 0, false, 0.15},
		{"longest base wins", "perplexity", "sonar-pro-2025", 0, 1_000_000, false, 15.00},
		{"unknown model falls back to gpt-4o-mini", "openai", "some-new-model", 1_000_000, 1_000_000, false, 0.75},
		{"empty model falls back", "openai", "", 2_000_000, 0, false, 0.30},
		{"openai web search", "openai", "gpt-4o-mini", 0, 0, true, 0.035},
		{"perplexity web search", "perplexity", "sonar", 1_000_000, 0, true, 1.005},
		{"unknown provider searches at openai price", "custom", "gpt-4o-mini", 0, 0, true, 0.035},
		{"no tokens no search", "claude", "claude-3-haiku-20240307", 0, 0, false, 0},
	}
	costs := services.NewCostService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := costs.CalculateCost(tt.provider, tt.model, tt.input, tt.output, tt.websearch)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
