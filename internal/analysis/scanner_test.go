package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/analysis"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

func TestScanResponseCombinesDiscoveredAndStatic(t *testing.T) {
	s, err := analysis.NewScanner(acmeProfile(), nil,
		[]string{"Bilstein", "Tough Dog"},
		[]string{"ome", "pedders"},
	)
	require.NoError(t, err)

	got := s.ScanResponse(models.ResponseRecord{
		QueryID:      1,
		Provider:     "openai",
		ResponseText: "I'd recommend Acme Suspensions for this, though Bilstein is also solid. OME is popular too.",
	})

	assert.True(t, got.Mention.BusinessMentioned)
	assert.Equal(t, models.PositionBeginning, got.Mention.Position)
	assert.Equal(t, models.ContextRecommended, got.Mention.ContextType)
	assert.Equal(t, []string{"Bilstein", "Old Man Emu"}, got.Mention.CompetitorsMentioned)
	require.Len(t, got.CompetitorContexts, 2)
	assert.True(t, got.CompetitorContexts[0].Mentioned)

	row := got.Row()
	assert.Equal(t, "Bilstein;Old Man Emu", row.CompetitorsMentioned)
	assert.Equal(t, "Early", row.BusinessPosition)
	assert.True(t, row.BusinessMentioned)
}

func TestScanResponseSentinel(t *testing.T) {
	s, err := analysis.NewScanner(acmeProfile(), nil, []string{"Acme", "Bilstein"}, nil)
	require.NoError(t, err)

	for _, text := range []string{models.ErrorResponseSentinel, ""} {
		got := s.ScanResponse(models.ResponseRecord{QueryID: 2, Provider: "claude", ResponseText: text})
		assert.False(t, got.Mention.BusinessMentioned)
		assert.Empty(t, got.Mention.CompetitorsMentioned)

		row := got.Row()
		assert.Equal(t, "None", row.CompetitorsMentioned)
		assert.Equal(t, "Not mentioned", row.BusinessPosition)
	}
}

func TestNewScannerDropsSelf(t *testing.T) {
	s, err := analysis.NewScanner(acmeProfile(), nil, []string{"ACME", "Fox"}, []string{"acme suspensions"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Fox"}, s.CompetitorsIn("Acme Suspensions and Fox"))
}

func TestCompetitorsInMatchesWholeWords(t *testing.T) {
	s, err := analysis.NewScanner(acmeProfile(), nil, []string{"Fox"}, []string{"OME", "ARB 4x4+"})
	require.NoError(t, err)

	tests := []struct {
		text string
		want []string
	}{
		{"Fit it at home, some kits come with shocks.", []string{}},
		{"Foxtrot Garage does a good job.", []string{}},
		{"OME and Fox both make kits.", []string{"Fox", "Old Man Emu"}},
		{"Brands (OME, fox shocks) are common.", []string{"Fox", "Old Man Emu"}},
		{"The arb 4x4+ range is popular.", []string{"ARB 4x4+"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, s.CompetitorsIn(tt.text))
		})
	}
}

func TestCompetitorsInFindsDiscoveredVariants(t *testing.T) {
	normalizer := analysis.NewNormalizer(map[string]string{"pedders brakes": "Pedders Suspension"})
	s, err := analysis.NewScanner(acmeProfile(), normalizer, []string{"Pedders Suspension", "Old Man Emu"}, nil)
	require.NoError(t, err)

	tests := []struct {
		text string
		want []string
	}{
		{"Pedders fitted mine.", []string{"Pedders Suspension"}},
		{"Ask Pedders Brakes about it.", []string{"Pedders Suspension"}},
		{"OME or Pedders Suspension & Brakes.", []string{"Pedders Suspension", "Old Man Emu"}},
		{"Nothing to see.", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, s.CompetitorsIn(tt.text))
		})
	}
}

func TestAnalyzeCompetitorContext(t *testing.T) {
	text := "For heavy touring, Old Man Emu is a reliable and popular choice."
	got := analysis.AnalyzeCompetitorContext(text, "Old Man Emu")

	assert.True(t, got.Mentioned)
	assert.Equal(t, "positive", got.Sentiment)
	assert.Equal(t, "early", got.Position)
	assert.Contains(t, got.Context, "Old Man Emu")

	missing := analysis.AnalyzeCompetitorContext(text, "Bilstein")
	assert.False(t, missing.Mentioned)
}

func TestFallbackCompetitors(t *testing.T) {
	text := "Try Old Man Emu or Tough Dog. Acme Suspensions is local. Tough Dog again."
	got := analysis.FallbackCompetitors(text, models.BusinessProfile{Name: "Acme Suspensions"})
	assert.Equal(t, []string{"Try Old Man Emu", "Tough Dog"}, got)
}

func TestExtractCitations(t *testing.T) {
	text := `Sources: https://www.acme.example.com/about?utm_source=x, https://shop.bilstein.com/,
and https://shop.bilstein.com plus https://cdn.example.org/logo.png`

	got := analysis.ExtractCitations(text, "https://acme.example.com")
	require.Len(t, got, 2)
	assert.Equal(t, "https://acme.example.com/about", got[0].URL)
	assert.Equal(t, "example.com", got[0].Domain)
	assert.True(t, got[0].Primary)
	assert.Equal(t, "bilstein.com", got[1].Domain)
	assert.False(t, got[1].Primary)
}
