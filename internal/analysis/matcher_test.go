package analysis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/analysis"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

func acmeProfile() models.BusinessProfile {
	return models.BusinessProfile{
		Name:    "Acme Suspensions",
		Aliases: []string{"Acme"},
		URL:     "https://acme.example.com",
	}
}

func TestNewMatcherRejectsEmptyName(t *testing.T) {
	_, err := analysis.NewMatcher(models.BusinessProfile{Name: "   "})
	assert.ErrorIs(t, err, models.ErrEmptyBusinessName)
}

func TestBareDomain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"https with path", "https://www.acme.example.com/shop/item", "acme.example.com"},
		{"http", "http://acme.com", "acme.com"},
		{"no scheme", "www.acme.com.au/", "acme.com.au"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analysis.BareDomain(tt.in))
		})
	}
}

func TestScanRecommendedScenario(t *testing.T) {
	m, err := analysis.NewMatcher(acmeProfile())
	require.NoError(t, err)

	got := m.Scan("I'd recommend Acme Suspensions for this, though Bilstein is also solid.")

	assert.True(t, got.BusinessMentioned)
	assert.True(t, got.BusinessNameFound)
	assert.False(t, got.DomainFound)
	assert.Equal(t, models.PositionBeginning, got.Position)
	assert.Equal(t, models.ContextRecommended, got.ContextType)
	require.NotEmpty(t, got.Mentions)
	assert.Equal(t, "business_name", got.Mentions[0].Type)
}

func TestScanPositions(t *testing.T) {
	m, err := analysis.NewMatcher(acmeProfile())
	require.NoError(t, err)

	filler := strings.Repeat("x", 100)
	tests := []struct {
		name string
		text string
		want models.Position
	}{
		{"offset zero", "Acme" + filler, models.PositionBeginning},
		{"middle", filler[:50] + "acme" + filler[:46], models.PositionMiddle},
		{"end", filler[:80] + "ACME" + filler[:16], models.PositionEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Scan(tt.text).Position)
		})
	}
}

func TestScanDomainOnlyHasUnknownPosition(t *testing.T) {
	m, err := analysis.NewMatcher(models.BusinessProfile{
		Name: "Acme Suspensions",
		URL:  "https://www.shocks-direct.example.com/home",
	})
	require.NoError(t, err)

	got := m.Scan("See https://shocks-direct.example.com/contact for details.")
	assert.True(t, got.BusinessMentioned)
	assert.False(t, got.BusinessNameFound)
	assert.True(t, got.DomainFound)
	assert.Equal(t, models.PositionUnknown, got.Position)
}

func TestScanNoMention(t *testing.T) {
	m, err := analysis.NewMatcher(acmeProfile())
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "Bilstein and Fox make great shocks."} {
		got := m.Scan(text)
		assert.False(t, got.BusinessMentioned, text)
		assert.Equal(t, models.PositionUnknown, got.Position, text)
		assert.Empty(t, got.CompetitorsMentioned, text)
	}
}

func TestScanEscapesUserSuppliedNames(t *testing.T) {
	m, err := analysis.NewMatcher(models.BusinessProfile{Name: "A+B (Tyres)", Aliases: []string{"a.b"}})
	require.NoError(t, err)

	assert.True(t, m.Scan("try a+b (tyres) today").BusinessMentioned)
	assert.False(t, m.Scan("aab or axb are fine").BusinessMentioned)
}

func TestClassifyContext(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.ContextType
	}{
		{"positive", "we recommend them, great work", models.ContextRecommended},
		{"negative", "avoid them, terrible service", models.ContextNegative},
		{"tie falls through to comparison", "best option but a real problem", models.ContextComparison},
		{"tie falls through to neutral", "good yet bad", models.ContextNeutral},
		{"comparison only", "another alternative to consider", models.ContextComparison},
		{"nothing", "they sell shocks", models.ContextNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analysis.ClassifyContext(tt.text))
		})
	}
}
