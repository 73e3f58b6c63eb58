package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

const contextWindow = 100

// AnalyzeCompetitorContext looks at the first occurrence of competitor in text
// and classifies the surrounding window.
func AnalyzeCompetitorContext(text, competitor string) models.CompetitorContext {
	result := models.CompetitorContext{Competitor: competitor}
	needle := strings.ToLower(strings.TrimSpace(competitor))
	if needle == "" {
		return result
	}

	runes := []rune(strings.ToLower(text))
	original := []rune(text)
	if len(runes) != len(original) {
		// Lower-casing changed the rune count; fall back to the lowered text.
		original = runes
	}

	pos := runeIndex(runes, []rune(needle))
	if pos < 0 {
		return result
	}

	start := max(0, pos-contextWindow)
	end := min(len(original), pos+utf8.RuneCountInString(needle)+contextWindow)
	window := string(original[start:end])
	windowLower := strings.ToLower(window)

	positive := countPresent(windowLower, contextPositiveWords)
	negative := countPresent(windowLower, contextNegativeWords)
	sentiment := "neutral"
	switch {
	case positive > negative:
		sentiment = "positive"
	case negative > positive:
		sentiment = "negative"
	}

	position := "late"
	total := float64(len(runes))
	switch {
	case float64(pos) < total/3:
		position = "early"
	case float64(pos) < 2*total/3:
		position = "middle"
	}

	result.Mentioned = true
	result.Context = window
	result.Sentiment = sentiment
	result.Position = position
	return result
}

func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
