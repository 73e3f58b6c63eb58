package analysis

import (
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Whole-response lexicons. Each word counts once when present as a substring.
var (
	positiveWords = []string{
		"recommend", "best", "excellent", "great", "good", "quality",
		"trusted", "reliable", "professional", "expert", "top",
	}

	negativeWords = []string{
		"avoid", "bad", "poor", "terrible", "worst", "problem",
		"issue", "complaint", "disappointing",
	}

	comparisonWords = []string{
		"option", "alternative", "consider", "compare", "choice",
		"available", "include", "among", "such as",
	}
)

// Windowed lexicons used around a single competitor mention.
var (
	contextPositiveWords = []string{
		"recommend", "best", "excellent", "great", "top", "quality",
		"reliable", "trusted", "popular", "leading", "premium",
	}

	contextNegativeWords = []string{
		"avoid", "not recommend", "poor", "bad", "worst", "inferior",
	}
)

func countPresent(textLower string, words []string) int {
	n := 0
	for _, word := range words {
		if strings.Contains(textLower, word) {
			n++
		}
	}
	return n
}

// ClassifyContext decides the mention context of already lower-cased text.
// A positive/negative tie falls through to Comparison or Neutral.
func ClassifyContext(textLower string) models.ContextType {
	positive := countPresent(textLower, positiveWords)
	negative := countPresent(textLower, negativeWords)

	switch {
	case positive > negative && positive > 0:
		return models.ContextRecommended
	case negative > positive && negative > 0:
		return models.ContextNegative
	case countPresent(textLower, comparisonWords) > 0:
		return models.ContextComparison
	default:
		return models.ContextNeutral
	}
}
