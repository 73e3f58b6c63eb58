package analysis

import (
	"regexp"
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

var capitalizedPhrase = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z0-9][a-z0-9]*)+)\b`)

// FallbackCompetitors extracts capitalized multi-word phrases as competitor
// candidates. It is the heuristic used when no LLM oracle is configured.
func FallbackCompetitors(text string, profile models.BusinessProfile) []string {
	candidates := []string{}
	seen := make(map[string]bool)
	for _, match := range capitalizedPhrase.FindAllString(text, -1) {
		cleaned := strings.TrimSpace(match)
		if len(cleaned) <= 2 || profile.IsSelf(cleaned) || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		candidates = append(candidates, cleaned)
	}
	return candidates
}
