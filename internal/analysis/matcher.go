// Package analysis holds the text-analysis core: business mention matching,
// competitor normalization, per-response scanning and aggregation. Every
// function here is pure and safe to call from concurrent goroutines.
package analysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

const (
	beginningCutoff = 0.33
	middleCutoff    = 0.67
)

// Matcher finds a business's name, aliases and domain inside free text
type Matcher struct {
	profile     models.BusinessProfile
	nameRegex   *regexp.Regexp
	domainRegex *regexp.Regexp
}

// NewMatcher compiles the name/alias alternation and the domain pattern for profile.
func NewMatcher(profile models.BusinessProfile) (*Matcher, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	terms := profile.Terms()
	escaped := make([]string, 0, len(terms))
	for _, term := range terms {
		escaped = append(escaped, regexp.QuoteMeta(strings.ToLower(term)))
	}

	m := &Matcher{
		profile:   profile,
		nameRegex: regexp.MustCompile(`(?i)` + strings.Join(escaped, "|")),
	}
	if domain := BareDomain(profile.URL); domain != "" {
		m.domainRegex = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(domain))
	}
	return m, nil
}

// Profile returns the profile the matcher was built from.
func (m *Matcher) Profile() models.BusinessProfile {
	return m.profile
}

// BareDomain strips scheme, a leading "www." and any path from a URL.
func BareDomain(rawURL string) string {
	domain := strings.ToLower(strings.TrimSpace(rawURL))
	if domain == "" {
		return ""
	}
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "www.")
	if i := strings.Index(domain, "/"); i >= 0 {
		domain = domain[:i]
	}
	return domain
}

// Scan reports whether, where and in what context the business is mentioned.
// Empty text yields EmptyMentionResult.
func (m *Matcher) Scan(text string) models.MentionResult {
	result := models.EmptyMentionResult()
	if strings.TrimSpace(text) == "" {
		return result
	}

	lower := strings.ToLower(text)
	loc := m.nameRegex.FindStringIndex(lower)

	result.BusinessNameFound = loc != nil
	result.DomainFound = m.domainRegex != nil && m.domainRegex.MatchString(lower)
	result.BusinessMentioned = result.BusinessNameFound || result.DomainFound
	if !result.BusinessMentioned {
		return result
	}

	// A domain-only mention has no name offset and stays Unknown.
	if loc != nil {
		result.Position = positionOf(lower, loc[0])
	}
	result.ContextType = ClassifyContext(lower)
	result.Mentions = m.mentionSpans(lower)
	return result
}

// Mentioned is a shortcut for Scan(text).BusinessMentioned.
func (m *Matcher) Mentioned(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lower := strings.ToLower(text)
	if m.nameRegex.MatchString(lower) {
		return true
	}
	return m.domainRegex != nil && m.domainRegex.MatchString(lower)
}

func positionOf(lower string, byteOffset int) models.Position {
	total := utf8.RuneCountInString(lower)
	if total == 0 {
		return models.PositionUnknown
	}
	r := float64(utf8.RuneCountInString(lower[:byteOffset])) / float64(total)
	switch {
	case r < beginningCutoff:
		return models.PositionBeginning
	case r < middleCutoff:
		return models.PositionMiddle
	default:
		return models.PositionEnd
	}
}

func (m *Matcher) mentionSpans(lower string) []models.MentionSpan {
	var spans []models.MentionSpan
	for i, term := range m.profile.Terms() {
		kind := "alias"
		if i == 0 {
			kind = "business_name"
		}
		needle := strings.ToLower(term)
		for offset := 0; offset < len(lower); {
			idx := strings.Index(lower[offset:], needle)
			if idx < 0 {
				break
			}
			start := offset + idx
			spans = append(spans, models.MentionSpan{
				Text:  term,
				Start: start,
				End:   start + len(needle),
				Type:  kind,
			})
			offset = start + len(needle)
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}
