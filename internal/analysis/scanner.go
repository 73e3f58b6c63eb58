package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

type competitorTerm struct {
	canonical string
	pattern   *regexp.Regexp
}

// needlePattern matches needle case-insensitively as a whole word. Ends that
// are not ASCII word characters carry no boundary.
func needlePattern(needle string) *regexp.Regexp {
	pattern := regexp.QuoteMeta(needle)
	if first, _ := utf8.DecodeRuneInString(needle); isWordRune(first) {
		pattern = `\b` + pattern
	}
	if last, _ := utf8.DecodeLastRuneInString(needle); isWordRune(last) {
		pattern += `\b`
	}
	return regexp.MustCompile(`(?i)` + pattern)
}

func isWordRune(r rune) bool {
	return r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// Scanner runs the per-response pass: business mention, competitor presence,
// competitor context and citations.
type Scanner struct {
	matcher     *Matcher
	competitors []competitorTerm
}

// NewScanner builds a scanner for profile. discovered are canonical names from
// competitor discovery and are also found by every spelling normalizer knows
// for them; static is the configured competitor list, normalized here. Names
// equal to the business or one of its aliases are dropped.
func NewScanner(profile models.BusinessProfile, normalizer *Normalizer, discovered, static []string) (*Scanner, error) {
	matcher, err := NewMatcher(profile)
	if err != nil {
		return nil, err
	}
	if normalizer == nil {
		normalizer = defaultNormalizer
	}

	s := &Scanner{matcher: matcher}
	seen := make(map[string]bool)
	add := func(canonical, needle string) {
		canonical = strings.TrimSpace(canonical)
		needle = strings.ToLower(strings.TrimSpace(needle))
		if canonical == "" || needle == "" || profile.IsSelf(canonical) || profile.IsSelf(needle) {
			return
		}
		key := canonical + "\x00" + needle
		if seen[key] {
			return
		}
		seen[key] = true
		s.competitors = append(s.competitors, competitorTerm{canonical: canonical, pattern: needlePattern(needle)})
	}

	for _, name := range discovered {
		add(name, name)
		for _, variant := range normalizer.VariantsOf(name) {
			add(name, variant)
		}
	}
	for _, name := range static {
		add(normalizer.Normalize(name), name)
	}
	return s, nil
}

// Matcher exposes the underlying business matcher.
func (s *Scanner) Matcher() *Matcher {
	return s.matcher
}

// ScanResponse analyses one record. Failed records produce an empty result.
func (s *Scanner) ScanResponse(record models.ResponseRecord) models.ResponseAnalysis {
	analysis := models.ResponseAnalysis{
		Record:  record,
		Mention: models.EmptyMentionResult(),
	}
	if record.Failed() {
		return analysis
	}

	analysis.Mention = s.matcher.Scan(record.ResponseText)
	analysis.Mention.CompetitorsMentioned = s.CompetitorsIn(record.ResponseText)
	for _, competitor := range analysis.Mention.CompetitorsMentioned {
		analysis.CompetitorContexts = append(analysis.CompetitorContexts,
			AnalyzeCompetitorContext(record.ResponseText, competitor))
	}
	analysis.Citations = ExtractCitations(record.ResponseText, s.matcher.Profile().URL)
	return analysis
}

// ScanAll analyses records in order.
func (s *Scanner) ScanAll(records []models.ResponseRecord) []models.ResponseAnalysis {
	analyses := make([]models.ResponseAnalysis, 0, len(records))
	for _, record := range records {
		analyses = append(analyses, s.ScanResponse(record))
	}
	return analyses
}

// CompetitorsIn returns the canonical competitors textually present in text,
// discovered names first, each at most once.
func (s *Scanner) CompetitorsIn(text string) []string {
	found := []string{}
	if strings.TrimSpace(text) == "" {
		return found
	}
	seen := make(map[string]bool)
	for _, term := range s.competitors {
		if seen[term.canonical] || !term.pattern.MatchString(text) {
			continue
		}
		seen[term.canonical] = true
		found = append(found, term.canonical)
	}
	return found
}
