// Package textparse reads and writes the plain-text query and response files
// exchanged between pipeline stages.
package textparse

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

var (
	numberedItem   = regexp.MustCompile(`^\d+[.)]\s*(.+)$`)
	quotedItem     = regexp.MustCompile(`^["'](.+)["']$`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
	roiWord        = regexp.MustCompile(`\broi\b`)
)

var strongBusinessKeywords = []string{
	"fleet", "company", "business", "bulk pricing", "contractor",
	"logistics", "rental fleet", "mining", "construction company",
	"service agreements", "warranty support", "ongoing service",
	"scalable", "extended warranty", "refurbishment programs",
}

var weakBusinessKeywords = []string{
	"review", "opinion", "think about", "better than", "compare",
	"vs", "versus", "service",
}

// ParseQueries extracts the numbered list items of an LLM answer. Headings,
// wrapping quotes and bracketed placeholders are dropped.
func ParseQueries(text string) []string {
	var queries []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := numberedItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		query := strings.TrimSpace(m[1])
		if q := quotedItem.FindStringSubmatch(query); q != nil {
			query = q[1]
		}
		query = strings.TrimSpace(query)
		if query == "" || strings.HasPrefix(query, "[") || strings.HasSuffix(query, "]") {
			continue
		}
		queries = append(queries, query)
	}
	return queries
}

// ReadQueriesFile reads a queries file: numbered lines, or bare lines, with
// "#" comments ignored.
func ReadQueriesFile(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "Total queries:") {
			continue
		}
		if m := numberedItem.FindStringSubmatch(line); m != nil {
			line = strings.TrimSpace(m[1])
		}
		if line != "" {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	return queries, nil
}

// QueriesHeader is the comment block written above a queries file
type QueriesHeader struct {
	BusinessName string
	Providers    []string
	GeneratedAt  time.Time
}

// FormatQueries writes queries as a numbered list under a comment header.
func FormatQueries(w io.Writer, header QueriesHeader, queries []string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Combined Queries for %s\n", header.BusinessName)
	fmt.Fprintf(bw, "# Generated: %s\n", header.GeneratedAt.Format("2006-01-02 15:04:05"))
	if len(header.Providers) > 0 {
		fmt.Fprintf(bw, "# Providers: %s\n", strings.Join(header.Providers, ", "))
	}
	fmt.Fprintf(bw, "# Total unique queries: %d\n\n", len(queries))
	for i, q := range queries {
		fmt.Fprintf(bw, "%d. %s\n", i+1, q)
	}
	return bw.Flush()
}

// MergeQueries dedupes query lists from several providers and sorts them.
func MergeQueries(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, q := range list {
			q = strings.TrimSpace(q)
			if q == "" || seen[q] {
				continue
			}
			seen[q] = true
			merged = append(merged, q)
		}
	}
	sort.Strings(merged)
	return merged
}

// CategorizeQuery labels a query Consumer or Business. A known query ID decides
// by position; otherwise content keywords decide.
func CategorizeQuery(query, businessName string, queryID, numConsumer int) models.QueryCategory {
	if queryID > 0 {
		if queryID <= numConsumer {
			return models.QueryConsumer
		}
		return models.QueryBusiness
	}

	queryLower := strings.ToLower(query)
	if name := strings.ToLower(strings.TrimSpace(businessName)); name != "" && strings.Contains(queryLower, name) {
		return models.QueryBusiness
	}

	for _, keyword := range strongBusinessKeywords {
		if strings.Contains(queryLower, keyword) {
			return models.QueryBusiness
		}
	}
	if roiWord.MatchString(queryLower) {
		return models.QueryBusiness
	}

	weak := 0
	for _, keyword := range weakBusinessKeywords {
		if strings.Contains(queryLower, keyword) {
			weak++
		}
	}
	if weak >= 2 || strings.Contains(queryLower, "what do people think about") {
		return models.QueryBusiness
	}
	return models.QueryConsumer
}

// BuildQueries numbers queries from 1. With numConsumer > 0 the list is
// assumed to hold consumer queries first; otherwise content decides.
func BuildQueries(texts []string, businessName string, numConsumer int) []models.Query {
	queries := make([]models.Query, 0, len(texts))
	for i, text := range texts {
		id := i + 1
		positional := 0
		if numConsumer > 0 {
			positional = id
		}
		queries = append(queries, models.Query{
			ID:       id,
			Text:     text,
			Category: CategorizeQuery(text, businessName, positional, numConsumer),
		})
	}
	return queries
}

// CleanText collapses whitespace runs to single spaces.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}
