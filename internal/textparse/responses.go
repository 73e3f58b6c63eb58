package textparse

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

const unknownProvider = "unknown"

var (
	providerHeading = regexp.MustCompile(`=== (\w+) RESPONSES ===`)
	queryBlock      = regexp.MustCompile(`(?s)QUERY\s+(\d+):\s*(.+?)(?:\nRESPONSE|\z)`)
	responseBlock   = regexp.MustCompile(`(?s)RESPONSE\s+(\d+)(?:\s*\([^)]+\))?:\s*(.+?)(?:\nQUERY|\z)`)
)

// ParseResponses reads a responses file. Files with "=== NAME RESPONSES ==="
// headings carry several providers; otherwise every record's provider is
// "unknown". Blocks are separated by "---"; incomplete blocks are skipped.
func ParseResponses(r io.Reader) ([]models.ResponseRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}
	content := string(data)

	headings := providerHeading.FindAllStringSubmatchIndex(content, -1)
	if len(headings) == 0 {
		return parseBlocks(content, unknownProvider), nil
	}

	var records []models.ResponseRecord
	for i, loc := range headings {
		provider := strings.ToLower(content[loc[2]:loc[3]])
		end := len(content)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		records = append(records, parseBlocks(content[loc[1]:end], provider)...)
	}
	return records, nil
}

func parseBlocks(content, provider string) []models.ResponseRecord {
	var records []models.ResponseRecord
	for _, section := range strings.Split(content, "---") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		q := queryBlock.FindStringSubmatch(section)
		resp := responseBlock.FindStringSubmatch(section)
		if q == nil || resp == nil {
			continue
		}
		id, err := strconv.Atoi(q[1])
		if err != nil {
			continue
		}
		records = append(records, models.ResponseRecord{
			QueryID:      id,
			QueryText:    strings.TrimSpace(q[2]),
			Provider:     provider,
			ResponseText: strings.TrimSpace(resp[2]),
		})
	}
	return records
}

// FormatResponses writes records grouped by provider, in first-seen provider
// order, in the layout ParseResponses reads.
func FormatResponses(w io.Writer, records []models.ResponseRecord) error {
	var order []string
	byProvider := make(map[string][]models.ResponseRecord)
	for _, r := range records {
		provider := r.Provider
		if provider == "" {
			provider = unknownProvider
		}
		if _, ok := byProvider[provider]; !ok {
			order = append(order, provider)
		}
		byProvider[provider] = append(byProvider[provider], r)
	}

	bw := bufio.NewWriter(w)
	for _, provider := range order {
		group := byProvider[provider]
		sort.SliceStable(group, func(i, j int) bool { return group[i].QueryID < group[j].QueryID })

		fmt.Fprintf(bw, "=== %s RESPONSES ===\n\n", strings.ToUpper(provider))
		for _, r := range group {
			fmt.Fprintf(bw, "QUERY %d: %s\n", r.QueryID, r.QueryText)
			fmt.Fprintf(bw, "RESPONSE %d (%s): %s\n", r.QueryID, provider, r.ResponseText)
			fmt.Fprint(bw, "---\n\n")
		}
	}
	return bw.Flush()
}
