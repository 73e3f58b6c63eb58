package analysis

import (
	"sort"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Summarize rolls analyses up per provider and overall. Competitor counts are
// response-presence counts. Output depends only on the input order.
func Summarize(analyses []models.ResponseAnalysis) models.Summary {
	summary := models.Summary{
		Providers:         make(map[string]*models.ProviderSummary),
		ProviderOrder:     []string{},
		CompetitorRanking: []models.RankedCompetitor{},
	}

	overall := make(models.CompetitorCounts)
	var overallOrder []string

	for _, a := range analyses {
		ps, ok := summary.Providers[a.Record.Provider]
		if !ok {
			ps = &models.ProviderSummary{
				Provider:            a.Record.Provider,
				CompetitorsFound:    []string{},
				CompetitorFrequency: make(models.CompetitorCounts),
			}
			summary.Providers[a.Record.Provider] = ps
			summary.ProviderOrder = append(summary.ProviderOrder, a.Record.Provider)
		}

		ps.TotalQueries++
		summary.TotalQueries++
		if a.Record.Failed() {
			ps.FailedResponses++
		}
		if a.Mention.BusinessMentioned {
			ps.BusinessFoundCount++
			summary.BusinessMentions++
		}
		for _, c := range a.Citations {
			ps.CitationCount++
			if c.Primary {
				ps.PrimaryCitationCount++
			}
		}

		inResponse := make(map[string]bool, len(a.Mention.CompetitorsMentioned))
		for _, name := range a.Mention.CompetitorsMentioned {
			if name == "" || inResponse[name] {
				continue
			}
			inResponse[name] = true

			if ps.CompetitorFrequency[name] == 0 {
				ps.CompetitorsFound = append(ps.CompetitorsFound, name)
			}
			ps.CompetitorFrequency[name]++

			if overall[name] == 0 {
				overallOrder = append(overallOrder, name)
			}
			overall[name]++
		}
	}

	for _, ps := range summary.Providers {
		ps.MentionRate = ratio(ps.BusinessFoundCount, ps.TotalQueries)
	}
	summary.VisibilityScore = ratio(summary.BusinessMentions, summary.TotalQueries) * 100
	summary.CompetitorRanking = RankCompetitors(overall, overallOrder)
	return summary
}

// RankCompetitors sorts counts descending, breaking ties by position in order.
// Names missing from order go last, alphabetically.
func RankCompetitors(counts models.CompetitorCounts, order []string) []models.RankedCompetitor {
	ranking := make([]models.RankedCompetitor, 0, len(counts))
	listed := make(map[string]bool, len(order))
	for _, name := range order {
		if count, ok := counts[name]; ok && !listed[name] {
			listed[name] = true
			ranking = append(ranking, models.RankedCompetitor{Name: name, Count: count})
		}
	}

	var rest []string
	for name := range counts {
		if !listed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		ranking = append(ranking, models.RankedCompetitor{Name: name, Count: counts[name]})
	}

	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].Count > ranking[j].Count })
	return ranking
}

// ProviderRanking ranks one provider's competitors.
func ProviderRanking(ps *models.ProviderSummary) []models.RankedCompetitor {
	if ps == nil {
		return nil
	}
	return RankCompetitors(ps.CompetitorFrequency, ps.CompetitorsFound)
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
