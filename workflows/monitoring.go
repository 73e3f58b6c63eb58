// workflows/monitoring.go
package workflows

import (
	"context"
	"sort"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/store"
)

// RunLister lists recent runs, newest first.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// BusinessDigest is one business's visibility over the digest window
type BusinessDigest struct {
	BusinessName     string  `json:"business_name"`
	Runs             int     `json:"runs"`
	Completed        int     `json:"completed"`
	Failed           int     `json:"failed"`
	AvgVisibility    float64 `json:"avg_visibility"`
	LatestVisibility float64 `json:"latest_visibility"`
}

// Digest summarizes runs since a point in time
type Digest struct {
	Since      time.Time        `json:"since"`
	TotalRuns  int              `json:"total_runs"`
	FailedRuns int              `json:"failed_runs"`
	Businesses []BusinessDigest `json:"businesses"`
	Healthy    bool             `json:"healthy"`
}

// BuildDigest groups runs newer than since by business. Visibility averages
// only count completed runs. The digest is unhealthy when more than a fifth
// of the runs failed.
func BuildDigest(runs []store.Run, since time.Time) Digest {
	digest := Digest{Since: since, Businesses: []BusinessDigest{}}
	byName := make(map[string]*BusinessDigest)
	var order []string

	for _, run := range runs {
		if run.Timestamp.Before(since) {
			continue
		}
		b, ok := byName[run.BusinessName]
		if !ok {
			b = &BusinessDigest{BusinessName: run.BusinessName}
			byName[run.BusinessName] = b
			order = append(order, run.BusinessName)
		}

		b.Runs++
		digest.TotalRuns++
		switch run.Status {
		case models.RunFailed:
			b.Failed++
			digest.FailedRuns++
		case models.RunCompleted:
			// runs arrive newest first
			if b.Completed == 0 {
				b.LatestVisibility = run.VisibilityScore
			}
			b.AvgVisibility += run.VisibilityScore
			b.Completed++
		}
	}

	for _, name := range order {
		b := byName[name]
		if b.Completed > 0 {
			b.AvgVisibility /= float64(b.Completed)
		}
		digest.Businesses = append(digest.Businesses, *b)
	}
	sort.SliceStable(digest.Businesses, func(i, j int) bool {
		return digest.Businesses[i].AvgVisibility > digest.Businesses[j].AvgVisibility
	})

	digest.Healthy = digest.TotalRuns == 0 || float64(digest.FailedRuns)/float64(digest.TotalRuns) <= 0.2
	return digest
}

func (p *ScheduledProcessor) WeeklyVisibilityDigest() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "weekly-visibility-digest",
			Name: "Weekly Visibility Digest",
		},
		inngestgo.CronTrigger("0 0 * * 0"), // Every Sunday at midnight
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			runs, err := step.Run(ctx, "list-recent-runs", func(ctx context.Context) ([]store.Run, error) {
				return p.runs.ListRuns(ctx, 500)
			})
			if err != nil {
				return nil, err
			}

			digest := BuildDigest(runs, time.Now().AddDate(0, 0, -7))
			if !digest.Healthy {
				if alertErr := p.alerter.ReportDigestWarning(ctx, digest.FailedRuns, digest.TotalRuns); alertErr != nil {
					p.log.Warn().Err(alertErr).Msg("failed to send digest alert")
				}
			}
			p.log.Info().
				Int("runs", digest.TotalRuns).
				Int("failed", digest.FailedRuns).
				Int("businesses", len(digest.Businesses)).
				Msg("weekly digest built")
			return digest, nil
		},
	)

	if err != nil {
		p.log.Error().Err(err).Msg("failed to create weekly visibility digest function")
	}

	return fn
}
