// workflows/scheduled_processor.go
package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/rs/zerolog"
)

type ScheduledProcessor struct {
	profiles []string
	runs     RunLister
	alerter  *Alerter
	client   inngestgo.Client
	log      zerolog.Logger
}

// NewScheduledProcessor schedules daily runs for the given profile paths and
// the weekly digest over runs.
func NewScheduledProcessor(profiles []string, runs RunLister, alerter *Alerter, log zerolog.Logger) *ScheduledProcessor {
	return &ScheduledProcessor{
		profiles: profiles,
		runs:     runs,
		alerter:  alerter,
		log:      log,
	}
}

func (p *ScheduledProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

// ScheduledRunID is stable for one profile on one day, so a replayed send
// targets the same run row.
func ScheduledRunID(profilePath string, day time.Time) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(profilePath+"@"+day.UTC().Format("2006-01-02"))).String()
}

// ScheduledEvents builds one run event per configured profile.
func (p *ScheduledProcessor) ScheduledEvents(now time.Time) []VisibilityRunEvent {
	events := make([]VisibilityRunEvent, 0, len(p.profiles))
	for _, path := range p.profiles {
		events = append(events, VisibilityRunEvent{
			RunID:       ScheduledRunID(path, now),
			ProfilePath: path,
			TriggeredBy: "automatic_scheduler",
		})
	}
	return events
}

func (p *ScheduledProcessor) DailyVisibilityRuns() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:   "daily-visibility-runs",
			Name: "Daily Visibility Runs - Scheduled Profiles",
		},
		inngestgo.CronTrigger("0 2 * * *"), // Every day at 2 AM UTC
		func(ctx context.Context, input inngestgo.Input[any]) (any, error) {
			now := time.Now()
			events := p.ScheduledEvents(now)
			if len(events) == 0 {
				return map[string]interface{}{
					"execution_date": now.Format("2006-01-02"),
					"total_profiles": 0,
					"message":        "No profiles scheduled",
				}, nil
			}

			// One step per profile so a retry only re-sends what did not complete.
			sent := 0
			for _, evt := range events {
				evt := evt
				_, err := step.Run(ctx, fmt.Sprintf("trigger-visibility-run-%s", evt.RunID), func(ctx context.Context) (interface{}, error) {
					return p.client.Send(ctx, inngestgo.Event{
						Name: VisibilityRunEventName,
						Data: map[string]interface{}{
							"run_id":       evt.RunID,
							"profile_path": evt.ProfilePath,
							"triggered_by": evt.TriggeredBy,
						},
					})
				})
				if err != nil {
					p.log.Warn().Err(err).Str("profile", evt.ProfilePath).Msg("failed to send scheduled run event")
					continue
				}
				sent++
			}

			return map[string]interface{}{
				"execution_date": now.Format("2006-01-02"),
				"total_profiles": len(events),
				"runs_triggered": sent,
				"message":        fmt.Sprintf("Triggered %d visibility runs", sent),
			}, nil
		},
	)

	if err != nil {
		p.log.Error().Err(err).Msg("failed to create daily visibility runs function")
	}

	return fn
}
