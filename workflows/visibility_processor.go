// workflows/visibility_processor.go
package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/metrics"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/textparse"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

const VisibilityRunEventName = "visibility.run"

// ErrMissingRunID is returned for events without a run id. Producers assign
// the id so every step replay sees the same one.
var ErrMissingRunID = errors.New("visibility run event has no run_id")

// VisibilityRunEvent requests one visibility run. RunID is required and
// either Profile or ProfilePath must be set; Queries skips generation.
type VisibilityRunEvent struct {
	RunID       string             `json:"run_id"`
	Profile     *config.RunProfile `json:"profile,omitempty"`
	ProfilePath string             `json:"profile_path,omitempty"`
	Providers   []string           `json:"providers,omitempty"`
	Queries     []string           `json:"queries,omitempty"`
	TriggeredBy string             `json:"triggered_by,omitempty"`
}

// ProviderSource builds the answer providers for a run profile.
type ProviderSource interface {
	NewProviders(profile *config.RunProfile, only []string) ([]services.AIProvider, error)
}

type VisibilityProcessor struct {
	providers ProviderSource
	analyzer  services.VisibilityService
	store     services.RunStore
	alerter   *Alerter
	client    inngestgo.Client
	log       zerolog.Logger
}

func NewVisibilityProcessor(
	providers ProviderSource,
	analyzer services.VisibilityService,
	store services.RunStore,
	alerter *Alerter,
	log zerolog.Logger,
) *VisibilityProcessor {
	return &VisibilityProcessor{
		providers: providers,
		analyzer:  analyzer,
		store:     store,
		alerter:   alerter,
		log:       log,
	}
}

func (p *VisibilityProcessor) SetClient(client inngestgo.Client) {
	p.client = client
}

func (p *VisibilityProcessor) ProcessRun() inngestgo.ServableFunction {
	fn, err := inngestgo.CreateFunction(
		p.client,
		inngestgo.FunctionOpts{
			ID:      "process-visibility-run",
			Name:    "Process Visibility Run - Generate, Collect, Analyze",
			Retries: inngestgo.IntPtr(2),
		},
		inngestgo.EventTrigger(VisibilityRunEventName, nil),
		func(ctx context.Context, input inngestgo.Input[VisibilityRunEvent]) (any, error) {
			event := input.Event.Data
			log := p.log.With().Str("run_id", event.RunID).Logger()
			log.Info().Str("triggered_by", event.TriggeredBy).Msg("starting visibility run")

			run, err := p.prepare(event)
			if err != nil {
				return nil, p.fail(ctx, event.RunID, "", "prepare", err)
			}
			business := run.profile.Business()

			// Step 1: Create the run row and mark it running
			_, err = step.Run(ctx, "mark-running", func(ctx context.Context) (string, error) {
				return string(models.RunRunning), p.markRunning(ctx, run)
			})
			if err != nil {
				return nil, p.fail(ctx, run.id, business.Name, "mark-running", err)
			}

			// Step 2: Generate or accept queries
			queries, err := step.Run(ctx, "generate-queries", func(ctx context.Context) ([]models.Query, error) {
				return p.generate(ctx, run)
			})
			if err != nil {
				return nil, p.fail(ctx, run.id, business.Name, "generate-queries", err)
			}
			log.Info().Int("queries", len(queries)).Msg("queries ready")

			// Step 3: Ask every provider every query
			records, err := step.Run(ctx, "collect-responses", func(ctx context.Context) ([]models.ResponseRecord, error) {
				return p.collect(ctx, run, queries)
			})
			if err != nil {
				return nil, p.fail(ctx, run.id, business.Name, "collect-responses", err)
			}

			// Step 4: Discover competitors, scan and summarize
			report, err := step.Run(ctx, "analyze-responses", func(ctx context.Context) (*models.RunReport, error) {
				return p.analyze(ctx, run, queries, records)
			})
			if err != nil {
				return nil, p.fail(ctx, run.id, business.Name, "analyze-responses", err)
			}

			// Step 5: Persist the snapshot and mark it completed
			_, err = step.Run(ctx, "persist-report", func(ctx context.Context) (string, error) {
				return string(models.RunCompleted), p.persist(ctx, report)
			})
			if err != nil {
				return nil, p.fail(ctx, run.id, business.Name, "persist-report", err)
			}

			metrics.Runs.WithLabelValues(string(models.RunCompleted)).Inc()
			log.Info().
				Float64("visibility_score", report.Summary.VisibilityScore).
				Int("responses", report.Summary.TotalQueries).
				Msg("visibility run completed")

			return map[string]interface{}{
				"run_id":           run.id,
				"business_name":    business.Name,
				"status":           models.RunCompleted,
				"providers":        report.Providers,
				"total_queries":    report.Summary.TotalQueries,
				"business_found":   report.Summary.BusinessMentions,
				"visibility_score": report.Summary.VisibilityScore,
				"competitors":      len(report.Summary.CompetitorRanking),
				"completed_at":     time.Now().UTC(),
			}, nil
		},
	)

	if err != nil {
		p.log.Error().Err(err).Msg("failed to create visibility run function")
	}

	return fn
}

// preparedRun is the per-invocation state rebuilt on every step replay.
type preparedRun struct {
	id        string
	profile   *config.RunProfile
	providers []services.AIProvider
	queries   []string
}

func (r *preparedRun) providerNames() []string {
	names := make([]string, 0, len(r.providers))
	for _, provider := range r.providers {
		names = append(names, provider.Name())
	}
	return names
}

func (p *VisibilityProcessor) prepare(event VisibilityRunEvent) (*preparedRun, error) {
	if event.RunID == "" {
		return nil, ErrMissingRunID
	}
	run := &preparedRun{id: event.RunID, queries: event.Queries}

	switch {
	case event.Profile != nil:
		profile := *event.Profile
		if err := profile.Prepare(); err != nil {
			return nil, err
		}
		run.profile = &profile
	case event.ProfilePath != "":
		profile, err := config.LoadProfile(event.ProfilePath)
		if err != nil {
			return nil, err
		}
		run.profile = profile
	default:
		return nil, fmt.Errorf("event carries no profile: %w", models.ErrEmptyBusinessName)
	}

	providers, err := p.providers.NewProviders(run.profile, event.Providers)
	if err != nil {
		return nil, err
	}
	run.providers = providers
	return run, nil
}

func (p *VisibilityProcessor) markRunning(ctx context.Context, run *preparedRun) error {
	if err := p.store.CreateRun(ctx, run.id, run.profile.Business(), run.providerNames()); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return p.store.UpdateRunStatus(ctx, run.id, models.RunRunning, "")
}

func (p *VisibilityProcessor) generate(ctx context.Context, run *preparedRun) ([]models.Query, error) {
	business := run.profile.Business()
	if len(run.queries) > 0 {
		return textparse.BuildQueries(run.queries, business.Name, 0), nil
	}

	queryService := services.NewQueryService(run.providers, p.log)
	return queryService.GenerateQueries(ctx, services.QueryRequestFor(run.profile))
}

func (p *VisibilityProcessor) collect(ctx context.Context, run *preparedRun, queries []models.Query) ([]models.ResponseRecord, error) {
	if len(queries) == 0 {
		return nil, models.ErrNoQueries
	}
	records := services.NewCollectionService(run.providers, p.log).Collect(ctx, queries)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collection cancelled: %w", err)
	}
	return records, nil
}

func (p *VisibilityProcessor) analyze(ctx context.Context, run *preparedRun, queries []models.Query, records []models.ResponseRecord) (*models.RunReport, error) {
	return p.analyzer.Analyze(ctx, services.AnalyzeRequest{
		RunID:              run.id,
		Profile:            run.profile.Business(),
		Records:            records,
		Queries:            queries,
		StaticCompetitors:  run.profile.Competitors,
		CompetitorVariants: run.profile.CompetitorVariants,
	})
}

func (p *VisibilityProcessor) persist(ctx context.Context, report *models.RunReport) error {
	if err := p.store.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// fail records the failure on the run row, alerts and returns err.
func (p *VisibilityProcessor) fail(ctx context.Context, runID, businessName, stage string, err error) error {
	metrics.Runs.WithLabelValues(string(models.RunFailed)).Inc()
	p.log.Error().Err(err).Str("run_id", runID).Str("stage", stage).Msg("visibility run failed")

	ctx = context.WithoutCancel(ctx)
	if runID != "" {
		if businessName != "" {
			if createErr := p.store.CreateRun(ctx, runID, models.BusinessProfile{Name: businessName}, nil); createErr != nil {
				p.log.Error().Err(createErr).Msg("failed to create failed run")
			}
		}
		if statusErr := p.store.UpdateRunStatus(ctx, runID, models.RunFailed, err.Error()); statusErr != nil {
			p.log.Error().Err(statusErr).Msg("failed to mark run failed")
		}
	}
	if alertErr := p.alerter.ReportRunFailure(ctx, runID, businessName, stage, err); alertErr != nil {
		p.log.Warn().Err(alertErr).Msg("failed to send slack alert")
	}
	return fmt.Errorf("%s failed: %w", stage, err)
}
