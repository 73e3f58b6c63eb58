// services/visibility_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/analysis"
	"github.com/AI-Template-SDK/senso-visibility/internal/metrics"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
)

// VisibilityDeps are the collaborators of the visibility pipeline. Queries,
// Collection and Store may be nil when only Analyze is used.
type VisibilityDeps struct {
	Oracle     CompetitorOracle
	Discovery  DiscoveryOptions
	Queries    QueryService
	Collection CollectionService
	Store      RunStore
}

type visibilityService struct {
	deps VisibilityDeps
	log  zerolog.Logger
}

func NewVisibilityService(deps VisibilityDeps, log zerolog.Logger) VisibilityService {
	if deps.Oracle == nil {
		deps.Oracle = NewHeuristicOracle()
	}
	return &visibilityService{deps: deps, log: log}
}

// Analyze runs discovery over the batch, scans every record and summarizes.
// Failed records stay in the totals with zero signal.
func (s *visibilityService) Analyze(ctx context.Context, req AnalyzeRequest) (*models.RunReport, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := s.log.With().Str("run_id", runID).Logger()

	normalizer := analysis.NewNormalizer(req.CompetitorVariants)
	opts := s.deps.Discovery
	opts.Normalizer = normalizer
	discovery := NewCompetitorDiscoveryService(s.deps.Oracle, opts, log)

	texts := make([]string, 0, len(req.Records))
	for _, r := range req.Records {
		if !r.Failed() {
			texts = append(texts, r.ResponseText)
		}
	}

	log.Info().Int("records", len(req.Records)).Int("texts", len(texts)).Str("oracle", s.deps.Oracle.Name()).Msg("discovering competitors")
	discovered, err := discovery.Discover(ctx, texts, req.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to discover competitors: %w", err)
	}

	scanner, err := analysis.NewScanner(req.Profile, normalizer, discovered.Names(), req.StaticCompetitors)
	if err != nil {
		return nil, fmt.Errorf("failed to build scanner: %w", err)
	}
	analyses := scanner.ScanAll(req.Records)
	summary := analysis.Summarize(analyses)

	log.Info().
		Int("responses", summary.TotalQueries).
		Int("mentions", summary.BusinessMentions).
		Float64("visibility_score", summary.VisibilityScore).
		Int("competitors", len(summary.CompetitorRanking)).
		Msg("analysis complete")

	return &models.RunReport{
		RunID:       runID,
		Profile:     req.Profile,
		Providers:   summary.ProviderOrder,
		Queries:     req.Queries,
		Discovery:   discovered,
		Analyses:    analyses,
		Summary:     summary,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Run generates (unless queries are supplied), collects, analyzes and
// persists one run. The stored status moves running, then completed or failed.
func (s *visibilityService) Run(ctx context.Context, req RunRequest) (*models.RunReport, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	if s.deps.Collection == nil {
		return nil, models.ErrNoProviders
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	log := s.log.With().Str("run_id", req.RunID).Logger()

	if s.deps.Store != nil {
		if err := s.deps.Store.CreateRun(ctx, req.RunID, req.Profile, s.deps.Collection.Providers()); err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		if err := s.deps.Store.UpdateRunStatus(ctx, req.RunID, models.RunRunning, ""); err != nil {
			return nil, fmt.Errorf("failed to mark run running: %w", err)
		}
	}

	report, err := s.run(ctx, req, log)
	if err != nil {
		metrics.Runs.WithLabelValues(string(models.RunFailed)).Inc()
		if s.deps.Store != nil {
			if statusErr := s.deps.Store.UpdateRunStatus(context.WithoutCancel(ctx), req.RunID, models.RunFailed, err.Error()); statusErr != nil {
				log.Error().Err(statusErr).Msg("failed to mark run failed")
			}
		}
		return nil, err
	}

	metrics.Runs.WithLabelValues(string(models.RunCompleted)).Inc()
	return report, nil
}

func (s *visibilityService) run(ctx context.Context, req RunRequest, log zerolog.Logger) (*models.RunReport, error) {
	queries := req.Queries
	if len(queries) == 0 {
		if s.deps.Queries == nil {
			return nil, models.ErrNoQueries
		}
		generated, err := s.deps.Queries.GenerateQueries(ctx, common.QueryRequest{
			Profile:        req.Profile,
			NumConsumer:    req.NumConsumer,
			NumBusiness:    req.NumBusiness,
			PromptTemplate: req.PromptTemplate,
		})
		if err != nil {
			return nil, err
		}
		queries = generated
	}
	log.Info().Int("queries", len(queries)).Msg("collecting responses")

	records := s.deps.Collection.Collect(ctx, queries)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled during collection: %w", err)
	}

	report, err := s.Analyze(ctx, AnalyzeRequest{
		RunID:              req.RunID,
		Profile:            req.Profile,
		Records:            records,
		Queries:            queries,
		StaticCompetitors:  req.StaticCompetitors,
		CompetitorVariants: req.CompetitorVariants,
	})
	if err != nil {
		return nil, err
	}

	if s.deps.Store != nil {
		if err := s.deps.Store.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to save report: %w", err)
		}
	}
	return report, nil
}
