// services/competitor_discovery_service.go
package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AI-Template-SDK/senso-visibility/internal/analysis"
	"github.com/AI-Template-SDK/senso-visibility/internal/cache"
	"github.com/AI-Template-SDK/senso-visibility/internal/metrics"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// DiscoveryOptions tune the discovery batch
type DiscoveryOptions struct {
	Concurrency   int // clamped to 1..5
	Retries       int
	RetryInterval time.Duration
	Normalizer    *analysis.Normalizer
	Cache         CompetitorCache // optional
}

type competitorDiscoveryService struct {
	oracle CompetitorOracle
	opts   DiscoveryOptions
	log    zerolog.Logger
}

func NewCompetitorDiscoveryService(oracle CompetitorOracle, opts DiscoveryOptions, log zerolog.Logger) CompetitorDiscoveryService {
	opts.Concurrency = max(1, min(opts.Concurrency, 5))
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.Normalizer == nil {
		opts.Normalizer = analysis.NewNormalizer(nil)
	}
	return &competitorDiscoveryService{oracle: oracle, opts: opts, log: log}
}

type extraction struct {
	names     []string
	attempted bool
	ok        bool
	cached    bool
}

// Discover extracts competitors from every non-empty text. A text whose
// extraction still fails after retries is skipped and counted; the batch
// itself only fails when ctx is cancelled before any work completes.
func (s *competitorDiscoveryService) Discover(ctx context.Context, texts []string, profile models.BusinessProfile) (*models.DiscoveryResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	results := make([]extraction, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, text := range texts {
		if models.IsFailedResponse(text) {
			continue
		}
		g.Go(func() error {
			results[i] = s.extractOne(gctx, i, text, profile)
			return nil
		})
	}
	_ = g.Wait()

	result := s.aggregate(results, profile)
	s.log.Info().
		Int("responses", len(texts)).
		Int("processed", result.Processed).
		Int("cached", result.Cached).
		Int("skipped", result.Skipped).
		Int("competitors", len(result.Order)).
		Msg("competitor discovery complete")

	if result.Processed == 0 && ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

func (s *competitorDiscoveryService) extractOne(ctx context.Context, idx int, text string, profile models.BusinessProfile) extraction {
	log := s.log.With().Int("response", idx+1).Logger()

	key := cache.Key(s.oracle.Name(), profile, text)
	if s.opts.Cache != nil {
		names, found, err := s.opts.Cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("cache lookup failed")
		} else if found {
			metrics.OracleExtractions.WithLabelValues("cached").Inc()
			return extraction{names: names, attempted: true, ok: true, cached: true}
		}
	}

	var names []string
	operation := func() error {
		var err error
		names, err = s.oracle.ExtractCompetitors(ctx, text, profile)
		return err
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.opts.RetryInterval
	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.opts.Retries)), ctx),
		func(err error, wait time.Duration) {
			log.Debug().Err(err).Dur("wait", wait).Msg("retrying extraction")
		})
	if err != nil {
		metrics.OracleExtractions.WithLabelValues("skipped").Inc()
		log.Warn().Err(err).Msg("extraction failed, skipping response")
		return extraction{attempted: true}
	}

	metrics.OracleExtractions.WithLabelValues("ok").Inc()
	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, key, names); err != nil {
			log.Warn().Err(err).Msg("cache store failed")
		}
	}
	return extraction{names: names, attempted: true, ok: true}
}

// aggregate walks results in input order, which fixes first-discovered order
func (s *competitorDiscoveryService) aggregate(results []extraction, profile models.BusinessProfile) *models.DiscoveryResult {
	result := &models.DiscoveryResult{
		Counts: models.CompetitorCounts{},
		Order:  []string{},
	}

	for _, r := range results {
		if r.attempted && !r.ok {
			result.Skipped++
		}
		if !r.ok {
			continue
		}
		result.Processed++
		if r.cached {
			result.Cached++
		}

		seen := make(map[string]bool)
		for _, raw := range r.names {
			name := s.opts.Normalizer.Normalize(raw)
			if name == "" || profile.IsSelf(name) || seen[name] {
				continue
			}
			seen[name] = true
			if _, known := result.Counts[name]; !known {
				result.Order = append(result.Order, name)
			}
			result.Counts[name]++
		}
	}

	result.Ranking = analysis.RankCompetitors(result.Counts, result.Order)
	return result
}
