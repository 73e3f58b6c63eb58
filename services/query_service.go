// services/query_service.go
package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/internal/textparse"
)

// generationPreference is the order providers are tried for query generation.
var generationPreference = map[string]int{
	"perplexity": 0,
	"openai":     1,
	"claude":     2,
}

type queryService struct {
	providers []AIProvider
	log       zerolog.Logger
}

func NewQueryService(providers []AIProvider, log zerolog.Logger) QueryService {
	ordered := make([]AIProvider, len(providers))
	copy(ordered, providers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return preference(ordered[i].Name()) < preference(ordered[j].Name())
	})
	return &queryService{providers: ordered, log: log}
}

func preference(name string) int {
	if rank, ok := generationPreference[name]; ok {
		return rank
	}
	return len(generationPreference)
}

// GenerateQueries asks providers in preference order and keeps the first
// answer that parses into at least one query.
func (s *queryService) GenerateQueries(ctx context.Context, req common.QueryRequest) ([]models.Query, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}
	if len(s.providers) == 0 {
		return nil, models.ErrNoProviders
	}

	var lastErr error
	for _, provider := range s.providers {
		log := s.log.With().Str("provider", provider.Name()).Logger()

		text, err := provider.GenerateQueries(ctx, req)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Msg("query generation failed, trying next provider")
			continue
		}

		parsed := textparse.ParseQueries(text)
		if len(parsed) == 0 {
			lastErr = fmt.Errorf("%s returned no parseable queries", provider.Name())
			log.Warn().Msg("no queries parsed, trying next provider")
			continue
		}

		log.Info().Int("queries", len(parsed)).Msg("queries generated")
		return textparse.BuildQueries(parsed, req.Profile.Name, req.NumConsumer), nil
	}

	if lastErr == nil {
		lastErr = models.ErrNoQueries
	}
	return nil, fmt.Errorf("failed to generate queries: %w", lastErr)
}

// GenerateFromEach asks every provider for queries and merges the answers into
// one deduplicated, sorted list categorized by content.
func (s *queryService) GenerateFromEach(ctx context.Context, req common.QueryRequest) ([]models.Query, error) {
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}

	var lists [][]string
	for _, provider := range s.providers {
		text, err := provider.GenerateQueries(ctx, req)
		if err != nil {
			s.log.Warn().Err(err).Str("provider", provider.Name()).Msg("query generation failed")
			continue
		}
		lists = append(lists, textparse.ParseQueries(text))
	}

	merged := textparse.MergeQueries(lists...)
	if len(merged) == 0 {
		return nil, models.ErrNoQueries
	}
	s.log.Info().Int("providers", len(lists)).Int("queries", len(merged)).Msg("merged provider queries")
	return textparse.BuildQueries(merged, req.Profile.Name, 0), nil
}

// QueryRequestFor builds the generation request described by a run profile.
func QueryRequestFor(profile *config.RunProfile) common.QueryRequest {
	return common.QueryRequest{
		Profile:        profile.Business(),
		NumConsumer:    profile.NumConsumerQueries,
		NumBusiness:    profile.NumBusinessQueries,
		PromptTemplate: profile.QueryPromptTemplate,
	}
}
