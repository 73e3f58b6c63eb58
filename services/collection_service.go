// services/collection_service.go
package services

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

type collectionService struct {
	providers []AIProvider
	log       zerolog.Logger
}

func NewCollectionService(providers []AIProvider, log zerolog.Logger) CollectionService {
	return &collectionService{providers: providers, log: log}
}

func (s *collectionService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// Collect fans the queries out to every provider at once; each provider
// bounds its own concurrency. Record query IDs are the queries' IDs, and the
// output is ordered by provider name, then query ID.
func (s *collectionService) Collect(ctx context.Context, queries []models.Query) []models.ResponseRecord {
	texts := make([]string, len(queries))
	for i, q := range queries {
		texts[i] = q.Text
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []models.ResponseRecord
	)
	for _, provider := range s.providers {
		wg.Add(1)
		go func(provider AIProvider) {
			defer wg.Done()
			s.log.Info().Str("provider", provider.Name()).Int("queries", len(texts)).Msg("collecting responses")

			got := provider.GetManyResponses(ctx, texts)
			for i := range got {
				if i < len(queries) && queries[i].ID > 0 {
					got[i].QueryID = queries[i].ID
				}
			}

			failed := 0
			for _, r := range got {
				if r.Failed() {
					failed++
				}
			}
			s.log.Info().Str("provider", provider.Name()).Int("responses", len(got)).Int("failed", failed).Msg("provider finished")

			mu.Lock()
			records = append(records, got...)
			mu.Unlock()
		}(provider)
	}
	wg.Wait()

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Provider != records[j].Provider {
			return records[i].Provider < records[j].Provider
		}
		return records[i].QueryID < records[j].QueryID
	})
	return records
}
