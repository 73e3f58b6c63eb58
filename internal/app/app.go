// Package app wires config into the services shared by the server and the CLI.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/cache"
	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

// Components are the long-lived services built from config.
type Components struct {
	Cache     cache.Cache // nil when no cache could be opened
	Oracle    services.CompetitorOracle
	Discovery services.DiscoveryOptions
	Factory   *providers.Factory
	Analyzer  services.VisibilityService
}

// Build creates the cache, oracle, provider factory and analyzer. store may be nil.
func Build(cfg *config.Config, store services.RunStore, log zerolog.Logger) *Components {
	c := &Components{}

	competitorCache, err := NewCache(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("competitor cache disabled")
	} else {
		c.Cache = competitorCache
	}

	c.Oracle = NewOracle(cfg, log)
	c.Factory = providers.NewFactory(cfg, services.NewCostService(), log)

	c.Discovery = services.DiscoveryOptions{
		Concurrency: cfg.Oracle.Concurrency,
		Retries:     cfg.Oracle.Retries,
	}
	if c.Cache != nil {
		c.Discovery.Cache = c.Cache
	}
	c.Analyzer = services.NewVisibilityService(services.VisibilityDeps{
		Oracle:    c.Oracle,
		Discovery: c.Discovery,
		Store:     store,
	}, log)

	return c
}

// Runner builds a service that runs the whole pipeline over providers and
// persists into store, which may be nil.
func (c *Components) Runner(providers []services.AIProvider, store services.RunStore, log zerolog.Logger) services.VisibilityService {
	return services.NewVisibilityService(services.VisibilityDeps{
		Oracle:     c.Oracle,
		Discovery:  c.Discovery,
		Queries:    services.NewQueryService(providers, log),
		Collection: services.NewCollectionService(providers, log),
		Store:      store,
	}, log)
}

// NewCache prefers Redis when REDIS_URL is set and falls back to a local bbolt file.
func NewCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, cache.DefaultTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		return redisCache, nil
	}
	if cfg.CachePath == "" {
		return nil, fmt.Errorf("no cache configured")
	}
	boltCache, err := cache.NewBoltCache(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt cache: %w", err)
	}
	return boltCache, nil
}

// NewOracle uses the LLM oracle when an OpenAI key is configured and the
// lexical fallback otherwise.
func NewOracle(cfg *config.Config, log zerolog.Logger) services.CompetitorOracle {
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set, using heuristic competitor oracle")
		return services.NewHeuristicOracle()
	}
	return services.NewOpenAIOracle(cfg, "", log)
}

// Close releases the cache.
func (c *Components) Close() error {
	if c.Cache == nil {
		return nil
	}
	return c.Cache.Close()
}
