package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/AI-Template-SDK/senso-visibility/internal/metrics"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response from provider")

// CallFunc performs a single provider call for query.
type CallFunc func(ctx context.Context, query string) (*AIResponse, error)

// Dispatcher applies the per-provider call policy: cooperative rate limiting,
// a circuit breaker, bounded retries and bounded fan-out.
type Dispatcher struct {
	provider      string
	model         string
	limiter       *rate.Limiter
	breaker       *gobreaker.CircuitBreaker
	maxConcurrent int
	retries       int
	retryInterval time.Duration
	log           zerolog.Logger
}

// NewDispatcher builds the dispatcher for one provider.
func NewDispatcher(provider string, settings Settings, retryInterval time.Duration, log zerolog.Logger) *Dispatcher {
	limit := rate.Inf
	if settings.RateDelay > 0 {
		limit = rate.Every(settings.RateDelay)
	}
	if retryInterval <= 0 {
		retryInterval = 500 * time.Millisecond
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        provider,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Dispatcher{
		provider:      provider,
		model:         settings.Model,
		limiter:       rate.NewLimiter(limit, 1),
		breaker:       breaker,
		maxConcurrent: max(1, settings.MaxConcurrent),
		retries:       max(0, settings.Retries),
		retryInterval: retryInterval,
		log:           log,
	}
}

// Call runs fn under the provider policy and returns the first non-empty response.
func (d *Dispatcher) Call(ctx context.Context, fn func(ctx context.Context) (*AIResponse, error)) (*AIResponse, error) {
	var resp *AIResponse

	operation := func() error {
		if err := d.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		start := time.Now()
		out, err := d.breaker.Execute(func() (interface{}, error) {
			r, err := fn(ctx)
			if err != nil {
				return nil, err
			}
			if r == nil || strings.TrimSpace(r.Response) == "" {
				return nil, ErrEmptyResponse
			}
			return r, nil
		})
		metrics.ProviderLatency.WithLabelValues(d.provider).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.ProviderCalls.WithLabelValues(d.provider, "error").Inc()
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = out.(*AIResponse)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.retryInterval
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(d.retries)), ctx))
	if err != nil {
		metrics.ProviderCalls.WithLabelValues(d.provider, "failed").Inc()
		return nil, fmt.Errorf("%s call failed: %w", d.provider, err)
	}
	metrics.ProviderCalls.WithLabelValues(d.provider, "ok").Inc()
	return resp, nil
}

// Many calls call for every query with at most maxConcurrent in flight. It never
// fails: a query whose call still fails after retries gets the error sentinel.
// Records are returned in input order with 1-based query IDs.
func (d *Dispatcher) Many(ctx context.Context, queries []string, call CallFunc) []models.ResponseRecord {
	records := make([]models.ResponseRecord, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxConcurrent)

	for i, query := range queries {
		g.Go(func() error {
			record := models.ResponseRecord{
				QueryID:      i + 1,
				QueryText:    query,
				Provider:     d.provider,
				Model:        d.model,
				ResponseText: models.ErrorResponseSentinel,
			}

			resp, err := d.Call(gctx, func(ctx context.Context) (*AIResponse, error) {
				return call(ctx, query)
			})
			if err != nil {
				d.log.Warn().Err(err).Int("query_id", i+1).Msg("response failed, recording sentinel")
			} else {
				record.ResponseText = resp.Response
				record.InputTokens = resp.InputTokens
				record.OutputTokens = resp.OutputTokens
				record.Cost = resp.Cost
			}

			records[i] = record
			d.log.Debug().Int("done", i+1).Int("total", len(queries)).Msg("query processed")
			return nil
		})
	}
	_ = g.Wait()

	return records
}
