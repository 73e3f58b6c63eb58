// Package api serves the run endpoints next to the workflow handler.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/store"
)

// RunStore is the part of the snapshot store the API reads and writes.
type RunStore interface {
	CreateRun(ctx context.Context, runID string, profile models.BusinessProfile, providers []string) error
	GetRun(ctx context.Context, runID string) (*store.Run, error)
	GetReport(ctx context.Context, runID string) (*models.RunReport, error)
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	ListCompetitors(ctx context.Context, runID string) ([]store.Competitor, error)
	ListQueries(ctx context.Context, runID string) ([]store.QueryRow, error)
	Ping(ctx context.Context) error
}

// EventSender publishes workflow events. inngestgo.Client satisfies it.
type EventSender interface {
	Send(ctx context.Context, evt any) (string, error)
}

// Dependencies holds everything the router serves.
type Dependencies struct {
	Store   RunStore
	Events  EventSender
	Inngest http.Handler
	Service string
	Log     zerolog.Logger
}

// NewRouter builds the chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	h := &handlers{store: deps.Store, events: deps.Events, log: deps.Log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Log))

	// Root endpoint for ALB health check
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"service": deps.Service, "status": "running"})
	})
	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())
	if deps.Inngest != nil {
		r.Handle("/api/inngest", deps.Inngest)
	}

	r.Route("/api/runs", func(r chi.Router) {
		r.Post("/", h.createRun)
		r.Get("/", h.listRuns)
		r.Get("/{runID}", h.getRun)
		r.Get("/{runID}/competitors", h.listCompetitors)
		r.Get("/{runID}/queries", h.listQueries)
	})

	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
