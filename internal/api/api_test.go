package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/inngest/inngestgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/analysis"
	"github.com/AI-Template-SDK/senso-visibility/internal/api"
	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/testutil"
	"github.com/AI-Template-SDK/senso-visibility/internal/store"
	"github.com/AI-Template-SDK/senso-visibility/workflows"
)

type fakeSender struct {
	mu     sync.Mutex
	events []inngestgo.Event
	err    error
}

func (f *fakeSender) Send(ctx context.Context, evt any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, evt.(inngestgo.Event))
	return "evt-1", nil
}

func setup(t *testing.T) (*store.Store, *fakeSender, http.Handler) {
	s, err := store.Open(context.Background(), config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "api.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	sender := &fakeSender{}
	router := api.NewRouter(api.Dependencies{
		Store:   s,
		Events:  sender,
		Service: "senso-visibility",
		Log:     zerolog.Nop(),
	})
	return s, sender, router
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func completedRun(t *testing.T, s *store.Store, runID string) {
	ctx := context.Background()
	profile := testutil.SampleProfile()
	require.NoError(t, s.CreateRun(ctx, runID, profile, []string{"openai"}))

	scanner, err := analysis.NewScanner(profile, nil, []string{"Old Man Emu", "Bilstein", "Tough Dog"}, nil)
	require.NoError(t, err)
	analyses := scanner.ScanAll(testutil.SampleRecords("openai"))
	summary := analysis.Summarize(analyses)

	require.NoError(t, s.SaveReport(ctx, &models.RunReport{
		RunID:     runID,
		Profile:   profile,
		Providers: summary.ProviderOrder,
		Analyses:  analyses,
		Summary:   summary,
	}))
}

func TestHealthAndRoot(t *testing.T) {
	_, _, router := setup(t)

	rec := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "senso-visibility")

	rec = do(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRun(t *testing.T) {
	s, sender, router := setup(t)

	rec := do(t, router, http.MethodPost, "/api/runs", api.CreateRunRequest{
		Profile:   &config.RunProfile{BusinessName: "Acme Suspensions"},
		Providers: []string{"openai"},
		Queries:   []string{"Best lift kits?"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			RunID   string `json:"run_id"`
			EventID string `json:"event_id"`
			Status  string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.RunID)
	assert.Equal(t, "evt-1", resp.Data.EventID)
	assert.Equal(t, "pending", resp.Data.Status)

	run, err := s.GetRun(context.Background(), resp.Data.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunPending, run.Status)
	assert.Equal(t, "Acme Suspensions", run.BusinessName)

	require.Len(t, sender.events, 1)
	evt := sender.events[0]
	assert.Equal(t, workflows.VisibilityRunEventName, evt.Name)
	assert.Equal(t, resp.Data.RunID, evt.Data["run_id"])
	assert.Equal(t, "api", evt.Data["triggered_by"])
	assert.Equal(t, []interface{}{"Best lift kits?"}, evt.Data["queries"])
}

func TestCreateRunRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"no profile", api.CreateRunRequest{}, "INVALID_REQUEST"},
		{"empty business", api.CreateRunRequest{Profile: &config.RunProfile{BusinessName: "  "}}, "INVALID_PROFILE"},
		{"missing profile file", api.CreateRunRequest{ProfilePath: "/nonexistent/profile.yaml"}, "INVALID_PROFILE"},
		{"not json", "just a string", "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sender, router := setup(t)
			rec := do(t, router, http.MethodPost, "/api/runs", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
			assert.Empty(t, sender.events)
		})
	}
}

func TestCreateRunEventFailure(t *testing.T) {
	_, sender, router := setup(t)
	sender.err = errors.New("inngest down")

	rec := do(t, router, http.MethodPost, "/api/runs", api.CreateRunRequest{
		Profile: &config.RunProfile{BusinessName: "Acme Suspensions"},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "EVENT_ERROR")
}

func TestGetRunEndpoints(t *testing.T) {
	s, _, router := setup(t)
	completedRun(t, s, "run-1")

	rec := do(t, router, http.MethodGet, "/api/runs/run-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Data struct {
			Run    store.Run         `json:"run"`
			Report *models.RunReport `json:"report"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, models.RunCompleted, detail.Data.Run.Status)
	require.NotNil(t, detail.Data.Report)
	assert.Equal(t, 3, detail.Data.Report.Summary.TotalQueries)

	rec = do(t, router, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"run-1"`)

	rec = do(t, router, http.MethodGet, "/api/runs/run-1/competitors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Old Man Emu")

	rec = do(t, router, http.MethodGet, "/api/runs/run-1/queries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var queries struct {
		Data []store.QueryRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queries))
	assert.Len(t, queries.Data, 3)
}

func TestUnknownRunIsNotFound(t *testing.T) {
	_, _, router := setup(t)

	for _, path := range []string{"/api/runs/missing", "/api/runs/missing/competitors", "/api/runs/missing/queries"} {
		rec := do(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"Run not found"}}`, rec.Body.String())
	}
}
