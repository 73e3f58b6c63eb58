package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/common"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/testutil"
	"github.com/AI-Template-SDK/senso-visibility/services"
)

type recordingStore struct {
	mu       sync.Mutex
	events   []string
	lastErr  string
	reports  []*models.RunReport
	failSave bool
}

func (s *recordingStore) CreateRun(ctx context.Context, runID string, profile models.BusinessProfile, providers []string) error {
	s.record("create:" + runID)
	return nil
}

func (s *recordingStore) UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus, errMsg string) error {
	s.record("status:" + string(status))
	s.mu.Lock()
	s.lastErr = errMsg
	s.mu.Unlock()
	return nil
}

func (s *recordingStore) SaveReport(ctx context.Context, report *models.RunReport) error {
	if s.failSave {
		return errors.New("disk full")
	}
	s.record("save")
	s.mu.Lock()
	s.reports = append(s.reports, report)
	s.mu.Unlock()
	return nil
}

func (s *recordingStore) record(event string) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func sampleAnalyzeRequest() services.AnalyzeRequest {
	records := testutil.SampleRecords("openai")
	records = append(records,
		models.ResponseRecord{QueryID: 1, Provider: "claude", ResponseText: models.ErrorResponseSentinel},
		models.ResponseRecord{QueryID: 2, Provider: "claude", ResponseText: "Nothing relevant."},
	)
	return services.AnalyzeRequest{
		RunID:             "run-1",
		Profile:           testutil.SampleProfile(),
		Records:           records,
		StaticCompetitors: []string{"Pedders"},
	}
}

func sampleOracle() *testutil.MockOracle {
	responses := testutil.SampleResponses()
	return scriptedOracle(map[string][]string{
		responses[0]: {"OME", "Bilstein"},
		responses[1]: {"Tough Dog", "Acme Suspensions"},
		responses[2]: {"Pedders"},
	})
}

func TestAnalyze(t *testing.T) {
	oracle := sampleOracle()
	svc := services.NewVisibilityService(services.VisibilityDeps{Oracle: oracle}, zerolog.Nop())

	report, err := svc.Analyze(context.Background(), sampleAnalyzeRequest())
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, []string{"openai", "claude"}, report.Providers)
	assert.Equal(t, 4, oracle.Calls(), "failed records are not sent to the oracle")
	assert.Equal(t, 4, report.Discovery.Processed)

	summary := report.Summary
	assert.Equal(t, 5, summary.TotalQueries)
	assert.Equal(t, 2, summary.BusinessMentions)
	assert.InDelta(t, 40.0, summary.VisibilityScore, 1e-9)
	assert.Equal(t, 1, summary.Providers["claude"].FailedResponses)
	assert.InDelta(t, 2.0/3.0, summary.Providers["openai"].MentionRate, 1e-9)

	names := make([]string, 0, len(summary.CompetitorRanking))
	for _, c := range summary.CompetitorRanking {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Old Man Emu", "Bilstein", "Tough Dog", "Pedders Suspension"}, names)

	rows := report.Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, "Old Man Emu;Bilstein", rows[0].CompetitorsMentioned)
	assert.Equal(t, "Not mentioned", rows[0].BusinessPosition)
	assert.Equal(t, "Early", rows[1].BusinessPosition)
	assert.Equal(t, "None", rows[3].CompetitorsMentioned)
}

func TestAnalyzeWithoutOracleUsesHeuristic(t *testing.T) {
	svc := services.NewVisibilityService(services.VisibilityDeps{}, zerolog.Nop())
	report, err := svc.Analyze(context.Background(), services.AnalyzeRequest{
		Profile: testutil.SampleProfile(),
		Records: testutil.SampleRecords("openai"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Summary.TotalQueries)
}

func TestAnalyzeRejectsEmptyBusiness(t *testing.T) {
	svc := services.NewVisibilityService(services.VisibilityDeps{}, zerolog.Nop())
	_, err := svc.Analyze(context.Background(), services.AnalyzeRequest{})
	assert.ErrorIs(t, err, models.ErrEmptyBusinessName)
}

func newRunService(provider *testutil.MockProvider, store services.RunStore) services.VisibilityService {
	providers := []services.AIProvider{provider}
	return services.NewVisibilityService(services.VisibilityDeps{
		Oracle:     sampleOracle(),
		Queries:    services.NewQueryService(providers, zerolog.Nop()),
		Collection: services.NewCollectionService(providers, zerolog.Nop()),
		Store:      store,
	}, zerolog.Nop())
}

func TestRunGeneratesCollectsAndPersists(t *testing.T) {
	provider := &testutil.MockProvider{
		ProviderName: "openai",
		GenerateQueriesFunc: func(ctx context.Context, req common.QueryRequest) (string, error) {
			return "1. q one\n2. q two\n3. q three", nil
		},
	}
	store := &recordingStore{}

	report, err := newRunService(provider, store).Run(context.Background(), services.RunRequest{
		RunID:       "run-42",
		Profile:     testutil.SampleProfile(),
		NumConsumer: 2,
		NumBusiness: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"create:run-42", "status:running", "save"}, store.events)
	require.Len(t, store.reports, 1)
	assert.Same(t, report, store.reports[0])
	assert.Len(t, report.Queries, 3)
	assert.Equal(t, models.QueryBusiness, report.Queries[2].Category)
	assert.Equal(t, 3, report.Summary.TotalQueries)
}

func TestRunMarksFailure(t *testing.T) {
	tests := []struct {
		name     string
		generate error
		failSave bool
		wantErr  string
	}{
		{"generation fails", errors.New("quota exceeded"), false, "quota exceeded"},
		{"persist fails", nil, true, "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &testutil.MockProvider{
				ProviderName: "openai",
				GenerateQueriesFunc: func(ctx context.Context, req common.QueryRequest) (string, error) {
					return "1. only query", tt.generate
				},
			}
			store := &recordingStore{failSave: tt.failSave}

			_, err := newRunService(provider, store).Run(context.Background(), services.RunRequest{
				RunID:   "run-err",
				Profile: testutil.SampleProfile(),
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, "status:failed", store.events[len(store.events)-1])
			assert.Contains(t, store.lastErr, tt.wantErr)
		})
	}
}

func TestRunUsesSuppliedQueries(t *testing.T) {
	provider := &testutil.MockProvider{ProviderName: "claude"}
	report, err := newRunService(provider, nil).Run(context.Background(), services.RunRequest{
		Profile: testutil.SampleProfile(),
		Queries: []models.Query{{ID: 1, Text: "Who sells lift kits?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Who sells lift kits?"}, provider.Calls())
	assert.Equal(t, 1, report.Summary.TotalQueries)
}
