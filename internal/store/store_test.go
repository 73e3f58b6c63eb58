package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-visibility/internal/analysis"
	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
	"github.com/AI-Template-SDK/senso-visibility/internal/providers/testutil"
	"github.com/AI-Template-SDK/senso-visibility/internal/store"
)

func newMockStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.New(sqlx.NewDb(db, "postgres"), zerolog.Nop()), mock
}

func sampleReport(t *testing.T, runID string) *models.RunReport {
	profile := testutil.SampleProfile()
	scanner, err := analysis.NewScanner(profile, nil, []string{"Old Man Emu", "Bilstein", "Tough Dog"}, []string{"Pedders"})
	require.NoError(t, err)

	records := testutil.SampleRecords("openai")
	records = append(records, models.ResponseRecord{
		QueryID: 1, QueryText: testutil.SampleQueries()[0], Provider: "claude", ResponseText: "Bilstein shocks are popular.",
	})
	analyses := scanner.ScanAll(records)
	summary := analysis.Summarize(analyses)

	return &models.RunReport{
		RunID:       runID,
		Profile:     profile,
		Providers:   summary.ProviderOrder,
		Analyses:    analyses,
		Summary:     summary,
		GeneratedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreateRunIsIdempotentInsert(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO test_runs (id, business_name, timestamp, status, providers)`)).
		WithArgs("run-1", "Acme Suspensions", sqlmock.AnyArg(), "pending", `["openai","claude"]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CreateRun(context.Background(), "run-1", testutil.SampleProfile(), []string{"openai", "claude"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRunStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		errMsg   string
		wantErr  error
	}{
		{"clears message", 1, "", nil},
		{"failed with message", 1, "provider quota exceeded", nil},
		{"unknown run", 0, "", models.ErrRunNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)

			var errArg interface{}
			if tt.errMsg != "" {
				errArg = tt.errMsg
			}
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE test_runs SET status = $1, error_message = $2 WHERE id = $3`)).
				WithArgs("failed", errArg, "run-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := s.UpdateRunStatus(context.Background(), "run-1", models.RunFailed, tt.errMsg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetRunNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT (.+) FROM test_runs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReportRollsBackOnFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO test_runs`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM competitors`).WithArgs("run-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM queries`).WithArgs("run-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO competitors`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.SaveReport(context.Background(), sampleReport(t, "run-1"))
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func openSQLite(t *testing.T) *store.Store {
	s, err := store.Open(context.Background(), config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "visibility.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)
	profile := testutil.SampleProfile()

	require.NoError(t, s.CreateRun(ctx, "run-1", profile, []string{"openai", "claude"}))
	require.NoError(t, s.CreateRun(ctx, "run-1", profile, []string{"openai"}))
	require.NoError(t, s.UpdateRunStatus(ctx, "run-1", models.RunRunning, ""))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunRunning, run.Status)
	assert.Equal(t, []string{"openai", "claude"}, run.Providers)

	report := sampleReport(t, "run-1")
	require.NoError(t, s.SaveReport(ctx, report))
	require.NoError(t, s.SaveReport(ctx, report))

	run, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, run.Status)
	assert.Equal(t, 4, run.TotalQueries)
	assert.Equal(t, 2, run.BusinessMentions)
	assert.InDelta(t, 50.0, run.VisibilityScore, 1e-9)
	assert.Equal(t, len(report.Summary.CompetitorRanking), run.CompetitorsFound)

	queries, err := s.ListQueries(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, queries, 4, "saving twice replaces the snapshot")
	assert.Equal(t, "False", queries[0].BusinessMentioned)
	assert.Equal(t, "Old Man Emu;Bilstein", queries[0].CompetitorsMentioned)
	assert.Equal(t, "True", queries[1].BusinessMentioned)
	assert.Equal(t, "Early", queries[1].BusinessPosition)

	competitors, err := s.ListCompetitors(ctx, "run-1")
	require.NoError(t, err)
	byProvider := map[string]map[string]int{}
	for _, c := range competitors {
		if byProvider[c.Provider] == nil {
			byProvider[c.Provider] = map[string]int{}
		}
		byProvider[c.Provider][c.Name] = c.Count
	}
	assert.Equal(t, map[string]int{"Bilstein": 1}, byProvider["claude"])
	assert.Equal(t, 1, byProvider["openai"]["Pedders Suspension"])

	saved, err := s.GetReport(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, report.Summary.TotalQueries, saved.Summary.TotalQueries)
	assert.Equal(t, report.Summary.CompetitorRanking, saved.Summary.CompetitorRanking)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Acme Suspensions", runs[0].BusinessName)
}

func TestSQLiteFailedRunKeepsMessage(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	require.NoError(t, s.CreateRun(ctx, "run-2", testutil.SampleProfile(), nil))
	require.NoError(t, s.UpdateRunStatus(ctx, "run-2", models.RunFailed, "no providers"))

	run, err := s.GetRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, models.RunFailed, run.Status)
	assert.Equal(t, "no providers", run.Error)
	assert.Empty(t, run.Providers)

	_, err = s.GetReport(ctx, "run-2")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
	_, err = s.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}
