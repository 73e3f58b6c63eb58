// internal/store/store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/AI-Template-SDK/senso-visibility/internal/config"
	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

// Run is one row of test_runs
type Run struct {
	ID               string           `db:"id" json:"id"`
	BusinessName     string           `db:"business_name" json:"business_name"`
	Timestamp        time.Time        `db:"timestamp" json:"timestamp"`
	Status           models.RunStatus `db:"status" json:"status"`
	ProvidersJSON    string           `db:"providers" json:"-"`
	Providers        []string         `db:"-" json:"providers"`
	TotalQueries     int              `db:"total_queries" json:"total_queries"`
	BusinessMentions int              `db:"business_mentions" json:"business_mentions"`
	VisibilityScore  float64          `db:"visibility_score" json:"visibility_score"`
	CompetitorsFound int              `db:"competitors_found" json:"competitors_found"`
	ErrorMessage     sql.NullString   `db:"error_message" json:"-"`
	Error            string           `db:"-" json:"error_message,omitempty"`
}

// Competitor is one competitor count of one provider within a run
type Competitor struct {
	ID        int64  `db:"id" json:"id"`
	TestRunID string `db:"test_run_id" json:"test_run_id"`
	Name      string `db:"name" json:"name"`
	Count     int    `db:"count" json:"count"`
	Provider  string `db:"provider" json:"provider"`
}

// QueryRow is one analysed response within a run
type QueryRow struct {
	ID                   int64  `db:"id" json:"id"`
	TestRunID            string `db:"test_run_id" json:"test_run_id"`
	Provider             string `db:"provider" json:"provider"`
	QueryText            string `db:"query_text" json:"query_text"`
	ResponseText         string `db:"response_text" json:"response_text"`
	BusinessMentioned    string `db:"business_mentioned" json:"business_mentioned"`
	CompetitorsMentioned string `db:"competitors_mentioned" json:"competitors_mentioned"`
	BusinessPosition     string `db:"business_position" json:"business_position"`
}

// Store keeps run snapshots in Postgres or SQLite.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// Open connects using cfg and creates the schema when missing.
func Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	s := New(db, log)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection without touching the schema.
func New(db *sqlx.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.db.DriverName() == "postgres" {
		serial = "SERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS test_runs (
			id TEXT PRIMARY KEY,
			business_name TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			providers TEXT NOT NULL DEFAULT '[]',
			total_queries INTEGER NOT NULL DEFAULT 0,
			business_mentions INTEGER NOT NULL DEFAULT 0,
			visibility_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			competitors_found INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			results TEXT
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS competitors (
			id %s,
			test_run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			provider TEXT NOT NULL
		)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_competitors_run ON competitors(test_run_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS queries (
			id %s,
			test_run_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			query_text TEXT NOT NULL,
			response_text TEXT NOT NULL,
			business_mentioned TEXT NOT NULL DEFAULT 'False',
			competitors_mentioned TEXT,
			business_position TEXT
		)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_queries_run ON queries(test_run_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// CreateRun inserts a pending run. Creating an existing run is a no-op.
func (s *Store) CreateRun(ctx context.Context, runID string, profile models.BusinessProfile, providers []string) error {
	providersJSON, err := json.Marshal(nonNil(providers))
	if err != nil {
		return fmt.Errorf("failed to encode providers: %w", err)
	}

	query := s.db.Rebind(`INSERT INTO test_runs (id, business_name, timestamp, status, providers)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	if _, err := s.db.ExecContext(ctx, query, runID, profile.Name, time.Now().UTC(), string(models.RunPending), string(providersJSON)); err != nil {
		return fmt.Errorf("failed to create run %s: %w", runID, err)
	}
	s.log.Debug().Str("run_id", runID).Msg("run created")
	return nil
}

// UpdateRunStatus sets status and error message (cleared when errMsg is empty).
func (s *Store) UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus, errMsg string) error {
	query := s.db.Rebind(`UPDATE test_runs SET status = ?, error_message = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, string(status), nullString(errMsg), runID)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", models.ErrRunNotFound, runID)
	}
	return nil
}

// SaveReport stores run totals, per-provider competitor counts and one row per
// analysed response, and marks the run completed. Saving twice replaces the
// previous snapshot.
func (s *Store) SaveReport(ctx context.Context, report *models.RunReport) error {
	providersJSON, err := json.Marshal(nonNil(report.Providers))
	if err != nil {
		return fmt.Errorf("failed to encode providers: %w", err)
	}
	results, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := tx.Rebind(`INSERT INTO test_runs (id, business_name, timestamp, status, providers,
			total_queries, business_mentions, visibility_score, competitors_found, error_message, results)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			providers = excluded.providers,
			total_queries = excluded.total_queries,
			business_mentions = excluded.business_mentions,
			visibility_score = excluded.visibility_score,
			competitors_found = excluded.competitors_found,
			error_message = NULL,
			results = excluded.results`)
	summary := report.Summary
	if _, err := tx.ExecContext(ctx, upsert,
		report.RunID, report.Profile.Name, report.GeneratedAt, string(models.RunCompleted), string(providersJSON),
		summary.TotalQueries, summary.BusinessMentions, summary.VisibilityScore, len(summary.CompetitorRanking), string(results),
	); err != nil {
		return fmt.Errorf("failed to save run %s: %w", report.RunID, err)
	}

	for _, table := range []string{"competitors", "queries"} {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE test_run_id = ?"), report.RunID); err != nil {
			return fmt.Errorf("failed to clear %s for run %s: %w", table, report.RunID, err)
		}
	}

	insertCompetitor := tx.Rebind(`INSERT INTO competitors (test_run_id, name, count, provider) VALUES (?, ?, ?, ?)`)
	for _, provider := range summary.ProviderOrder {
		ps := summary.Providers[provider]
		if ps == nil {
			continue
		}
		for _, name := range ps.CompetitorsFound {
			if _, err := tx.ExecContext(ctx, insertCompetitor, report.RunID, name, ps.CompetitorFrequency[name], provider); err != nil {
				return fmt.Errorf("failed to save competitor %s: %w", name, err)
			}
		}
	}

	insertQuery := tx.Rebind(`INSERT INTO queries (test_run_id, provider, query_text, response_text,
			business_mentioned, competitors_mentioned, business_position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, a := range report.Analyses {
		row := a.Row()
		if _, err := tx.ExecContext(ctx, insertQuery,
			report.RunID, row.Provider, a.Record.QueryText, a.Record.ResponseText,
			boolString(row.BusinessMentioned), row.CompetitorsMentioned, row.BusinessPosition,
		); err != nil {
			return fmt.Errorf("failed to save query row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	s.log.Info().Str("run_id", report.RunID).Int("rows", len(report.Analyses)).Msg("report saved")
	return nil
}

const runColumns = `id, business_name, timestamp, status, providers, total_queries,
	business_mentions, visibility_score, competitors_found, error_message`

func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, s.db.Rebind(`SELECT `+runColumns+` FROM test_runs WHERE id = ?`), runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	if err := run.decode(); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := []Run{}
	if err := s.db.SelectContext(ctx, &runs, s.db.Rebind(`SELECT `+runColumns+` FROM test_runs ORDER BY timestamp DESC LIMIT ?`), limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	for i := range runs {
		if err := runs[i].decode(); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// GetReport returns the full report saved with the run.
func (s *Store) GetReport(ctx context.Context, runID string) (*models.RunReport, error) {
	var results sql.NullString
	err := s.db.GetContext(ctx, &results, s.db.Rebind(`SELECT results FROM test_runs WHERE id = ?`), runID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !results.Valid) {
		return nil, fmt.Errorf("%w: %s", models.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", runID, err)
	}

	var report models.RunReport
	if err := json.Unmarshal([]byte(results.String), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", runID, err)
	}
	return &report, nil
}

func (s *Store) ListCompetitors(ctx context.Context, runID string) ([]Competitor, error) {
	competitors := []Competitor{}
	query := s.db.Rebind(`SELECT id, test_run_id, name, count, provider FROM competitors
		WHERE test_run_id = ? ORDER BY provider, count DESC, id`)
	if err := s.db.SelectContext(ctx, &competitors, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list competitors for run %s: %w", runID, err)
	}
	return competitors, nil
}

func (s *Store) ListQueries(ctx context.Context, runID string) ([]QueryRow, error) {
	rows := []QueryRow{}
	query := s.db.Rebind(`SELECT id, test_run_id, provider, query_text, response_text, business_mentioned,
			COALESCE(competitors_mentioned, '') AS competitors_mentioned,
			COALESCE(business_position, '') AS business_position
		FROM queries WHERE test_run_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("failed to list queries for run %s: %w", runID, err)
	}
	return rows, nil
}

func (r *Run) decode() error {
	r.Providers = []string{}
	if r.ProvidersJSON != "" {
		if err := json.Unmarshal([]byte(r.ProvidersJSON), &r.Providers); err != nil {
			return fmt.Errorf("failed to decode providers of run %s: %w", r.ID, err)
		}
	}
	r.Error = r.ErrorMessage.String
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolString(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
