package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/matjmiles/healthcare-job-organizer/internal/api/domain"
	"github.com/matjmiles/healthcare-job-organizer/internal/api/model"
	"github.com/matjmiles/healthcare-job-organizer/shared/postgresql"
)

const runColumns = `
	run_id, status, trigger, worker_id, retry_count, max_retries, timeout_seconds,
	stats, employer_errors, jobs_upserted, error_message,
	created_at, started_at, completed_at, updated_at
`

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// Cursor is a keyset position: rows strictly before (At, ID) in
// descending order
type Cursor struct {
	At time.Time
	ID string
}

type RunFilter struct {
	Status   string
	PageSize int
	Cursor   *Cursor
}

type JobFilter struct {
	State       string
	Region      string
	CareerTrack string
	Platform    string
	EntryLevel  *bool
	Remote      *bool
	PageSize    int
	Cursor      *Cursor
}

func (s *Storage) CreateRun(ctx context.Context, run *model.Run) error {
	query := `
		INSERT INTO collection_runs (
			run_id, status, trigger, max_retries, timeout_seconds, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Status,
		run.Trigger,
		run.MaxRetries,
		run.TimeoutSeconds,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (s *Storage) GetRunByID(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	query := `SELECT ` + runColumns + ` FROM collection_runs WHERE run_id = $1`

	if err := s.db.GetContext(ctx, &run, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

func (s *Storage) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	q := newQuery(`SELECT ` + runColumns + ` FROM collection_runs WHERE 1=1`)
	q.where("status", filter.Status)
	q.page("created_at", "run_id", filter.Cursor, filter.PageSize)

	var runs []model.Run
	if err := s.db.SelectContext(ctx, &runs, q.sql, q.args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// LatestCompletedRun returns the most recently completed run
func (s *Storage) LatestCompletedRun(ctx context.Context) (*model.Run, error) {
	var run model.Run
	query := `SELECT ` + runColumns + `
		FROM collection_runs
		WHERE status = $1
		ORDER BY completed_at DESC
		LIMIT 1`

	if err := s.db.GetContext(ctx, &run, query, domain.RunStatusCompleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoCompletedRun
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}

func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	query := `
		SELECT job_id, dedup_key, run_id, record, collected_at
		FROM normalized_jobs
		WHERE job_id = $1
	`

	if err := s.db.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	q := buildListJobsQuery(filter)

	var jobs []model.Job
	if err := s.db.SelectContext(ctx, &jobs, q.sql, q.args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// HealthCheck verifies the database answers queries
func (s *Storage) HealthCheck(ctx context.Context) error {
	var one int
	return s.db.GetContext(ctx, &one, "SELECT 1")
}

func buildListJobsQuery(filter JobFilter) *query {
	q := newQuery(`
		SELECT job_id, dedup_key, run_id, record, collected_at
		FROM normalized_jobs
		WHERE 1=1`)
	q.where("state", filter.State)
	q.where("region", filter.Region)
	q.where("career_track", filter.CareerTrack)
	q.where("platform", filter.Platform)
	if filter.EntryLevel != nil {
		q.where("entry_level", *filter.EntryLevel)
	}
	if filter.Remote != nil {
		q.where("remote", *filter.Remote)
	}
	q.page("collected_at", "job_id", filter.Cursor, filter.PageSize)
	return q
}

// query accumulates a dynamic WHERE clause with numbered placeholders
type query struct {
	sql  string
	args []any
}

func newQuery(base string) *query {
	return &query{sql: base}
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// where adds an equality filter; empty strings are skipped
func (q *query) where(column string, v any) {
	if s, ok := v.(string); ok && s == "" {
		return
	}
	q.sql += fmt.Sprintf(" AND %s = %s", column, q.arg(v))
}

// page applies the keyset cursor, descending order and a limit of one
// extra row so callers can tell whether another page exists
func (q *query) page(timeColumn, idColumn string, cursor *Cursor, pageSize int) {
	if cursor != nil {
		at := q.arg(cursor.At)
		id := q.arg(cursor.ID)
		q.sql += fmt.Sprintf(" AND (%s, %s) < (%s, %s)", timeColumn, idColumn, at, id)
	}
	q.sql += fmt.Sprintf(" ORDER BY %s DESC, %s DESC", timeColumn, idColumn)
	q.sql += " LIMIT " + q.arg(pageSize+1)
}
