package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/matjmiles/healthcare-job-organizer/internal/collector"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
	"github.com/matjmiles/healthcare-job-organizer/internal/worker/domain"
)

const (
	upsertBatchSize = 50
	jobColumns      = 14
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// CreateRun inserts a PENDING run and returns its ID
func (s *Storage) CreateRun(ctx context.Context, trigger string, maxRetries int, timeout time.Duration) (string, error) {
	runID := uuid.NewString()
	query := `
		INSERT INTO collection_runs (run_id, status, trigger, max_retries, timeout_seconds)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query, runID, domain.RunStatusPending, trigger, maxRetries, int(timeout.Seconds()))
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return runID, nil
}

// ClaimRun moves a PENDING run to RUNNING with optimistic locking
func (s *Storage) ClaimRun(ctx context.Context, runID, workerID string) (*domain.Run, error) {
	query := `
		UPDATE collection_runs
		SET status = $1,
		    worker_id = $2,
		    started_at = NOW(),
		    last_heartbeat_at = NOW(),
		    updated_at = NOW()
		WHERE run_id = $3
		  AND status = $4
		RETURNING run_id, trigger, retry_count, max_retries, timeout_seconds
	`

	var run domain.Run
	err := s.db.QueryRowContext(ctx, query, domain.RunStatusRunning, workerID, runID, domain.RunStatusPending).Scan(
		&run.RunID,
		&run.Trigger,
		&run.RetryCount,
		&run.MaxRetries,
		&run.TimeoutSeconds,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim run: %w", err)
	}

	run.Status = domain.RunStatusRunning
	run.WorkerID = workerID
	return &run, nil
}

// UpdateRunHeartbeat refreshes last_heartbeat_at for a running run
func (s *Storage) UpdateRunHeartbeat(ctx context.Context, runID string) error {
	query := `
		UPDATE collection_runs
		SET last_heartbeat_at = NOW(),
		    updated_at = NOW()
		WHERE run_id = $1 AND status = $2
	`

	result, err := s.db.ExecContext(ctx, query, runID, domain.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to update run heartbeat: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.Warn("Run heartbeat matched no running run",
			slog.String("run_id", runID),
		)
	}
	return nil
}

// UpsertJobs writes records keyed on dedup_key in batches inside one
// transaction. A later run's record replaces an earlier one.
func (s *Storage) UpsertJobs(ctx context.Context, runID string, jobs []posting.Normalized) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(jobs); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(jobs))
		query, args, err := upsertQuery(runID, jobs[start:end])
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("failed to upsert jobs: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit jobs: %w", err)
	}
	return len(jobs), nil
}

// upsertQuery builds one multi-row INSERT ... ON CONFLICT statement
func upsertQuery(runID string, batch []posting.Normalized) (string, []any, error) {
	values := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*jobColumns)

	for i, job := range batch {
		record, err := json.Marshal(job)
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal job %s: %w", job.DedupKey, err)
		}

		base := i * jobColumns
		placeholders := make([]string, jobColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		values = append(values, "("+strings.Join(placeholders, ",")+")")

		args = append(args,
			job.ID.String(), job.DedupKey, runID, job.JobTitle, job.Company,
			job.State, job.Region, job.RemoteFlag, string(job.SourcePlatform),
			job.CareerTrack, job.EntryLevelFlag, record, job.CollectedAt, job.FirstSeenAt,
		)
	}

	query := `
		INSERT INTO normalized_jobs (
			job_id, dedup_key, run_id, job_title, company,
			state, region, remote, platform,
			career_track, entry_level, record, collected_at, first_seen_at
		)
		VALUES ` + strings.Join(values, ",") + `
		ON CONFLICT (dedup_key) DO UPDATE SET
			run_id        = EXCLUDED.run_id,
			job_title     = EXCLUDED.job_title,
			company       = EXCLUDED.company,
			state         = EXCLUDED.state,
			region        = EXCLUDED.region,
			remote        = EXCLUDED.remote,
			platform      = EXCLUDED.platform,
			career_track  = EXCLUDED.career_track,
			entry_level   = EXCLUDED.entry_level,
			record        = EXCLUDED.record,
			collected_at  = EXCLUDED.collected_at,
			first_seen_at = COALESCE(normalized_jobs.first_seen_at, EXCLUDED.first_seen_at),
			updated_at    = NOW()
	`
	return query, args, nil
}

// CompleteRun stores the run's stats and employer errors and marks it
// COMPLETED
func (s *Storage) CompleteRun(ctx context.Context, runID string, result *collector.Result, upserted int) error {
	stats, err := json.Marshal(result.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	employerErrors, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal employer errors: %w", err)
	}

	query := `
		UPDATE collection_runs
		SET status = $1,
		    stats = $2,
		    employer_errors = $3,
		    jobs_upserted = $4,
		    error_message = NULL,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE run_id = $5
	`
	if _, err := s.db.ExecContext(ctx, query, domain.RunStatusCompleted, stats, employerErrors, upserted, runID); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	s.logger.Info("Run completed",
		slog.String("run_id", runID),
		slog.Int("jobs_upserted", upserted),
	)
	return nil
}

// FailRun marks a run FAILED with a message
func (s *Storage) FailRun(ctx context.Context, runID, errorMsg string) error {
	query := `
		UPDATE collection_runs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE run_id = $3
	`
	if _, err := s.db.ExecContext(ctx, query, domain.RunStatusFailed, errorMsg, runID); err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

// ReleaseRun returns a RUNNING run to PENDING and counts the retry, so the
// requeued message can claim it again
func (s *Storage) ReleaseRun(ctx context.Context, runID, errorMsg string) error {
	query := `
		UPDATE collection_runs
		SET status = $1,
		    retry_count = retry_count + 1,
		    worker_id = NULL,
		    error_message = $2,
		    updated_at = NOW()
		WHERE run_id = $3 AND status = $4
	`
	if _, err := s.db.ExecContext(ctx, query, domain.RunStatusPending, errorMsg, runID, domain.RunStatusRunning); err != nil {
		return fmt.Errorf("failed to release run: %w", err)
	}
	return nil
}
