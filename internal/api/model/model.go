package model

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
)

type Run struct {
	RunID          string             `db:"run_id"`
	Status         string             `db:"status"`
	Trigger        string             `db:"trigger"`
	WorkerID       sql.NullString     `db:"worker_id"`
	RetryCount     int                `db:"retry_count"`
	MaxRetries     int                `db:"max_retries"`
	TimeoutSeconds int                `db:"timeout_seconds"`
	Stats          types.NullJSONText `db:"stats"`
	EmployerErrors types.NullJSONText `db:"employer_errors"`
	JobsUpserted   int                `db:"jobs_upserted"`
	ErrorMessage   sql.NullString     `db:"error_message"`
	CreatedAt      time.Time          `db:"created_at"`
	StartedAt      sql.NullTime       `db:"started_at"`
	CompletedAt    sql.NullTime       `db:"completed_at"`
	UpdatedAt      time.Time          `db:"updated_at"`
}

type Job struct {
	JobID       string         `db:"job_id"`
	DedupKey    string         `db:"dedup_key"`
	RunID       string         `db:"run_id"`
	Record      types.JSONText `db:"record"`
	CollectedAt time.Time      `db:"collected_at"`
}
