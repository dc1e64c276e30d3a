package domain

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/matjmiles/healthcare-job-organizer/internal/pipeline"
)

// Run is a claimed collection run
type Run struct {
	RunID          string
	Trigger        string
	Status         string
	WorkerID       string
	RetryCount     int
	MaxRetries     int
	TimeoutSeconds int
}

// RunRequest is the body published on the run.requested routing key
type RunRequest struct {
	RunID string `json:"run_id"`
}

// RunMessage is a parsed run request with its delivery for ack/nack
type RunMessage struct {
	RunID    string
	Delivery amqp.Delivery
}

// JobClassifiedEvent announces a posting the seen cache had not recorded
type JobClassifiedEvent struct {
	RunID       string     `json:"run_id"`
	JobID       string     `json:"job_id"`
	DedupKey    string     `json:"dedup_key"`
	JobTitle    string     `json:"job_title"`
	Company     string     `json:"company"`
	State       string     `json:"state"`
	RemoteFlag  bool       `json:"remote"`
	CareerTrack string     `json:"career_track"`
	EntryLevel  bool       `json:"entry_level"`
	Pay         string     `json:"pay"`
	SourceURL   string     `json:"source_url"`
	FirstSeenAt *time.Time `json:"first_seen_at,omitempty"`
}

// RunCompletedEvent announces a run reaching a terminal status
type RunCompletedEvent struct {
	RunID          string             `json:"run_id"`
	Status         string             `json:"status"`
	JobsUpserted   int                `json:"jobs_upserted"`
	EmployerErrors int                `json:"employer_errors"`
	Stats          *pipeline.RunStats `json:"stats,omitempty"`
	Error          string             `json:"error,omitempty"`
	CompletedAt    time.Time          `json:"completed_at"`
}
