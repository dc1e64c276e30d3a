package dto

import (
	"encoding/json"

	"github.com/matjmiles/healthcare-job-organizer/internal/pipeline"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

type CreateRunRequest struct {
	MaxRetries     *int `json:"max_retries" binding:"omitempty,min=0,max=10"`
	TimeoutSeconds *int `json:"timeout_seconds" binding:"omitempty,min=1"`
}

type ListRunsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListRunsResponse struct {
	Runs       []RunDTO `json:"runs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type RunDTO struct {
	RunID          string          `json:"run_id"`
	Status         string          `json:"status"`
	Trigger        string          `json:"trigger"`
	WorkerID       string          `json:"worker_id,omitempty"`
	RetryCount     int             `json:"retry_count"`
	MaxRetries     int             `json:"max_retries"`
	JobsUpserted   int             `json:"jobs_upserted"`
	Stats          json.RawMessage `json:"stats,omitempty"`
	EmployerErrors json.RawMessage `json:"employer_errors,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      string          `json:"created_at"`
	StartedAt      string          `json:"started_at,omitempty"`
	CompletedAt    string          `json:"completed_at,omitempty"`
}

type ListJobsRequest struct {
	State       string `form:"state"`
	Region      string `form:"region"`
	CareerTrack string `form:"career_track"`
	Platform    string `form:"platform"`
	EntryLevel  *bool  `form:"entry_level"`
	Remote      *bool  `form:"remote"`
	PageSize    int    `form:"page_size"`
	Cursor      string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []posting.Normalized `json:"jobs"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

type ClassifyRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Company     string `json:"company"`
	SourceURL   string `json:"source_url"`
	Platform    string `json:"platform"`
}

type ClassifyResponse struct {
	RuleSet        string                 `json:"rule_set"`
	Classification posting.Classification `json:"classification"`
	Record         *posting.Normalized    `json:"record,omitempty"`
}

type StatsResponse struct {
	RunID       string            `json:"run_id"`
	CompletedAt string            `json:"completed_at"`
	Stats       pipeline.RunStats `json:"stats"`
}
