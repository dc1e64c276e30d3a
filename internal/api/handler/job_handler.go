package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matjmiles/healthcare-job-organizer/internal/api/dto"
	"github.com/matjmiles/healthcare-job-organizer/internal/api/model"
	"github.com/matjmiles/healthcare-job-organizer/internal/api/storage"
	"github.com/matjmiles/healthcare-job-organizer/internal/location"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

// GetJob handles GET /api/v1/jobs/:job_id
func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		badRequest(c, "job_id must be a valid UUID")
		return
	}

	job, err := h.store.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err, "Failed to get job")
		return
	}

	record, err := decodeRecord(job)
	if err != nil {
		h.respondError(c, err, "Failed to decode job")
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListJobs handles GET /api/v1/jobs with filters and keyset pagination
// on (collected_at, job_id)
func (h *Handler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	state := strings.ToUpper(strings.TrimSpace(req.State))
	if state != "" && !location.IsState(state) {
		badRequest(c, "Invalid state")
		return
	}
	if req.Platform != "" {
		if _, err := posting.ParsePlatform(req.Platform); err != nil {
			badRequest(c, "Invalid platform")
			return
		}
	}

	cursor, err := DecodeCursor(req.Cursor)
	if err != nil {
		badRequest(c, "Invalid cursor")
		return
	}

	pageSize := clampPageSize(req.PageSize)
	jobs, err := h.store.ListJobs(c.Request.Context(), storage.JobFilter{
		State:       state,
		Region:      req.Region,
		CareerTrack: req.CareerTrack,
		Platform:    strings.ToLower(req.Platform),
		EntryLevel:  req.EntryLevel,
		Remote:      req.Remote,
		PageSize:    pageSize,
		Cursor:      cursor,
	})
	if err != nil {
		h.respondError(c, err, "Failed to list jobs")
		return
	}

	var nextCursor string
	if len(jobs) > pageSize {
		jobs = jobs[:pageSize]
		last := jobs[len(jobs)-1]
		nextCursor = EncodeCursor(last.CollectedAt, last.JobID)
	}

	records := make([]posting.Normalized, 0, len(jobs))
	for i := range jobs {
		record, err := decodeRecord(&jobs[i])
		if err != nil {
			h.respondError(c, err, "Failed to decode job")
			return
		}
		records = append(records, *record)
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{Jobs: records, NextCursor: nextCursor})
}

func decodeRecord(job *model.Job) (*posting.Normalized, error) {
	var record posting.Normalized
	if err := json.Unmarshal(job.Record, &record); err != nil {
		return nil, fmt.Errorf("job %s: %w", job.JobID, err)
	}
	return &record, nil
}
