package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matjmiles/healthcare-job-organizer/internal/api/domain"
	"github.com/matjmiles/healthcare-job-organizer/internal/api/dto"
	"github.com/matjmiles/healthcare-job-organizer/internal/api/model"
	"github.com/matjmiles/healthcare-job-organizer/internal/api/storage"
)

// CreateRun handles POST /api/v1/runs. It records a PENDING run and
// publishes it for the workers.
func (h *Handler) CreateRun(c *gin.Context) {
	var req dto.CreateRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}

	now := time.Now().UTC()
	run := model.Run{
		RunID:          uuid.NewString(),
		Status:         domain.RunStatusPending,
		Trigger:        domain.TriggerAPI,
		MaxRetries:     h.runMaxRetries,
		TimeoutSeconds: int(h.runTimeout.Seconds()),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.MaxRetries != nil {
		run.MaxRetries = *req.MaxRetries
	}
	if req.TimeoutSeconds != nil {
		run.TimeoutSeconds = *req.TimeoutSeconds
	}

	if err := h.store.CreateRun(c.Request.Context(), &run); err != nil {
		h.respondError(c, err, "Failed to create run")
		return
	}

	if err := h.publisher.PublishJSON(c.Request.Context(), h.runRoutingKey, gin.H{"run_id": run.RunID}); err != nil {
		h.logger.Error("Failed to publish run request",
			slog.String("run_id", run.RunID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  "Run created but could not be queued",
			"run_id": run.RunID,
		})
		return
	}

	h.logger.Info("Run requested", slog.String("run_id", run.RunID))
	c.JSON(http.StatusAccepted, toRunDTO(&run))
}

// GetRun handles GET /api/v1/runs/:run_id
func (h *Handler) GetRun(c *gin.Context) {
	runID := c.Param("run_id")
	if _, err := uuid.Parse(runID); err != nil {
		badRequest(c, "run_id must be a valid UUID")
		return
	}

	run, err := h.store.GetRunByID(c.Request.Context(), runID)
	if err != nil {
		h.respondError(c, err, "Failed to get run")
		return
	}
	c.JSON(http.StatusOK, toRunDTO(run))
}

// ListRuns handles GET /api/v1/runs
func (h *Handler) ListRuns(c *gin.Context) {
	var req dto.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}
	if req.Status != "" && !domain.ValidRunStatus(req.Status) {
		badRequest(c, "Invalid status")
		return
	}

	cursor, err := DecodeCursor(req.Cursor)
	if err != nil {
		badRequest(c, "Invalid cursor")
		return
	}

	pageSize := clampPageSize(req.PageSize)
	runs, err := h.store.ListRuns(c.Request.Context(), storage.RunFilter{
		Status:   req.Status,
		PageSize: pageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.respondError(c, err, "Failed to list runs")
		return
	}

	var nextCursor string
	if len(runs) > pageSize {
		runs = runs[:pageSize]
		last := runs[len(runs)-1]
		nextCursor = EncodeCursor(last.CreatedAt, last.RunID)
	}

	out := make([]dto.RunDTO, len(runs))
	for i := range runs {
		out[i] = toRunDTO(&runs[i])
	}
	c.JSON(http.StatusOK, dto.ListRunsResponse{Runs: out, NextCursor: nextCursor})
}

func toRunDTO(run *model.Run) dto.RunDTO {
	out := dto.RunDTO{
		RunID:        run.RunID,
		Status:       run.Status,
		Trigger:      run.Trigger,
		WorkerID:     run.WorkerID.String,
		RetryCount:   run.RetryCount,
		MaxRetries:   run.MaxRetries,
		JobsUpserted: run.JobsUpserted,
		ErrorMessage: run.ErrorMessage.String,
		CreatedAt:    run.CreatedAt.Format(time.RFC3339),
	}
	if run.Stats.Valid {
		out.Stats = json.RawMessage(run.Stats.JSONText)
	}
	if run.EmployerErrors.Valid {
		out.EmployerErrors = json.RawMessage(run.EmployerErrors.JSONText)
	}
	if run.StartedAt.Valid {
		out.StartedAt = run.StartedAt.Time.Format(time.RFC3339)
	}
	if run.CompletedAt.Valid {
		out.CompletedAt = run.CompletedAt.Time.Format(time.RFC3339)
	}
	return out
}
