package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matjmiles/healthcare-job-organizer/internal/api/domain"
	"github.com/matjmiles/healthcare-job-organizer/internal/api/dto"
)

// LatestStats handles GET /api/v1/stats/latest
func (h *Handler) LatestStats(c *gin.Context) {
	run, err := h.store.LatestCompletedRun(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get latest stats")
		return
	}
	if !run.Stats.Valid {
		h.respondError(c, fmt.Errorf("run %s: %w", run.RunID, domain.ErrNoCompletedRun), "Failed to get latest stats")
		return
	}

	resp := dto.StatsResponse{RunID: run.RunID}
	if run.CompletedAt.Valid {
		resp.CompletedAt = run.CompletedAt.Time.Format(time.RFC3339)
	}
	if err := json.Unmarshal(run.Stats.JSONText, &resp.Stats); err != nil {
		h.respondError(c, err, "Failed to decode stats")
		return
	}
	c.JSON(http.StatusOK, resp)
}
