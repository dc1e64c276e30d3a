package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matjmiles/healthcare-job-organizer/internal/api/dto"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

// Classify handles POST /api/v1/classify. It runs one posting through the
// pipeline synchronously without persisting anything.
func (h *Handler) Classify(c *gin.Context) {
	var req dto.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	var platform posting.Platform
	if req.Platform != "" {
		p, err := posting.ParsePlatform(req.Platform)
		if err != nil {
			badRequest(c, "Invalid platform")
			return
		}
		platform = p
	}

	out := h.pipeline.Process(posting.Raw{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Company:     req.Company,
		SourceURL:   req.SourceURL,
		Platform:    platform,
	})

	c.JSON(http.StatusOK, dto.ClassifyResponse{
		RuleSet:        h.pipeline.RuleSetName(),
		Classification: out.Classification,
		Record:         out.Record,
	})
}
