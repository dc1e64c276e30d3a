package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/matjmiles/healthcare-job-organizer/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(logger *slog.Logger, h *handler.Handler) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware())

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		runs := v1.Group("/runs")
		{
			// POST /api/v1/runs - Request a collection run
			runs.POST("", h.CreateRun)

			// GET /api/v1/runs - List runs, newest first
			runs.GET("", h.ListRuns)

			// GET /api/v1/runs/:run_id - Get run details and stats
			runs.GET("/:run_id", h.GetRun)
		}

		jobs := v1.Group("/jobs")
		{
			// GET /api/v1/jobs - List normalized jobs with filtering and pagination
			jobs.GET("", h.ListJobs)

			// GET /api/v1/jobs/:job_id - Get one normalized job
			jobs.GET("/:job_id", h.GetJob)
		}

		// POST /api/v1/classify - Classify one posting without storing it
		v1.POST("/classify", h.Classify)

		// GET /api/v1/stats/latest - Filtering stats of the latest completed run
		v1.GET("/stats/latest", h.LatestStats)
	}

	return r
}
