package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matjmiles/healthcare-job-organizer/internal/api/domain"
	"github.com/matjmiles/healthcare-job-organizer/internal/api/model"
	"github.com/matjmiles/healthcare-job-organizer/internal/api/storage"
	"github.com/matjmiles/healthcare-job-organizer/internal/pipeline"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store is the persistence the handlers need. *storage.Storage satisfies it.
type Store interface {
	CreateRun(ctx context.Context, run *model.Run) error
	GetRunByID(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter storage.RunFilter) ([]model.Run, error)
	LatestCompletedRun(ctx context.Context) (*model.Run, error)
	GetJobByID(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error)
	HealthCheck(ctx context.Context) error
}

// Publisher sends run requests. *rabbitmq.Client satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger         *slog.Logger
	Store          Store
	Publisher      Publisher
	Pipeline       *pipeline.Pipeline
	RunRoutingKey  string
	RunMaxRetries  int
	RunTimeout     time.Duration
	ServiceName    string
	HealthDeadline time.Duration
}

// Handler serves the runs, jobs, classify and stats endpoints
type Handler struct {
	logger         *slog.Logger
	store          Store
	publisher      Publisher
	pipeline       *pipeline.Pipeline
	runRoutingKey  string
	runMaxRetries  int
	runTimeout     time.Duration
	serviceName    string
	healthDeadline time.Duration
}

// New creates a Handler
func New(deps *Dependencies) *Handler {
	h := &Handler{
		logger:         deps.Logger,
		store:          deps.Store,
		publisher:      deps.Publisher,
		pipeline:       deps.Pipeline,
		runRoutingKey:  deps.RunRoutingKey,
		runMaxRetries:  deps.RunMaxRetries,
		runTimeout:     deps.RunTimeout,
		serviceName:    deps.ServiceName,
		healthDeadline: deps.HealthDeadline,
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if h.healthDeadline <= 0 {
		h.healthDeadline = 2 * time.Second
	}
	return h
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.healthDeadline)
	defer cancel()

	if err := h.store.HealthCheck(ctx); err != nil {
		h.logger.Error("Health check failed", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": h.serviceName,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.serviceName,
	})
}

// respondError maps domain errors to status codes. Unknown errors are
// logged and hidden behind a generic message.
func (h *Handler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrRunNotFound),
		errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrNoCompletedRun):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error(message, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func clampPageSize(n int) int {
	switch {
	case n <= 0:
		return defaultPageSize
	case n > maxPageSize:
		return maxPageSize
	default:
		return n
	}
}
