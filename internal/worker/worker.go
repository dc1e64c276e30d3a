// Package worker consumes collection run requests, runs the collector and
// persists its results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/matjmiles/healthcare-job-organizer/internal/ats"
	"github.com/matjmiles/healthcare-job-organizer/internal/collector"
	"github.com/matjmiles/healthcare-job-organizer/internal/pipeline"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
	"github.com/matjmiles/healthcare-job-organizer/internal/seen"
	"github.com/matjmiles/healthcare-job-organizer/internal/worker/domain"
)

const defaultHeartbeatInterval = 30 * time.Second

// RunStore is the persistence the worker needs. *storage.Storage satisfies it.
type RunStore interface {
	ClaimRun(ctx context.Context, runID, workerID string) (*domain.Run, error)
	UpdateRunHeartbeat(ctx context.Context, runID string) error
	UpsertJobs(ctx context.Context, runID string, jobs []posting.Normalized) (int, error)
	CompleteRun(ctx context.Context, runID string, result *collector.Result, upserted int) error
	FailRun(ctx context.Context, runID, errorMsg string) error
	ReleaseRun(ctx context.Context, runID, errorMsg string) error
}

// Consumer yields run request deliveries. *rabbitmq.Client satisfies it.
type Consumer interface {
	Consume(consumerTag string, prefetch int) (<-chan amqp.Delivery, error)
}

// Publisher emits domain events. *rabbitmq.Client satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// EventKeys are the routing keys for published events
type EventKeys struct {
	JobClassified string
	RunCompleted  string
}

// Config holds worker configuration
type Config struct {
	Logger            *slog.Logger
	Store             RunStore
	Consumer          Consumer
	Publisher         Publisher
	Events            EventKeys
	Pipeline          *pipeline.Pipeline
	Fetcher           collector.Fetcher
	Seen              seen.Cache
	EmployersPath     string
	Concurrency       int
	CollectorWorkers  int
	PrefetchCount     int
	RunTimeout        time.Duration
	HeartbeatInterval time.Duration
}

// Worker represents the background run worker
type Worker struct {
	logger            *slog.Logger
	store             RunStore
	consumer          Consumer
	publisher         Publisher
	events            EventKeys
	pipeline          *pipeline.Pipeline
	fetcher           collector.Fetcher
	seen              seen.Cache
	employersPath     string
	workerID          string
	concurrency       int
	collectorWorkers  int
	prefetchCount     int
	runTimeout        time.Duration
	heartbeatInterval time.Duration
	runsChan          chan *domain.RunMessage
	wg                sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) (*Worker, error) {
	if cfg.Store == nil || cfg.Consumer == nil || cfg.Publisher == nil {
		return nil, errors.New("worker: store, consumer and publisher are required")
	}
	if cfg.Pipeline == nil || cfg.Fetcher == nil {
		return nil, errors.New("worker: pipeline and fetcher are required")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "worker"
	}

	w := &Worker{
		logger:            cfg.Logger,
		store:             cfg.Store,
		consumer:          cfg.Consumer,
		publisher:         cfg.Publisher,
		events:            cfg.Events,
		pipeline:          cfg.Pipeline,
		fetcher:           cfg.Fetcher,
		seen:              cfg.Seen,
		employersPath:     cfg.EmployersPath,
		workerID:          fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8]),
		concurrency:       max(cfg.Concurrency, 1),
		collectorWorkers:  cfg.CollectorWorkers,
		prefetchCount:     max(cfg.PrefetchCount, 1),
		runTimeout:        cfg.RunTimeout,
		heartbeatInterval: cfg.HeartbeatInterval,
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if w.heartbeatInterval <= 0 {
		w.heartbeatInterval = defaultHeartbeatInterval
	}
	w.runsChan = make(chan *domain.RunMessage, w.concurrency)
	return w, nil
}

// Start consumes run requests until ctx is canceled or the delivery channel
// closes, then waits for in-flight runs to finish
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("run_timeout", w.runTimeout),
	)

	deliveries, err := w.consumer.Consume(w.workerID, w.prefetchCount)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.dispatch(ctx, deliveries)

	close(w.runsChan)
	w.wg.Wait()

	w.logger.Info("Worker stopped", slog.String("worker_id", w.workerID))
	return nil
}

// loadEmployers reads the employer directory fresh for every run
func (w *Worker) loadEmployers() ([]ats.Employer, error) {
	return ats.LoadEmployers(w.employersPath)
}
