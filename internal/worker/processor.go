package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/collector"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
	"github.com/matjmiles/healthcare-job-organizer/internal/worker/domain"
)

// processRun claims a run, collects every employer, persists the batch,
// records new postings in the seen cache and publishes events
func (w *Worker) processRun(ctx context.Context, msg *domain.RunMessage) error {
	logger := w.logger.With(slog.String("run_id", msg.RunID), slog.String("worker_id", w.workerID))

	run, err := w.store.ClaimRun(ctx, msg.RunID, w.workerID)
	if err != nil {
		if errors.Is(err, domain.ErrRunAlreadyClaimed) {
			logger.Warn("Run already claimed, skipping")
			return fmt.Errorf("run already claimed: %w", err)
		}
		return domain.NewRetryableError(fmt.Errorf("failed to claim run: %w", err))
	}
	logger.Info("Run claimed",
		slog.String("trigger", run.Trigger),
		slog.Int("retry_count", run.RetryCount),
	)

	employers, err := w.loadEmployers()
	if err != nil {
		w.fail(ctx, logger, run, err)
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	timeout := w.runTimeout
	if run.TimeoutSeconds > 0 {
		timeout = time.Duration(run.TimeoutSeconds) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	heartbeatDone := make(chan struct{})
	go w.sendRunHeartbeat(runCtx, run.RunID, heartbeatDone)
	defer close(heartbeatDone)

	fresh := &newPostings{}
	runner, err := collector.New(collector.Config{
		Pipeline:    w.pipeline,
		Fetcher:     w.fetcher,
		Seen:        w.seen,
		Concurrency: w.collectorWorkers,
		Logger:      logger,
		OnNew:       fresh.add,
	})
	if err != nil {
		w.fail(ctx, logger, run, err)
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	result, err := runner.Run(runCtx, employers)
	if err != nil {
		return w.retryOrFail(ctx, logger, run, fmt.Errorf("collection failed: %w", err))
	}

	upserted, err := w.store.UpsertJobs(ctx, run.RunID, result.Jobs)
	if err != nil {
		return w.retryOrFail(ctx, logger, run, err)
	}

	if err := w.store.CompleteRun(ctx, run.RunID, result, upserted); err != nil {
		return w.retryOrFail(ctx, logger, run, fmt.Errorf("failed to complete run: %w", err))
	}

	// postings become seen only once the run is stored
	runner.Commit(ctx, result)

	for _, record := range fresh.records() {
		w.publish(ctx, logger, w.events.JobClassified, jobClassifiedEvent(run.RunID, record))
	}
	w.publish(ctx, logger, w.events.RunCompleted, domain.RunCompletedEvent{
		RunID:          run.RunID,
		Status:         domain.RunStatusCompleted,
		JobsUpserted:   upserted,
		EmployerErrors: len(result.Errors),
		Stats:          &result.Stats,
		CompletedAt:    time.Now().UTC(),
	})

	logger.Info("Run completed",
		slog.Int("jobs_upserted", upserted),
		slog.Int("new_postings", result.Stats.NewPostings),
		slog.Int("employer_errors", len(result.Errors)),
	)
	return nil
}

// retryOrFail releases the run for another attempt while retries remain,
// otherwise marks it FAILED
func (w *Worker) retryOrFail(ctx context.Context, logger *slog.Logger, run *domain.Run, err error) error {
	if run.RetryCount < run.MaxRetries {
		logger.Warn("Run will be retried",
			slog.Int("retry_count", run.RetryCount),
			slog.Int("max_retries", run.MaxRetries),
			slog.String("error", err.Error()),
		)
		if relErr := w.store.ReleaseRun(ctx, run.RunID, err.Error()); relErr != nil {
			logger.Error("Failed to release run", slog.String("error", relErr.Error()))
		}
		return domain.NewRetryableError(err)
	}

	w.fail(ctx, logger, run, err)
	return fmt.Errorf("%w: %v", domain.ErrMaxRetriesExceeded, err)
}

func (w *Worker) fail(ctx context.Context, logger *slog.Logger, run *domain.Run, cause error) {
	if err := w.store.FailRun(ctx, run.RunID, cause.Error()); err != nil {
		logger.Error("Failed to mark run failed", slog.String("error", err.Error()))
	}
	w.publish(ctx, logger, w.events.RunCompleted, domain.RunCompletedEvent{
		RunID:       run.RunID,
		Status:      domain.RunStatusFailed,
		Error:       cause.Error(),
		CompletedAt: time.Now().UTC(),
	})
}

// publish logs rather than returns failures; events never fail a run
func (w *Worker) publish(ctx context.Context, logger *slog.Logger, routingKey string, event any) {
	if routingKey == "" {
		return
	}
	if err := w.publisher.PublishJSON(ctx, routingKey, event); err != nil {
		logger.Warn("Failed to publish event",
			slog.String("routing_key", routingKey),
			slog.String("error", err.Error()),
		)
	}
}

// sendRunHeartbeat periodically updates the run's heartbeat timestamp
func (w *Worker) sendRunHeartbeat(ctx context.Context, runID string, done <-chan struct{}) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.UpdateRunHeartbeat(ctx, runID); err != nil {
				w.logger.Warn("Failed to update run heartbeat",
					slog.String("run_id", runID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func jobClassifiedEvent(runID string, record posting.Normalized) domain.JobClassifiedEvent {
	return domain.JobClassifiedEvent{
		RunID:       runID,
		JobID:       record.ID.String(),
		DedupKey:    record.DedupKey,
		JobTitle:    record.JobTitle,
		Company:     record.Company,
		State:       record.State,
		RemoteFlag:  record.RemoteFlag,
		CareerTrack: record.CareerTrack,
		EntryLevel:  record.EntryLevelFlag,
		Pay:         record.Pay,
		SourceURL:   record.SourceFile,
		FirstSeenAt: record.FirstSeenAt,
	}
}

// newPostings collects the records Commit reported as new, for the
// job.classified events
type newPostings struct {
	mu   sync.Mutex
	list []posting.Normalized
}

func (n *newPostings) add(_ context.Context, record posting.Normalized) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, record)
}

func (n *newPostings) records() []posting.Normalized {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.list
}
