package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/matjmiles/healthcare-job-organizer/internal/worker/domain"
)

// spawnWorkerPool starts one goroutine per unit of concurrency
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop processes runs until runsChan is closed. In-flight runs finish
// even when ctx is canceled so their messages are acked or requeued.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	for msg := range w.runsChan {
		if ctx.Err() != nil {
			w.settle(workerName, msg, domain.NewRetryableError(ctx.Err()))
			continue
		}
		w.settle(workerName, msg, w.processRun(ctx, msg))
	}
}

// settle acks a successful run and nacks a failed one, requeueing only
// retryable failures
func (w *Worker) settle(workerName string, msg *domain.RunMessage, err error) {
	if err == nil {
		if ackErr := msg.Delivery.Ack(false); ackErr != nil {
			w.logger.Error("Failed to ACK message",
				slog.String("worker_name", workerName),
				slog.String("run_id", msg.RunID),
				slog.String("error", ackErr.Error()),
			)
		}
		return
	}

	requeue := shouldRequeueRun(err)
	w.logger.Error("Run processing failed",
		slog.String("worker_name", workerName),
		slog.String("run_id", msg.RunID),
		slog.Bool("requeue", requeue),
		slog.String("error", err.Error()),
	)
	if nackErr := msg.Delivery.Nack(false, requeue); nackErr != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("worker_name", workerName),
			slog.String("run_id", msg.RunID),
			slog.String("error", nackErr.Error()),
		)
	}
}

// shouldRequeueRun determines if a run should be requeued based on the error type
func shouldRequeueRun(err error) bool {
	switch {
	case errors.Is(err, domain.ErrRunAlreadyClaimed),
		errors.Is(err, domain.ErrMaxRetriesExceeded),
		errors.Is(err, domain.ErrInvalidPayload):
		return false
	}

	var retryableErr *domain.RetryableError
	return errors.As(err, &retryableErr)
}
