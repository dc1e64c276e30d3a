package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/worker/domain"
)

// RunCreator inserts PENDING runs. *storage.Storage satisfies it.
type RunCreator interface {
	CreateRun(ctx context.Context, trigger string, maxRetries int, timeout time.Duration) (string, error)
}

// Trigger requests a scheduled collection run: it records a PENDING run and
// publishes its ID for the consumers
type Trigger struct {
	Creator    RunCreator
	Publisher  Publisher
	RoutingKey string
	MaxRetries int
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Fire creates and publishes one run. It matches scheduler.TriggerFunc.
func (t *Trigger) Fire(ctx context.Context) error {
	runID, err := t.Creator.CreateRun(ctx, domain.TriggerScheduler, t.MaxRetries, t.Timeout)
	if err != nil {
		return err
	}

	if err := t.Publisher.PublishJSON(ctx, t.RoutingKey, domain.RunRequest{RunID: runID}); err != nil {
		return fmt.Errorf("failed to publish run %s: %w", runID, err)
	}

	if t.Logger != nil {
		t.Logger.Info("Scheduled run requested", slog.String("run_id", runID))
	}
	return nil
}
