package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/matjmiles/healthcare-job-organizer/internal/worker/domain"
)

// parseRunRequest extracts and validates the run ID of a message body
func parseRunRequest(body []byte) (string, error) {
	var req domain.RunRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if _, err := uuid.Parse(req.RunID); err != nil {
		return "", fmt.Errorf("%w: run_id %q is not a UUID", domain.ErrInvalidPayload, req.RunID)
	}
	return req.RunID, nil
}

// dispatch forwards valid run requests to the pool. Malformed messages are
// dropped without requeue.
func (w *Worker) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			runID, err := parseRunRequest(delivery.Body)
			if err != nil {
				w.logger.Error("Discarding malformed run request",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case w.runsChan <- &domain.RunMessage{RunID: runID, Delivery: delivery}:
				w.logger.Debug("Run dispatched to worker pool",
					slog.String("run_id", runID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
