package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"rating_engine/internal/compute"
	"rating_engine/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Handler struct {
	dispatcher *compute.Dispatcher
}

func NewHandler(dispatcher *compute.Dispatcher) Handler {
	return Handler{dispatcher: dispatcher}
}

// HandleBatchRating runs one queued batch through the compute dispatcher and
// writes the per-item results back onto the task.
func (h Handler) HandleBatchRating(ctx context.Context, task *asynq.Task) error {
	var payload BatchRatingPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal: %v: %w", err, asynq.SkipRetry)
	}

	raw, err := json.Marshal(payload.Payloads)
	if err != nil {
		return fmt.Errorf("json.Marshal: %v: %w", err, asynq.SkipRetry)
	}

	response, err := h.dispatcher.Call(ctx, compute.Request{
		Type:      compute.TypeBatchCalculate,
		Payload:   raw,
		RequestID: payload.RequestID,
	})
	if err != nil {
		return fmt.Errorf("dispatcher.Call: %w", err)
	}

	if response.Type == compute.StatusError {
		return fmt.Errorf("batch %s: %s: %w", payload.RequestID, response.Error, asynq.SkipRetry)
	}

	resultBytes, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("json.Marshal(response): %w", err)
	}

	// The writer is only present for tasks enqueued with retention.
	if writer := task.ResultWriter(); writer != nil {
		if _, err := writer.Write(resultBytes); err != nil {
			return fmt.Errorf("task.ResultWriter: %w", err)
		}
	}

	logger(ctx).Info("batch rating completed",
		"request_id", payload.RequestID,
		"items", len(payload.Payloads),
	)

	return nil
}
