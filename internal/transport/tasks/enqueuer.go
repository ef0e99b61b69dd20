package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"rating_engine/internal/domain/service/rating"
)

// Batch results stay readable for a day after completion.
const resultRetention = 24 * time.Hour

type Enqueuer struct {
	client *asynq.Client
	queue  string
}

func NewEnqueuer(client *asynq.Client, queue string) Enqueuer {
	return Enqueuer{
		client: client,
		queue:  queue,
	}
}

// EnqueueBatch queues a batch of independent payloads. The returned task id
// lets the caller poll for the result keyed by the request id.
func (e Enqueuer) EnqueueBatch(
	ctx context.Context,
	requestID string,
	payloads []rating.RatingPayload,
) (*asynq.TaskInfo, error) {
	body, err := json.Marshal(BatchRatingPayload{
		RequestID: requestID,
		Payloads:  payloads,
	})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	task := asynq.NewTask(TypeBatchRating, body, asynq.Queue(e.queue), asynq.Retention(resultRetention))

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("client.Enqueue: %w", err)
	}

	return info, nil
}
