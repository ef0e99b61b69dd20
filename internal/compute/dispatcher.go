package compute

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/service/rating"
	"rating_engine/pkg/contextx"
	"rating_engine/pkg/errcodes"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const defaultQueueSize = 64

type envelope struct {
	request Request
	reply   chan<- Response
}

// Dispatcher owns the computation worker. Evaluation is single-threaded and
// cooperative: requests queue onto a channel and one goroutine drains them in
// arrival order. Nothing here mutates shared state, so callers may run any
// number of dispatchers side by side.
type Dispatcher struct {
	queue   chan envelope
	metrics dispatcherMetrics
}

func NewDispatcher(reg prometheus.Registerer) *Dispatcher {
	return &Dispatcher{
		queue:   make(chan envelope, defaultQueueSize),
		metrics: newDispatcherMetrics(reg),
	}
}

// Run drains the queue until the context is cancelled. In-flight work is
// never cancelled mid-calculation; callers wanting timeouts race the reply
// against their own timer and discard the eventual response.
func (d *Dispatcher) Run(ctx context.Context) error {
	logger(ctx).Info("compute dispatcher started")

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("compute dispatcher stopped")
			return ctx.Err()
		case env := <-d.queue:
			env.reply <- d.handle(ctx, env.request)
		}
	}
}

// Submit queues a request and returns the channel its single response will
// arrive on. Responses across different submissions are unordered; match by
// RequestID.
func (d *Dispatcher) Submit(ctx context.Context, request Request) (<-chan Response, error) {
	reply := make(chan Response, 1)

	select {
	case d.queue <- envelope{request: request, reply: reply}:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Call submits a request and waits for its response.
func (d *Dispatcher) Call(ctx context.Context, request Request) (Response, error) {
	reply, err := d.Submit(ctx, request)
	if err != nil {
		return Response{}, fmt.Errorf("submit: %w", err)
	}

	select {
	case response := <-reply:
		return response, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (d *Dispatcher) handle(ctx context.Context, request Request) (response Response) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			response = errorResponse(request.RequestID, fmt.Sprintf("panic: %v", rec))
		}

		d.metrics.requests.WithLabelValues(request.Type.String(), string(response.Type)).Inc()
		d.metrics.duration.WithLabelValues(request.Type.String()).Observe(time.Since(start).Seconds())

		if response.Type == StatusError {
			logger(ctx).Error("computation failed",
				"request_id", request.RequestID,
				"type", request.Type.String(),
				"error", response.Error,
			)
		}
	}()

	result, err := d.compute(request)
	if err != nil {
		return errorResponse(request.RequestID, err.Error())
	}

	return Response{
		Type:      StatusSuccess,
		RequestID: request.RequestID,
		Result:    result,
	}
}

func (d *Dispatcher) compute(request Request) (any, error) {
	switch request.Type {
	case TypeCalculateRating:
		var payload rating.RatingPayload
		if err := json.Unmarshal(request.Payload, &payload); err != nil {
			return nil, domain.WrapError(err, errcodes.InvalidComputeRequest, "rating payload")
		}
		return rating.CalculateRating(payload)

	case TypeCalculateILF:
		var payload rating.ILFPayload
		if err := json.Unmarshal(request.Payload, &payload); err != nil {
			return nil, domain.WrapError(err, errcodes.InvalidComputeRequest, "ilf payload")
		}
		return rating.CalculateILF(payload.BasicLimit, payload.SelectedLimit, payload.Table, payload.BasePremium)

	case TypeCalculateExperienceMod:
		var payload rating.ExperienceModPayload
		if err := json.Unmarshal(request.Payload, &payload); err != nil {
			return nil, domain.WrapError(err, errcodes.InvalidComputeRequest, "experience mod payload")
		}
		return rating.CalculateExperienceMod(
			payload.Payroll, payload.LossHistory, payload.ExpectedLossRate, payload.SplitPointTable), nil

	case TypeCalculateScheduleRating:
		var payload rating.SchedulePayload
		if err := json.Unmarshal(request.Payload, &payload); err != nil {
			return nil, domain.WrapError(err, errcodes.InvalidComputeRequest, "schedule payload")
		}
		return rating.CalculateScheduleRating(payload.BasePremium, payload.Assessments, payload.Categories)

	case TypeBatchCalculate:
		var payloads []rating.RatingPayload
		if err := json.Unmarshal(request.Payload, &payloads); err != nil {
			return nil, domain.WrapError(err, errcodes.InvalidComputeRequest, "batch payload")
		}
		return runBatch(payloads), nil
	}

	return nil, domain.NewError(errcodes.UnknownComputeType,
		fmt.Sprintf("unknown message type %q", request.Type))
}

// runBatch evaluates independent payloads sequentially within the same
// worker, isolating per-item failures.
func runBatch(payloads []rating.RatingPayload) []BatchItem {
	items := make([]BatchItem, 0, len(payloads))

	for _, payload := range payloads {
		result, err := rating.CalculateRating(payload)
		if err != nil {
			items = append(items, BatchItem{Error: err.Error()})
			continue
		}

		items = append(items, BatchItem{Result: &result})
	}

	return items
}

func errorResponse(requestID, message string) Response {
	return Response{
		Type:      StatusError,
		RequestID: requestID,
		Error:     message,
	}
}
