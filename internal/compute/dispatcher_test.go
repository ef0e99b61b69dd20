package compute_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"rating_engine/internal/compute"
	"rating_engine/internal/domain/entity"
)

func startDispatcher(t *testing.T) (*compute.Dispatcher, context.Context) {
	t.Helper()

	dispatcher := compute.NewDispatcher(prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = dispatcher.Run(ctx)
	}()

	return dispatcher, ctx
}

func TestDispatcherCall(t *testing.T) {
	rq := require.New(t)

	dispatcher, ctx := startDispatcher(t)

	response, err := dispatcher.Call(ctx, compute.Request{
		Type: compute.TypeCalculateILF,
		Payload: []byte(`{
			"basic_limit": 1000,
			"selected_limit": 2000,
			"table": [{"limit": 1000, "factor": 1.0}, {"limit": 2000, "factor": 1.4}],
			"base_premium": 500
		}`),
		RequestID: "req-1",
	})
	rq.NoError(err)

	rq.Equal(compute.StatusSuccess, response.Type)
	rq.Equal("req-1", response.RequestID)

	result, ok := response.Result.(entity.ILFResult)
	rq.True(ok)
	rq.InDelta(1.4, result.ILF, 1e-9)
	rq.InDelta(700, result.IncreasedLimitPremium, 1e-9)
}

func TestDispatcherMalformedPayload(t *testing.T) {
	rq := require.New(t)

	dispatcher, ctx := startDispatcher(t)

	response, err := dispatcher.Call(ctx, compute.Request{
		Type:      compute.TypeCalculateRating,
		Payload:   []byte(`{`),
		RequestID: "req-2",
	})
	rq.NoError(err)

	rq.Equal(compute.StatusError, response.Type)
	rq.Equal("req-2", response.RequestID)
	rq.NotEmpty(response.Error)
}

func TestDispatcherUnknownType(t *testing.T) {
	rq := require.New(t)

	dispatcher, ctx := startDispatcher(t)

	response, err := dispatcher.Call(ctx, compute.Request{
		Type:      compute.MessageType("CALCULATE_DISCOUNT"),
		Payload:   []byte(`{}`),
		RequestID: "req-3",
	})
	rq.NoError(err)

	rq.Equal(compute.StatusError, response.Type)
	rq.Contains(response.Error, "CALCULATE_DISCOUNT")
}

func TestDispatcherCorrelatesByRequestID(t *testing.T) {
	rq := require.New(t)

	dispatcher, ctx := startDispatcher(t)

	payload := []byte(`{
		"coverages": [{"coverage_id": "gl", "selected": true}],
		"base_rates": [{"coverage_id": "gl", "rate": 100, "basis": "flat"}]
	}`)

	first, err := dispatcher.Submit(ctx, compute.Request{
		Type: compute.TypeCalculateRating, Payload: payload, RequestID: "first",
	})
	rq.NoError(err)

	second, err := dispatcher.Submit(ctx, compute.Request{
		Type: compute.TypeCalculateRating, Payload: payload, RequestID: "second",
	})
	rq.NoError(err)

	// Each submission gets its own reply channel; the id travels with it.
	deadline := time.After(5 * time.Second)

	select {
	case response := <-second:
		rq.Equal("second", response.RequestID)
	case <-deadline:
		t.Fatal("no response on the second channel")
	}

	select {
	case response := <-first:
		rq.Equal("first", response.RequestID)
	case <-deadline:
		t.Fatal("no response on the first channel")
	}
}

func TestDispatcherBatchIsolation(t *testing.T) {
	rq := require.New(t)

	dispatcher, ctx := startDispatcher(t)

	response, err := dispatcher.Call(ctx, compute.Request{
		Type: compute.TypeBatchCalculate,
		Payload: []byte(`[
			{
				"coverages": [{"coverage_id": "gl", "selected": true}],
				"base_rates": [{"coverage_id": "gl", "rate": 100, "basis": "flat"}]
			},
			{
				"coverages": [{"coverage_id": "gl", "selected": true}],
				"base_rates": [{"coverage_id": "gl", "rate": 100, "basis": "flat"}],
				"steps": [{"type": "Discount", "order": 1}]
			},
			{
				"coverages": [{"coverage_id": "gl", "selected": true}],
				"base_rates": [{"coverage_id": "gl", "rate": 200, "basis": "flat"}]
			}
		]`),
		RequestID: "batch-1",
	})
	rq.NoError(err)

	rq.Equal(compute.StatusSuccess, response.Type)

	items, ok := response.Result.([]compute.BatchItem)
	rq.True(ok)
	rq.Len(items, 3)

	// The failing middle item does not void its neighbours.
	rq.NotNil(items[0].Result)
	rq.InDelta(100, items[0].Result.Premium, 1e-9)

	rq.Nil(items[1].Result)
	rq.NotEmpty(items[1].Error)

	rq.NotNil(items[2].Result)
	rq.InDelta(200, items[2].Result.Premium, 1e-9)
}

func TestDispatcherSubmitAfterCancel(t *testing.T) {
	rq := require.New(t)

	dispatcher := compute.NewDispatcher(prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nobody drains the queue and the context is gone; Submit must not hang
	// once the buffer is full.
	for i := 0; i < 100; i++ {
		if _, err := dispatcher.Submit(ctx, compute.Request{Type: compute.TypeCalculateRating}); err != nil {
			rq.ErrorIs(err, context.Canceled)
			return
		}
	}

	t.Fatal("submit never failed with a cancelled context")
}
