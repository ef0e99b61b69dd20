package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"git.appkode.ru/pub/go/failure"
	"github.com/hibiken/asynq"
	"github.com/rs/xid"

	"rating_engine/internal/compute"
	"rating_engine/internal/domain/service/rating"
	"rating_engine/pkg/errcodes"
	"rating_engine/pkg/httpx/reply"
	"rating_engine/pkg/httpx/req"
	"rating_engine/pkg/rest"
)

type computeDispatcher interface {
	Call(ctx context.Context, request compute.Request) (compute.Response, error)
}

type batchEnqueuer interface {
	EnqueueBatch(ctx context.Context, requestID string, payloads []rating.RatingPayload) (*asynq.TaskInfo, error)
}

// CalcServer exposes the computation channel over HTTP. Synchronous
// calculations go through the in-process dispatcher; batches are offloaded to
// the task queue and acknowledged with 202.
type CalcServer struct {
	dispatcher computeDispatcher
	enqueuer   batchEnqueuer
}

func NewCalcServer(dispatcher computeDispatcher, enqueuer batchEnqueuer) CalcServer {
	return CalcServer{
		dispatcher: dispatcher,
		enqueuer:   enqueuer,
	}
}

func (s CalcServer) postV1CalcRating(w http.ResponseWriter, r *http.Request) error {
	return s.dispatch(w, r, compute.TypeCalculateRating)
}

func (s CalcServer) postV1CalcILF(w http.ResponseWriter, r *http.Request) error {
	return s.dispatch(w, r, compute.TypeCalculateILF)
}

func (s CalcServer) postV1CalcExperienceMod(w http.ResponseWriter, r *http.Request) error {
	return s.dispatch(w, r, compute.TypeCalculateExperienceMod)
}

func (s CalcServer) postV1CalcSchedule(w http.ResponseWriter, r *http.Request) error {
	return s.dispatch(w, r, compute.TypeCalculateScheduleRating)
}

func (s CalcServer) dispatch(w http.ResponseWriter, r *http.Request, messageType compute.MessageType) error {
	ctx := r.Context()

	payload, err := readRawPayload(r)
	if err != nil {
		return err
	}

	response, err := s.dispatcher.Call(ctx, compute.Request{
		Type:      messageType,
		Payload:   payload,
		RequestID: xid.New().String(),
	})
	if err != nil {
		return fmt.Errorf("dispatcher.Call: %w", err)
	}

	if response.Type == compute.StatusError {
		return failure.NewInvalidArgumentError(
			response.Error,
			failure.WithCode(errcodes.InvalidComputeRequest),
		)
	}

	reply.JSON(ctx, w, http.StatusOK, response.Result)

	return nil
}

func (s CalcServer) postV1CalcBatch(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request struct {
		Payloads []rating.RatingPayload `json:"payloads" validate:"required,min=1"`
	}

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	requestID := xid.New().String()

	info, err := s.enqueuer.EnqueueBatch(ctx, requestID, request.Payloads)
	if err != nil {
		return fmt.Errorf("enqueuer.EnqueueBatch: %w", err)
	}

	reply.JSON(ctx, w, http.StatusAccepted, rest.BatchAccepted{
		RequestID: requestID,
		TaskID:    info.ID,
		Queue:     info.Queue,
	})

	return nil
}

func readRawPayload(r *http.Request) ([]byte, error) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, failure.NewInvalidArgumentError(
			fmt.Errorf("io.ReadAll: %w", err).Error(),
			failure.WithCode(errcodes.ValidationError),
		)
	}

	if len(payload) == 0 {
		return nil, failure.NewInvalidArgumentError(
			"empty request body",
			failure.WithCode(errcodes.ValidationError),
		)
	}

	return payload, nil
}
