// Package tasks moves heavy batch calculations out of the API process over
// the asynq queue. Interactive single calculations stay on the in-process
// compute dispatcher; batches of submissions go through here.
package tasks

import (
	jsoniter "github.com/json-iterator/go"

	"rating_engine/internal/domain/service/rating"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const TypeBatchRating = "rating:batch"

// BatchRatingPayload is the asynq task body for one batch computation.
type BatchRatingPayload struct {
	RequestID string                 `json:"request_id"`
	Payloads  []rating.RatingPayload `json:"payloads"`
}
