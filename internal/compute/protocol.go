// Package compute runs rating calculations outside the caller's goroutine. A
// single worker owns all evaluation; callers communicate by message passing
// only and match replies by request id, never by arrival order.
package compute

import (
	jsoniter "github.com/json-iterator/go"

	"rating_engine/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// MessageType selects the calculation a request carries.
type MessageType string

const (
	TypeCalculateRating         MessageType = "CALCULATE_RATING"
	TypeCalculateILF            MessageType = "CALCULATE_ILF"
	TypeCalculateExperienceMod  MessageType = "CALCULATE_EXPERIENCE_MOD"
	TypeCalculateScheduleRating MessageType = "CALCULATE_SCHEDULE_RATING"
	TypeBatchCalculate          MessageType = "BATCH_CALCULATE"
)

func (t MessageType) String() string {
	return string(t)
}

// Request is one computation request. Payload is type-specific and RequestID
// is an opaque caller-chosen correlation id.
type Request struct {
	Type      MessageType         `json:"type"`
	Payload   jsoniter.RawMessage `json:"payload"`
	RequestID string              `json:"request_id"`
}

type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "SUCCESS"
	StatusError   ResponseStatus = "ERROR"
)

// Response carries either a result or an error message, keyed by the request
// id. Unknown request types produce an ERROR response, never a panic.
type Response struct {
	Type      ResponseStatus `json:"type"`
	RequestID string         `json:"request_id"`
	Result    any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// BatchItem is one element of a BATCH_CALCULATE result. Items are isolated:
// one failing payload yields an item-level error, not a voided batch.
type BatchItem struct {
	Result *entity.RatingResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}
