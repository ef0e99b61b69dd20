package lifecycle

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"rating_engine/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// stepContent is the hashed projection of one step. Row identity and
// timestamps are excluded so that a cloned version with identical content
// hashes identically.
type stepContent struct {
	Type   entity.StepType   `json:"type"`
	Config entity.StepConfig `json:"config"`
	Order  int               `json:"order"`
}

// StepsHash computes the content hash frozen on a version at publish time and
// later compared by the drift monitor.
func StepsHash(steps []entity.RatingStep) string {
	ordered := make([]entity.RatingStep, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	content := make([]stepContent, 0, len(ordered))
	for _, step := range ordered {
		content = append(content, stepContent{
			Type:   step.Type,
			Config: step.Config,
			Order:  step.Order,
		})
	}

	raw, _ := json.Marshal(content) //nolint:errcheck // struct of plain values

	sum := sha256.Sum256(raw)

	return hex.EncodeToString(sum[:])
}
