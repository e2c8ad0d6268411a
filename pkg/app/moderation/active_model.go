package moderation

import (
	"sync/atomic"
)

// Encoder maps raw text to the fixed-length id sequence the paired
// predictor was trained on.
type Encoder interface {
	Encode(text string) ([]int, error)
}

// Predictor returns a scam probability in [0,1] for one encoded
// sequence. Implementations must be read-only and safe for concurrent
// calls.
type Predictor interface {
	Predict(seq []int) float64
}

// ActiveModel is one published model version: a frozen-vocabulary
// encoder matched to the parameters trained against it. The pair is
// immutable after publication.
type ActiveModel struct {
	Version   string
	Encoder   Encoder
	Predictor Predictor
}

// Holder is the single piece of shared mutable state between the
// training pipeline and concurrent moderation calls. Publish replaces
// the whole model in one atomic store, so a reader always sees a
// complete, internally consistent version.
type Holder struct {
	current atomic.Pointer[ActiveModel]
}

func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the active model, or nil when none has been
// published yet.
func (h *Holder) Current() *ActiveModel {
	return h.current.Load()
}

func (h *Holder) Publish(m *ActiveModel) {
	h.current.Store(m)
}
