package model

import (
	"time"
)

// TrainingReport summarizes one training run. It is embedded in the
// artifact so a published model carries its own provenance.
type TrainingReport struct {
	Epochs             int     `json:"epochs"`
	TrainExamples      int     `json:"train_examples"`
	TestExamples       int     `json:"test_examples"`
	TrainLoss          float64 `json:"train_loss"`
	TrainAccuracy      float64 `json:"train_accuracy"`
	ValidationLoss     float64 `json:"validation_loss"`
	ValidationAccuracy float64 `json:"validation_accuracy"`
}

// Artifact is one immutable model version as persisted by the training
// pipeline: the frozen vocabulary, the network parameters and the input
// contract they were trained against. Payload is the codec-specific
// serialized network; the surrounding fields are validated against it
// on load.
type Artifact struct {
	Version   string          `json:"version"`
	VocabSize int             `json:"vocab_size"`
	MaxLen    int             `json:"max_len"`
	Vocab     map[string]int  `json:"vocab"`
	Payload   []byte          `json:"payload"`
	Report    *TrainingReport `json:"report,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
