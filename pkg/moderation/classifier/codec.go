package classifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/model"
)

// networkState is the serialized parameter set inside an artifact
// payload. Dimensions are stored redundantly with the surrounding
// artifact metadata so a mismatch can be detected on load.
type networkState struct {
	VocabSize    int         `json:"vocab_size"`
	MaxLen       int         `json:"max_len"`
	EmbeddingDim int         `json:"embedding_dim"`
	HiddenSize   int         `json:"hidden_size"`
	Embeddings   [][]float64 `json:"embeddings"`
	Wx           [][]float64 `json:"wx"`
	Wh           [][]float64 `json:"wh"`
	Bh           []float64   `json:"bh"`
	Wo           []float64   `json:"wo"`
	Bo           float64     `json:"bo"`
}

// EncodeArtifact packs a trained network and its frozen vocabulary into
// one artifact. Vocabulary and parameters travel together: neither is
// ever persisted without the other.
func EncodeArtifact(version string, n *Network, vocab map[string]int, report *model.TrainingReport) (*model.Artifact, error) {
	state := networkState{
		VocabSize:    n.opts.VocabSize,
		MaxLen:       n.opts.MaxLen,
		EmbeddingDim: n.opts.EmbeddingDim,
		HiddenSize:   n.opts.HiddenSize,
		Embeddings:   n.embeddings,
		Wx:           n.wx,
		Wh:           n.wh,
		Bh:           n.bh,
		Wo:           n.wo,
		Bo:           n.bo,
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize network state: %w", err)
	}
	return &model.Artifact{
		Version:   version,
		VocabSize: len(vocab),
		MaxLen:    n.opts.MaxLen,
		Vocab:     vocab,
		Payload:   payload,
		Report:    report,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DecodeArtifact restores a network from a stored artifact, refusing
// any artifact whose vocabulary or parameter shapes disagree with each
// other. A mismatched artifact would silently decode garbage, so it is
// rejected outright.
func DecodeArtifact(a *model.Artifact) (*Network, error) {
	var state networkState
	if err := json.Unmarshal(a.Payload, &state); err != nil {
		return nil, domain.NewCorruptArtifactError(a.Version, fmt.Sprintf("payload is not valid network state: %v", err))
	}

	if state.VocabSize != len(a.Vocab) || state.VocabSize != a.VocabSize {
		return nil, domain.NewCorruptArtifactError(a.Version, fmt.Sprintf(
			"vocabulary size mismatch: artifact=%d vocab=%d parameters=%d", a.VocabSize, len(a.Vocab), state.VocabSize))
	}
	if state.MaxLen != a.MaxLen {
		return nil, domain.NewCorruptArtifactError(a.Version, fmt.Sprintf(
			"max_len mismatch: artifact=%d parameters=%d", a.MaxLen, state.MaxLen))
	}
	if len(state.Embeddings) != state.VocabSize+reservedIDs {
		return nil, domain.NewCorruptArtifactError(a.Version, fmt.Sprintf(
			"embedding table has %d rows, expected %d", len(state.Embeddings), state.VocabSize+reservedIDs))
	}
	for i, row := range state.Embeddings {
		if len(row) != state.EmbeddingDim {
			return nil, domain.NewCorruptArtifactError(a.Version, fmt.Sprintf(
				"embedding row %d has dimension %d, expected %d", i, len(row), state.EmbeddingDim))
		}
	}
	if err := checkMatrix("wx", state.Wx, state.EmbeddingDim, state.HiddenSize); err != nil {
		return nil, domain.NewCorruptArtifactError(a.Version, err.Error())
	}
	if err := checkMatrix("wh", state.Wh, state.HiddenSize, state.HiddenSize); err != nil {
		return nil, domain.NewCorruptArtifactError(a.Version, err.Error())
	}
	if len(state.Bh) != state.HiddenSize || len(state.Wo) != state.HiddenSize {
		return nil, domain.NewCorruptArtifactError(a.Version, fmt.Sprintf(
			"output layer has %d/%d parameters, expected %d", len(state.Bh), len(state.Wo), state.HiddenSize))
	}

	return &Network{
		opts: Options{
			VocabSize:    state.VocabSize,
			MaxLen:       state.MaxLen,
			EmbeddingDim: state.EmbeddingDim,
			HiddenSize:   state.HiddenSize,
		},
		embeddings: state.Embeddings,
		wx:         state.Wx,
		wh:         state.Wh,
		bh:         state.Bh,
		wo:         state.Wo,
		bo:         state.Bo,
	}, nil
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%s has %d rows, expected %d", name, len(m), rows)
	}
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%s row %d has %d columns, expected %d", name, i, len(row), cols)
		}
	}
	return nil
}
