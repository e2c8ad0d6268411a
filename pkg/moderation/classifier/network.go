package classifier

import (
	"context"
	"math"
	"math/rand"

	"github.com/trustlocal/scamguard/pkg/domain/model"
	"github.com/trustlocal/scamguard/pkg/moderation/tokenizer"
)

// Options fixes the architecture and the training regime of a network.
// Epochs is a fixed count, no early stopping, so two runs on the same
// data and seed produce the same parameters.
type Options struct {
	VocabSize    int
	MaxLen       int
	EmbeddingDim int
	HiddenSize   int
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64
}

// Network is a small recurrent binary classifier: token embeddings fed
// through an Elman-style hidden layer, a dense sigmoid head on the final
// hidden state. Parameters are mutated only by Train; Predict is
// read-only and safe for concurrent use once training has finished.
type Network struct {
	opts Options

	embeddings [][]float64 // (vocab + reserved ids) x embedding dim
	wx         [][]float64 // embedding dim x hidden
	wh         [][]float64 // hidden x hidden
	bh         []float64
	wo         []float64
	bo         float64
}

// reservedIDs accounts for the pad and unknown sentinel rows in the
// embedding table.
const reservedIDs = 2

func New(opts Options) *Network {
	rng := rand.New(rand.NewSource(opts.Seed))

	rows := opts.VocabSize + reservedIDs
	n := &Network{
		opts:       opts,
		embeddings: randomMatrix(rng, rows, opts.EmbeddingDim, opts.EmbeddingDim),
		wx:         randomMatrix(rng, opts.EmbeddingDim, opts.HiddenSize, opts.EmbeddingDim),
		wh:         randomMatrix(rng, opts.HiddenSize, opts.HiddenSize, opts.HiddenSize),
		bh:         make([]float64, opts.HiddenSize),
		wo:         randomVector(rng, opts.HiddenSize, opts.HiddenSize),
	}
	// pad row stays zero so padding carries no signal
	for d := range n.embeddings[tokenizer.PadID] {
		n.embeddings[tokenizer.PadID][d] = 0
	}
	return n
}

func randomMatrix(rng *rand.Rand, rows, cols, fanIn int) [][]float64 {
	scale := 1.0 / math.Sqrt(float64(fanIn))
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = (rng.Float64()*2 - 1) * scale
		}
	}
	return m
}

func randomVector(rng *rand.Rand, n, fanIn int) []float64 {
	scale := 1.0 / math.Sqrt(float64(fanIn))
	v := make([]float64, n)
	for i := range v {
		v[i] = (rng.Float64()*2 - 1) * scale
	}
	return v
}

func (n *Network) Options() Options {
	return n.opts
}

// Predict returns the scam probability for one encoded sequence.
func (n *Network) Predict(seq []int) float64 {
	h, _ := n.forward(seq)
	return sigmoid(dot(n.wo, h) + n.bo)
}

// forward runs the recurrence and returns the final hidden state plus
// the per-step states needed for backpropagation. Pad ids are skipped;
// sequences are padded at the tail so this only trims trailing zeros.
func (n *Network) forward(seq []int) ([]float64, []step) {
	hidden := n.opts.HiddenSize
	h := make([]float64, hidden)
	steps := make([]step, 0, len(seq))

	for _, id := range seq {
		if id == tokenizer.PadID {
			continue
		}
		x := n.embeddings[id]
		next := make([]float64, hidden)
		for j := 0; j < hidden; j++ {
			pre := n.bh[j]
			for d := 0; d < n.opts.EmbeddingDim; d++ {
				pre += x[d] * n.wx[d][j]
			}
			for k := 0; k < hidden; k++ {
				pre += h[k] * n.wh[k][j]
			}
			next[j] = math.Tanh(pre)
		}
		steps = append(steps, step{tokenID: id, prev: h, out: next})
		h = next
	}
	return h, steps
}

type step struct {
	tokenID int
	prev    []float64
	out     []float64
}

// Train fits the parameters with mini-batch gradient descent on binary
// cross-entropy for a fixed number of epochs, then evaluates both
// splits. The context is checked between epochs so a shutdown aborts
// training without leaving the caller a half-published artifact.
func (n *Network) Train(ctx context.Context, xTrain [][]int, yTrain []float64, xTest [][]int, yTest []float64) (*model.TrainingReport, error) {
	batchSize := n.opts.BatchSize
	if batchSize <= 0 || batchSize > len(xTrain) {
		batchSize = len(xTrain)
	}

	for epoch := 0; epoch < n.opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for start := 0; start < len(xTrain); start += batchSize {
			end := start + batchSize
			if end > len(xTrain) {
				end = len(xTrain)
			}
			n.trainBatch(xTrain[start:end], yTrain[start:end])
		}
	}

	trainLoss, trainAcc := n.Evaluate(xTrain, yTrain)
	testLoss, testAcc := n.Evaluate(xTest, yTest)

	return &model.TrainingReport{
		Epochs:             n.opts.Epochs,
		TrainExamples:      len(xTrain),
		TestExamples:       len(xTest),
		TrainLoss:          trainLoss,
		TrainAccuracy:      trainAcc,
		ValidationLoss:     testLoss,
		ValidationAccuracy: testAcc,
	}, nil
}

func (n *Network) trainBatch(batch [][]int, labels []float64) {
	g := newGradients(n.opts)
	for i, seq := range batch {
		n.backprop(seq, labels[i], g)
	}
	n.apply(g, n.opts.LearningRate/float64(len(batch)))
}

// backprop accumulates gradients for one example via backpropagation
// through time over the non-pad steps.
func (n *Network) backprop(seq []int, label float64, g *gradients) {
	hidden := n.opts.HiddenSize
	dim := n.opts.EmbeddingDim

	h, steps := n.forward(seq)
	p := sigmoid(dot(n.wo, h) + n.bo)

	// dL/dlogit for sigmoid + binary cross-entropy
	dLogit := p - label
	g.bo += dLogit
	dh := make([]float64, hidden)
	for j := 0; j < hidden; j++ {
		g.wo[j] += dLogit * h[j]
		dh[j] = dLogit * n.wo[j]
	}

	for t := len(steps) - 1; t >= 0; t-- {
		st := steps[t]
		x := n.embeddings[st.tokenID]

		dPre := make([]float64, hidden)
		for j := 0; j < hidden; j++ {
			dPre[j] = dh[j] * (1 - st.out[j]*st.out[j])
			g.bh[j] += dPre[j]
		}

		embGrad := g.embeddingRow(st.tokenID, dim)
		for d := 0; d < dim; d++ {
			var dx float64
			for j := 0; j < hidden; j++ {
				g.wx[d][j] += x[d] * dPre[j]
				dx += n.wx[d][j] * dPre[j]
			}
			embGrad[d] += dx
		}

		dPrev := make([]float64, hidden)
		for k := 0; k < hidden; k++ {
			for j := 0; j < hidden; j++ {
				g.wh[k][j] += st.prev[k] * dPre[j]
				dPrev[k] += n.wh[k][j] * dPre[j]
			}
		}
		dh = dPrev
	}
}

func (n *Network) apply(g *gradients, lr float64) {
	for id, row := range g.embeddings {
		if id == tokenizer.PadID {
			continue
		}
		target := n.embeddings[id]
		for d := range row {
			target[d] -= lr * row[d]
		}
	}
	for d := range n.wx {
		for j := range n.wx[d] {
			n.wx[d][j] -= lr * g.wx[d][j]
		}
	}
	for k := range n.wh {
		for j := range n.wh[k] {
			n.wh[k][j] -= lr * g.wh[k][j]
		}
	}
	for j := range n.bh {
		n.bh[j] -= lr * g.bh[j]
	}
	for j := range n.wo {
		n.wo[j] -= lr * g.wo[j]
	}
	n.bo -= lr * g.bo
}

// Evaluate computes mean binary cross-entropy and accuracy at the 0.5
// decision point.
func (n *Network) Evaluate(x [][]int, y []float64) (loss float64, accuracy float64) {
	if len(x) == 0 {
		return 0, 0
	}
	var correct int
	for i, seq := range x {
		p := n.Predict(seq)
		loss += bceLoss(p, y[i])
		if (p > 0.5) == (y[i] > 0.5) {
			correct++
		}
	}
	return loss / float64(len(x)), float64(correct) / float64(len(x))
}

type gradients struct {
	embeddings map[int][]float64
	wx         [][]float64
	wh         [][]float64
	bh         []float64
	wo         []float64
	bo         float64
}

func newGradients(opts Options) *gradients {
	return &gradients{
		embeddings: make(map[int][]float64),
		wx:         zeroMatrix(opts.EmbeddingDim, opts.HiddenSize),
		wh:         zeroMatrix(opts.HiddenSize, opts.HiddenSize),
		bh:         make([]float64, opts.HiddenSize),
		wo:         make([]float64, opts.HiddenSize),
	}
}

func (g *gradients) embeddingRow(id, dim int) []float64 {
	row, ok := g.embeddings[id]
	if !ok {
		row = make([]float64, dim)
		g.embeddings[id] = row
	}
	return row
}

func zeroMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

const lossEpsilon = 1e-7

func bceLoss(p, y float64) float64 {
	p = math.Min(math.Max(p, lossEpsilon), 1-lossEpsilon)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}
