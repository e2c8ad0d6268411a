package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	appModeration "github.com/trustlocal/scamguard/pkg/app/moderation"
	"github.com/trustlocal/scamguard/pkg/config"
	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/model"
	infraCache "github.com/trustlocal/scamguard/pkg/infra/cache"
	"github.com/trustlocal/scamguard/pkg/infra/cache/event"
	"github.com/trustlocal/scamguard/pkg/infra/prometheus"
	"github.com/trustlocal/scamguard/pkg/moderation/classifier"
	"github.com/trustlocal/scamguard/pkg/moderation/tokenizer"
)

// State names the stages of one training run.
type State string

const (
	StateIdle          State = "IDLE"
	StateLoading       State = "LOADING"
	StatePreprocessing State = "PREPROCESSING"
	StateTraining      State = "TRAINING"
	StatePersisting    State = "PERSISTING"
	StatePublished     State = "PUBLISHED"
	StateSkipped       State = "SKIPPED"
)

// ErrRunInProgress is returned when a retrain is triggered while a
// previous run is still active. Retraining is not latency-critical, so
// the trigger is dropped rather than queued.
var ErrRunInProgress = errors.New("training run already in progress")

// RunResult reports what one pipeline run did.
type RunResult struct {
	State   State
	Version string
	Report  *model.TrainingReport
}

// Pipeline orchestrates one retrain: load corpus, fit tokenizer and
// encode, train, persist the versioned artifact, then publish it with a
// single atomic swap. A failure at any stage leaves the previously
// active model serving.
type Pipeline struct {
	logger    *logrus.Logger
	loader    Loader
	store     model.Store
	models    *appModeration.Holder
	publisher infraCache.EventPublisher
	cfg       config.TrainingConfig

	runMu   sync.Mutex
	stateMu sync.RWMutex
	state   State
}

func NewPipeline(
	logger *logrus.Logger,
	loader Loader,
	store model.Store,
	models *appModeration.Holder,
	publisher infraCache.EventPublisher,
	cfg config.TrainingConfig,
) *Pipeline {
	return &Pipeline{
		logger:    logger,
		loader:    loader,
		store:     store,
		models:    models,
		publisher: publisher,
		cfg:       cfg,
		state:     StateIdle,
	}
}

func (p *Pipeline) State() State {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.stateMu.Lock()
	p.state = s
	p.stateMu.Unlock()
}

// Run executes one full training run. The context is honored between
// stages: cancellation before PERSISTING is a clean no-op for the
// stores, and the artifact write itself is atomic.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	if !p.runMu.TryLock() {
		p.logger.Warn("retrain trigger ignored, run already in progress")
		return nil, ErrRunInProgress
	}
	defer p.runMu.Unlock()

	started := time.Now()
	result, err := p.run(ctx)
	if err != nil {
		p.setState(StateIdle)
		prometheus.TrainingRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	p.setState(result.State)
	switch result.State {
	case StateSkipped:
		prometheus.TrainingRunsTotal.WithLabelValues("skipped").Inc()
	case StatePublished:
		prometheus.TrainingRunsTotal.WithLabelValues("published").Inc()
		prometheus.TrainingDuration.Observe(time.Since(started).Seconds())
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context) (*RunResult, error) {
	p.setState(StateLoading)
	corpus, err := p.loader.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientData) {
			p.logger.WithError(err).Warn("retraining skipped")
			return &RunResult{State: StateSkipped}, nil
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.setState(StatePreprocessing)
	tok := tokenizer.New(p.cfg.VocabSize, p.cfg.MaxLen)
	tok.Fit(corpus.AllTexts())

	xTrain, err := encodeAll(tok, corpus.TrainTexts)
	if err != nil {
		return nil, err
	}
	xTest, err := encodeAll(tok, corpus.TestTexts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.setState(StateTraining)
	network := classifier.New(classifier.Options{
		VocabSize:    tok.VocabSize(),
		MaxLen:       tok.MaxLen(),
		EmbeddingDim: p.cfg.EmbeddingDim,
		HiddenSize:   p.cfg.HiddenSize,
		Epochs:       p.cfg.Epochs,
		BatchSize:    p.cfg.BatchSize,
		LearningRate: p.cfg.LearningRate,
		Seed:         p.cfg.Seed,
	})
	report, err := network.Train(ctx, xTrain, corpus.TrainLabels, xTest, corpus.TestLabels)
	if err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}
	p.logger.WithFields(logrus.Fields{
		"train_accuracy":      report.TrainAccuracy,
		"validation_accuracy": report.ValidationAccuracy,
		"validation_loss":     report.ValidationLoss,
	}).Info("model trained")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.setState(StatePersisting)
	version := uuid.New().String()
	artifact, err := classifier.EncodeArtifact(version, network, tok.Vocab(), report)
	if err != nil {
		return nil, err
	}
	if err := p.store.Save(ctx, artifact); err != nil {
		return nil, fmt.Errorf("failed to persist model artifact: %w", err)
	}

	// the swap is the only mutation visible to concurrent moderate calls
	p.models.Publish(&appModeration.ActiveModel{
		Version:   version,
		Encoder:   tok,
		Predictor: network,
	})
	p.setState(StatePublished)
	p.logger.WithField("version", version).Info("model version published")

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, event.ModelPublishedEvent{Version: version}); err != nil {
			// peers fall back to their bootstrap on next restart
			p.logger.WithError(err).Warn("failed to announce published model")
		}
	}

	return &RunResult{
		State:   StatePublished,
		Version: version,
		Report:  report,
	}, nil
}

func encodeAll(tok *tokenizer.Tokenizer, texts []string) ([][]int, error) {
	encoded := make([][]int, len(texts))
	for i, text := range texts {
		seq, err := tok.Encode(text)
		if err != nil {
			return nil, fmt.Errorf("failed to encode corpus text: %w", err)
		}
		encoded[i] = seq
	}
	return encoded, nil
}
