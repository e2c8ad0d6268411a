package training

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appModeration "github.com/trustlocal/scamguard/pkg/app/moderation"
	"github.com/trustlocal/scamguard/pkg/config"
	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/model"
	"github.com/trustlocal/scamguard/pkg/infra/cache/event"
)

type stubLoader struct {
	corpus  *Corpus
	err     error
	started chan struct{}
	release chan struct{}
}

func (l *stubLoader) Load(ctx context.Context) (*Corpus, error) {
	if l.started != nil {
		close(l.started)
	}
	if l.release != nil {
		<-l.release
	}
	return l.corpus, l.err
}

type memoryStore struct {
	mu        sync.Mutex
	saved     []*model.Artifact
	saveErr   error
	loadErr   error
	artifacts map[string]*model.Artifact
}

func newMemoryStore() *memoryStore {
	return &memoryStore{artifacts: make(map[string]*model.Artifact)}
}

func (s *memoryStore) Save(ctx context.Context, artifact *model.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, artifact)
	s.artifacts[artifact.Version] = artifact
	return nil
}

func (s *memoryStore) Load(ctx context.Context, version string) (*model.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	artifact, ok := s.artifacts[version]
	if !ok {
		return nil, errors.New("version not found")
	}
	return artifact, nil
}

func (s *memoryStore) Versions(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := make([]string, 0, len(s.saved))
	for i := len(s.saved) - 1; i >= 0; i-- {
		versions = append(versions, s.saved[i].Version)
	}
	return versions, nil
}

func (s *memoryStore) LatestVersion(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saved) == 0 {
		return "", errors.New("no versions")
	}
	return s.saved[len(s.saved)-1].Version, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func trainableCorpus() *Corpus {
	var (
		trainTexts  []string
		trainLabels []float64
	)
	for i := 0; i < 40; i++ {
		trainTexts = append(trainTexts, "win money now")
		trainLabels = append(trainLabels, 1)
		trainTexts = append(trainTexts, "plumbing services in town")
		trainLabels = append(trainLabels, 0)
	}
	return &Corpus{
		TrainTexts:  trainTexts,
		TrainLabels: trainLabels,
		TestTexts:   []string{"win money now", "plumbing services in town"},
		TestLabels:  []float64{1, 0},
	}
}

func pipelineConfig() config.TrainingConfig {
	return config.TrainingConfig{
		MinExamples:   10,
		NegativeRatio: 2,
		MaxNegatives:  1000,
		VocabSize:     100,
		MaxLen:        16,
		EmbeddingDim:  8,
		HiddenSize:    8,
		Epochs:        20,
		BatchSize:     8,
		LearningRate:  0.1,
		Seed:          7,
	}
}

func TestPipeline_RunPublishesNewVersion(t *testing.T) {
	holder := appModeration.NewHolder()
	store := newMemoryStore()
	publisher := &recordingPublisher{}

	p := NewPipeline(testLogger(), &stubLoader{corpus: trainableCorpus()}, store, holder, publisher, pipelineConfig())

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePublished, result.State)
	assert.NotEmpty(t, result.Version)
	require.NotNil(t, result.Report)
	assert.Equal(t, 80, result.Report.TrainExamples)

	// artifact persisted before publish, under the same version
	require.Len(t, store.saved, 1)
	assert.Equal(t, result.Version, store.saved[0].Version)

	active := holder.Current()
	require.NotNil(t, active)
	assert.Equal(t, result.Version, active.Version)

	seq, err := active.Encoder.Encode("win money now")
	require.NoError(t, err)
	score := active.Predictor.Predict(seq)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)

	require.Len(t, publisher.events, 1)
	published, ok := publisher.events[0].(event.ModelPublishedEvent)
	require.True(t, ok)
	assert.Equal(t, result.Version, published.Version)
}

func TestPipeline_InsufficientDataSkips(t *testing.T) {
	holder := appModeration.NewHolder()
	previous := &appModeration.ActiveModel{Version: "v-old"}
	holder.Publish(previous)

	loader := &stubLoader{err: domain.ErrInsufficientData}
	store := newMemoryStore()

	p := NewPipeline(testLogger(), loader, store, holder, nil, pipelineConfig())

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSkipped, result.State)
	assert.Empty(t, result.Version)

	assert.Empty(t, store.saved)
	assert.Same(t, previous, holder.Current(), "skipped run must not touch the active model")
	assert.Equal(t, StateSkipped, p.State())
}

func TestPipeline_LoaderFailureLeavesModelServing(t *testing.T) {
	holder := appModeration.NewHolder()
	previous := &appModeration.ActiveModel{Version: "v-old"}
	holder.Publish(previous)

	p := NewPipeline(testLogger(), &stubLoader{err: domain.ErrUpstreamUnavailable}, newMemoryStore(), holder, nil, pipelineConfig())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Same(t, previous, holder.Current())
	assert.Equal(t, StateIdle, p.State())
}

func TestPipeline_SaveFailureLeavesModelServing(t *testing.T) {
	holder := appModeration.NewHolder()
	previous := &appModeration.ActiveModel{Version: "v-old"}
	holder.Publish(previous)

	store := newMemoryStore()
	store.saveErr = errors.New("disk full")

	p := NewPipeline(testLogger(), &stubLoader{corpus: trainableCorpus()}, store, holder, nil, pipelineConfig())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Same(t, previous, holder.Current(), "failed persist must not publish")
}

func TestPipeline_ConcurrentRunRejected(t *testing.T) {
	loader := &stubLoader{
		corpus:  trainableCorpus(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	p := NewPipeline(testLogger(), loader, newMemoryStore(), appModeration.NewHolder(), nil, pipelineConfig())

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background())
		done <- err
	}()

	<-loader.started
	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(loader.release)
	require.NoError(t, <-done)
}

func TestPipeline_PublishAnnouncementFailureIsNotFatal(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("redis down")}
	p := NewPipeline(testLogger(), &stubLoader{corpus: trainableCorpus()}, newMemoryStore(), appModeration.NewHolder(), publisher, pipelineConfig())

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePublished, result.State)
}
