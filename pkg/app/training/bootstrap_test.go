package training

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appModeration "github.com/trustlocal/scamguard/pkg/app/moderation"
	"github.com/trustlocal/scamguard/pkg/domain/model"
	"github.com/trustlocal/scamguard/pkg/moderation/classifier"
	"github.com/trustlocal/scamguard/pkg/moderation/tokenizer"
)

func validArtifact(t *testing.T, version string) *model.Artifact {
	t.Helper()

	tok := tokenizer.New(100, 16)
	tok.Fit([]string{"win money now", "plumbing services in town"})

	network := classifier.New(classifier.Options{
		VocabSize:    tok.VocabSize(),
		MaxLen:       tok.MaxLen(),
		EmbeddingDim: 8,
		HiddenSize:   8,
		Seed:         7,
	})
	artifact, err := classifier.EncodeArtifact(version, network, tok.Vocab(), nil)
	require.NoError(t, err)
	return artifact
}

func corruptArtifact(version string) *model.Artifact {
	return &model.Artifact{Version: version, Payload: []byte("{truncated")}
}

func TestBootstrap_ActivatesLatestVersion(t *testing.T) {
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), validArtifact(t, "v1")))
	require.NoError(t, store.Save(context.Background(), validArtifact(t, "v2")))

	holder := appModeration.NewHolder()
	b := NewBootstrap(testLogger(), store, holder)

	result, err := b.Activate(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Loaded)
	assert.False(t, result.NeedsInitialization())
	assert.Equal(t, "v2", result.Version)

	active := holder.Current()
	require.NotNil(t, active)
	assert.Equal(t, "v2", active.Version)

	seq, err := active.Encoder.Encode("win money now")
	require.NoError(t, err)
	score := active.Predictor.Predict(seq)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestBootstrap_FallsBackPastCorruptArtifact(t *testing.T) {
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), validArtifact(t, "v1")))
	require.NoError(t, store.Save(context.Background(), corruptArtifact("v2")))

	holder := appModeration.NewHolder()
	b := NewBootstrap(testLogger(), store, holder)

	result, err := b.Activate(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Loaded)
	assert.Equal(t, "v1", result.Version)

	active := holder.Current()
	require.NotNil(t, active)
	assert.Equal(t, "v1", active.Version)
}

func TestBootstrap_EmptyStoreNeedsInitialization(t *testing.T) {
	holder := appModeration.NewHolder()
	b := NewBootstrap(testLogger(), newMemoryStore(), holder)

	result, err := b.Activate(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Loaded)
	assert.True(t, result.NeedsInitialization())
	assert.Nil(t, holder.Current())
}
