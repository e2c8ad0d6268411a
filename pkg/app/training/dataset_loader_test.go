package training

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trustlocal/scamguard/pkg/config"
	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/content"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) ConfirmedScamReports(ctx context.Context) ([]content.ScamReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]content.ScamReport), args.Error(1)
}

func (m *mockRepository) SampleCleanListings(ctx context.Context, limit int) ([]content.Listing, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]content.Listing), args.Error(1)
}

func (m *mockRepository) UnmoderatedListings(ctx context.Context) ([]content.Listing, error) {
	args := m.Called(ctx)
	return args.Get(0).([]content.Listing), args.Error(1)
}

func (m *mockRepository) UnmoderatedReviews(ctx context.Context) ([]content.Review, error) {
	args := m.Called(ctx)
	return args.Get(0).([]content.Review), args.Error(1)
}

func (m *mockRepository) MarkListingModerated(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockRepository) MarkReviewModerated(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func scamReports(n int) []content.ScamReport {
	reports := make([]content.ScamReport, n)
	for i := range reports {
		reports[i] = content.ScamReport{
			ID:        uuid.New(),
			Text:      fmt.Sprintf("win money now offer %d", i),
			Confirmed: true,
		}
	}
	return reports
}

func cleanListings(n int) []content.Listing {
	listings := make([]content.Listing, n)
	for i := range listings {
		listings[i] = content.Listing{
			ID:           uuid.New(),
			BusinessName: fmt.Sprintf("shop %d", i),
			Description:  "plumbing services in town",
		}
	}
	return listings
}

func loaderConfig() config.TrainingConfig {
	return config.TrainingConfig{
		MinExamples:   100,
		NegativeRatio: 2,
		MaxNegatives:  1000,
		Seed:          7,
	}
}

func TestDatasetLoader_SplitsAndLabels(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ConfirmedScamReports", mock.Anything).Return(scamReports(50), nil)
	repo.On("SampleCleanListings", mock.Anything, 1000).Return(cleanListings(50), nil)

	loader := NewDatasetLoader(testLogger(), repo, loaderConfig())
	corpus, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, corpus.TrainTexts, 80)
	assert.Len(t, corpus.TrainLabels, 80)
	assert.Len(t, corpus.TestTexts, 20)
	assert.Len(t, corpus.TestLabels, 20)
	assert.Len(t, corpus.AllTexts(), 100)

	var positives int
	for _, label := range append(append([]float64{}, corpus.TrainLabels...), corpus.TestLabels...) {
		if label == 1 {
			positives++
		}
	}
	assert.Equal(t, 50, positives)
}

func TestDatasetLoader_CapsNegativesByRatio(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ConfirmedScamReports", mock.Anything).Return(scamReports(60), nil)
	repo.On("SampleCleanListings", mock.Anything, 1000).Return(cleanListings(500), nil)

	loader := NewDatasetLoader(testLogger(), repo, loaderConfig())
	corpus, err := loader.Load(context.Background())
	require.NoError(t, err)

	// 60 positives keep at most 120 negatives
	assert.Len(t, corpus.AllTexts(), 180)
}

func TestDatasetLoader_InsufficientData(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ConfirmedScamReports", mock.Anything).Return(scamReports(20), nil)
	repo.On("SampleCleanListings", mock.Anything, 1000).Return(cleanListings(20), nil)

	loader := NewDatasetLoader(testLogger(), repo, loaderConfig())
	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestDatasetLoader_SeededShuffleIsDeterministic(t *testing.T) {
	build := func() *Corpus {
		repo := new(mockRepository)
		repo.On("ConfirmedScamReports", mock.Anything).Return(scamReports(50), nil)
		repo.On("SampleCleanListings", mock.Anything, 1000).Return(cleanListings(50), nil)

		loader := NewDatasetLoader(testLogger(), repo, loaderConfig())
		corpus, err := loader.Load(context.Background())
		require.NoError(t, err)
		return corpus
	}

	first := build()
	second := build()
	assert.Equal(t, first.TrainTexts, second.TrainTexts)
	assert.Equal(t, first.TrainLabels, second.TrainLabels)
	assert.Equal(t, first.TestTexts, second.TestTexts)
}

func TestDatasetLoader_UpstreamFailure(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ConfirmedScamReports", mock.Anything).Return(nil, domain.ErrUpstreamUnavailable)
	repo.On("SampleCleanListings", mock.Anything, 1000).Return(cleanListings(10), nil).Maybe()

	loader := NewDatasetLoader(testLogger(), repo, loaderConfig())
	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
