package training

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/trustlocal/scamguard/pkg/config"
	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/content"
)

// Corpus is one shuffled, label-balanced training corpus split into
// train and test partitions. Labels are 1 for confirmed scams, 0 for
// sampled clean listings.
type Corpus struct {
	TrainTexts  []string
	TrainLabels []float64
	TestTexts   []string
	TestLabels  []float64
}

func (c *Corpus) AllTexts() []string {
	all := make([]string, 0, len(c.TrainTexts)+len(c.TestTexts))
	all = append(all, c.TrainTexts...)
	all = append(all, c.TestTexts...)
	return all
}

//go:generate mockery --name=Loader --dir=. --output=./mocks --filename=dataset_loader_mock.go --case=underscore --with-expecter

type Loader interface {
	Load(ctx context.Context) (*Corpus, error)
}

type datasetLoader struct {
	logger *logrus.Logger
	repo   content.Repository
	cfg    config.TrainingConfig
}

func NewDatasetLoader(logger *logrus.Logger, repo content.Repository, cfg config.TrainingConfig) Loader {
	return &datasetLoader{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
	}
}

// Load pulls confirmed scam reports and a sample of clean listings,
// caps the negatives at negative_ratio times the positive count so the
// structural class imbalance stays within a trainable range, then
// shuffles and splits 80/20.
func (l *datasetLoader) Load(ctx context.Context) (*Corpus, error) {
	var (
		reports  []content.ScamReport
		listings []content.Listing
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reports, err = l.repo.ConfirmedScamReports(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch confirmed scam reports: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		listings, err = l.repo.SampleCleanListings(gctx, l.cfg.MaxNegatives)
		if err != nil {
			return fmt.Errorf("failed to fetch clean listings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	maxNegatives := l.cfg.NegativeRatio * len(reports)
	if len(listings) > maxNegatives {
		listings = listings[:maxNegatives]
	}

	texts := make([]string, 0, len(reports)+len(listings))
	labels := make([]float64, 0, len(reports)+len(listings))
	for _, report := range reports {
		texts = append(texts, report.Text)
		labels = append(labels, 1)
	}
	for i := range listings {
		texts = append(texts, listings[i].Text())
		labels = append(labels, 0)
	}

	if len(texts) < l.cfg.MinExamples {
		return nil, fmt.Errorf("%w: have %d examples, need at least %d",
			domain.ErrInsufficientData, len(texts), l.cfg.MinExamples)
	}

	seed := l.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(texts), func(i, j int) {
		texts[i], texts[j] = texts[j], texts[i]
		labels[i], labels[j] = labels[j], labels[i]
	})

	split := len(texts) * 8 / 10

	l.logger.WithFields(logrus.Fields{
		"positives": len(reports),
		"negatives": len(listings),
		"train":     split,
		"test":      len(texts) - split,
	}).Info("training corpus loaded")

	return &Corpus{
		TrainTexts:  texts[:split],
		TrainLabels: labels[:split],
		TestTexts:   texts[split:],
		TestLabels:  labels[split:],
	}, nil
}
