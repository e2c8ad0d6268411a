package training

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	appModeration "github.com/trustlocal/scamguard/pkg/app/moderation"
	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/model"
	"github.com/trustlocal/scamguard/pkg/moderation/classifier"
	"github.com/trustlocal/scamguard/pkg/moderation/tokenizer"
)

// BootstrapResult is the explicit load-or-initialize outcome: either a
// known-good version was activated, or there is nothing to load and the
// engine starts empty until the first training run publishes.
type BootstrapResult struct {
	Loaded  bool
	Version string
}

func (r *BootstrapResult) NeedsInitialization() bool {
	return !r.Loaded
}

// Bootstrap activates the most recent valid artifact at startup. A
// corrupt artifact is never activated: the bootstrap walks back to the
// last known-good version instead.
type Bootstrap struct {
	logger *logrus.Logger
	store  model.Store
	models *appModeration.Holder
}

func NewBootstrap(logger *logrus.Logger, store model.Store, models *appModeration.Holder) *Bootstrap {
	return &Bootstrap{
		logger: logger,
		store:  store,
		models: models,
	}
}

func (b *Bootstrap) Activate(ctx context.Context) (*BootstrapResult, error) {
	versions, err := b.store.Versions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list model versions: %w", err)
	}

	for _, version := range versions {
		artifact, err := b.store.Load(ctx, version)
		if err != nil {
			if domain.IsCorruptArtifactError(err) {
				b.logger.WithError(err).WithField("version", version).
					Error("refusing to activate corrupt artifact, falling back")
				continue
			}
			return nil, fmt.Errorf("failed to load model version %s: %w", version, err)
		}

		active, err := ActiveModelFromArtifact(artifact)
		if err != nil {
			if domain.IsCorruptArtifactError(err) {
				b.logger.WithError(err).WithField("version", version).
					Error("refusing to activate corrupt artifact, falling back")
				continue
			}
			return nil, err
		}

		b.models.Publish(active)
		b.logger.WithField("version", version).Info("activated model version")
		return &BootstrapResult{Loaded: true, Version: version}, nil
	}

	b.logger.Warn("no usable model artifact found, moderation waits for first training run")
	return &BootstrapResult{}, nil
}

// ActiveModelFromArtifact validates and unpacks a stored artifact into
// a servable model version.
func ActiveModelFromArtifact(a *model.Artifact) (*appModeration.ActiveModel, error) {
	network, err := classifier.DecodeArtifact(a)
	if err != nil {
		return nil, err
	}
	return &appModeration.ActiveModel{
		Version:   a.Version,
		Encoder:   tokenizer.FromVocab(a.Vocab, a.MaxLen),
		Predictor: network,
	}, nil
}
