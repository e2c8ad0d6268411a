package subscriber

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	appModeration "github.com/trustlocal/scamguard/pkg/app/moderation"
	"github.com/trustlocal/scamguard/pkg/app/training"
	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/model"
	infraCache "github.com/trustlocal/scamguard/pkg/infra/cache"
	"github.com/trustlocal/scamguard/pkg/infra/cache/event"
)

// ModelPublishedEventSubscriber hot-swaps this instance's active model
// when a peer publishes a new version. The version that trained locally
// is already active, so the swap is skipped for it.
type ModelPublishedEventSubscriber struct {
	logger *logrus.Logger
	store  model.Store
	models *appModeration.Holder
}

func NewModelPublishedEventSubscriber(
	logger *logrus.Logger,
	store model.Store,
	models *appModeration.Holder,
) infraCache.EventSubscriber[event.ModelPublishedEvent] {
	return &ModelPublishedEventSubscriber{
		logger: logger,
		store:  store,
		models: models,
	}
}

func (s ModelPublishedEventSubscriber) OnEvent(ctx context.Context, evt event.ModelPublishedEvent) error {
	if active := s.models.Current(); active != nil && active.Version == evt.Version {
		return nil
	}

	s.logger.WithField("version", evt.Version).Debug("loading peer-published model version")

	artifact, err := s.store.Load(ctx, evt.Version)
	if err != nil {
		if domain.IsCorruptArtifactError(err) {
			s.logger.WithError(err).Error("refusing to activate peer-published artifact")
			return nil
		}
		return fmt.Errorf("failed to load published model version: %w", err)
	}

	active, err := training.ActiveModelFromArtifact(artifact)
	if err != nil {
		s.logger.WithError(err).Error("refusing to activate peer-published artifact")
		return nil
	}

	s.models.Publish(active)
	s.logger.WithField("version", evt.Version).Info("activated peer-published model version")
	return nil
}
