package subscriber

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	infraCache "github.com/trustlocal/scamguard/pkg/infra/cache"
	"github.com/trustlocal/scamguard/pkg/infra/cache/event"
	"github.com/trustlocal/scamguard/pkg/moderation/rulefilter"
)

// DenylistUpdatedEventSubscriber hot-reloads the rule filter when a new
// denylist is pushed, without a process restart.
type DenylistUpdatedEventSubscriber struct {
	logger *logrus.Logger
	filter rulefilter.Filter
}

func NewDenylistUpdatedEventSubscriber(
	logger *logrus.Logger,
	filter rulefilter.Filter,
) infraCache.EventSubscriber[event.DenylistUpdatedEvent] {
	return &DenylistUpdatedEventSubscriber{
		logger: logger,
		filter: filter,
	}
}

func (s DenylistUpdatedEventSubscriber) OnEvent(_ context.Context, evt event.DenylistUpdatedEvent) error {
	if len(evt.Denylist) == 0 {
		s.logger.Warn("ignoring empty denylist update")
		return nil
	}
	if err := s.filter.Reload(evt.Denylist); err != nil {
		return fmt.Errorf("failed to reload denylist: %w", err)
	}
	return nil
}
