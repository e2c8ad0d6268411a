package moderation

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/trustlocal/scamguard/pkg/domain"
	domainModeration "github.com/trustlocal/scamguard/pkg/domain/moderation"
	"github.com/trustlocal/scamguard/pkg/infra/prometheus"
	"github.com/trustlocal/scamguard/pkg/moderation/rulefilter"
)

// DefaultThreshold is the scam-score cutoff used when a caller has no
// risk tolerance of its own.
const DefaultThreshold = 0.7

//go:generate mockery --name=Moderator --dir=. --output=./mocks --filename=moderator_mock.go --case=underscore --with-expecter

type Moderator interface {
	Moderate(ctx context.Context, text string, threshold float64) (*domainModeration.Verdict, error)
}

type moderator struct {
	logger     *logrus.Logger
	ruleFilter rulefilter.Filter
	models     *Holder
}

func NewModerator(logger *logrus.Logger, ruleFilter rulefilter.Filter, models *Holder) Moderator {
	return &moderator{
		logger:     logger,
		ruleFilter: ruleFilter,
		models:     models,
	}
}

// Moderate runs the decision chain: rule filter first, classifier only
// if the rules pass. The active model is read at call time, so a
// publish by a background retrain is observed by the next call without
// reconstructing the moderator.
func (m *moderator) Moderate(ctx context.Context, text string, threshold float64) (*domainModeration.Verdict, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if category, term, matched := m.ruleFilter.Match(text); matched {
		m.logger.WithFields(logrus.Fields{
			"category": category,
			"term":     term,
		}).Warn("content blocked by rule filter")
		prometheus.VerdictTotal.WithLabelValues(string(domainModeration.ReasonRuleBlocked)).Inc()
		return &domainModeration.Verdict{
			PassedRuleFilter: false,
			Allowed:          false,
			Reason:           domainModeration.ReasonRuleBlocked,
		}, nil
	}

	active := m.models.Current()
	if active == nil {
		return nil, fmt.Errorf("no active model version: %w", domain.ErrNotFitted)
	}

	seq, err := active.Encoder.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}
	score := active.Predictor.Predict(seq)
	prometheus.ScamScore.Observe(score)

	verdict := &domainModeration.Verdict{
		PassedRuleFilter: true,
		ScamScore:        &score,
		Allowed:          score <= threshold,
		Reason:           domainModeration.ReasonAllowed,
		ModelVersion:     active.Version,
	}
	if !verdict.Allowed {
		verdict.Reason = domainModeration.ReasonModelBlocked
		m.logger.WithFields(logrus.Fields{
			"scam_score":    score,
			"threshold":     threshold,
			"model_version": active.Version,
		}).Warn("content blocked by classifier")
	}
	prometheus.VerdictTotal.WithLabelValues(string(verdict.Reason)).Inc()
	return verdict, nil
}
