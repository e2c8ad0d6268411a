package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/content"
)

// SweepReport counts what one moderation sweep did.
type SweepReport struct {
	ListingsChecked int
	ListingsFlagged int
	ReviewsChecked  int
	ReviewsFlagged  int
	Failures        int
}

// DailyRunner sweeps unmoderated listings and reviews through the
// moderator and writes the resulting review state back to the content
// store. One failing record does not stop the sweep.
type DailyRunner struct {
	logger    *logrus.Logger
	repo      content.Repository
	moderator Moderator
	threshold float64
}

func NewDailyRunner(logger *logrus.Logger, repo content.Repository, moderator Moderator, threshold float64) *DailyRunner {
	return &DailyRunner{
		logger:    logger,
		repo:      repo,
		moderator: moderator,
		threshold: threshold,
	}
}

func (r *DailyRunner) Run(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}

	listings, err := r.repo.UnmoderatedListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unmoderated listings: %w", err)
	}
	for i := range listings {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r.moderateListing(ctx, &listings[i], report)
	}

	reviews, err := r.repo.UnmoderatedReviews(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch unmoderated reviews: %w", err)
	}
	for i := range reviews {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r.moderateReview(ctx, &reviews[i], report)
	}

	r.logger.WithFields(logrus.Fields{
		"listings_checked": report.ListingsChecked,
		"listings_flagged": report.ListingsFlagged,
		"reviews_checked":  report.ReviewsChecked,
		"reviews_flagged":  report.ReviewsFlagged,
		"failures":         report.Failures,
	}).Info("moderation sweep finished")
	return report, nil
}

func (r *DailyRunner) moderateListing(ctx context.Context, listing *content.Listing, report *SweepReport) {
	report.ListingsChecked++

	verdict, err := r.moderator.Moderate(ctx, listing.Text(), r.threshold)
	if err != nil {
		// no model yet: leave the listing for the next sweep
		if errors.Is(err, domain.ErrNotFitted) {
			r.logger.WithError(err).Warn("skipping listing, no active model")
			return
		}
		report.Failures++
		r.logger.WithError(err).WithField("listing_id", listing.ID).Error("failed to moderate listing")
		return
	}

	status := content.StatusApproved
	if !verdict.Allowed {
		status = content.StatusUnderReview
		report.ListingsFlagged++
		r.logger.WithFields(logrus.Fields{
			"listing_id": listing.ID,
			"reason":     verdict.Reason,
		}).Warn("listing flagged for review")
	}
	if err := r.repo.MarkListingModerated(ctx, listing.ID, status); err != nil {
		report.Failures++
		r.logger.WithError(err).WithField("listing_id", listing.ID).Error("failed to mark listing moderated")
	}
}

func (r *DailyRunner) moderateReview(ctx context.Context, review *content.Review, report *SweepReport) {
	report.ReviewsChecked++

	verdict, err := r.moderator.Moderate(ctx, review.Content, r.threshold)
	if err != nil {
		if errors.Is(err, domain.ErrNotFitted) {
			r.logger.WithError(err).Warn("skipping review, no active model")
			return
		}
		report.Failures++
		r.logger.WithError(err).WithField("review_id", review.ID).Error("failed to moderate review")
		return
	}

	status := content.StatusApproved
	if !verdict.Allowed {
		status = content.StatusRemoved
		report.ReviewsFlagged++
		r.logger.WithFields(logrus.Fields{
			"review_id": review.ID,
			"reason":    verdict.Reason,
		}).Warn("review removed")
	}
	if err := r.repo.MarkReviewModerated(ctx, review.ID, status); err != nil {
		report.Failures++
		r.logger.WithError(err).WithField("review_id", review.ID).Error("failed to mark review moderated")
	}
}
