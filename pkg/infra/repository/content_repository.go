package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trustlocal/scamguard/pkg/domain"
	"github.com/trustlocal/scamguard/pkg/domain/content"
)

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) content.Repository {
	return &contentRepository{
		db: db,
	}
}

func (r *contentRepository) ConfirmedScamReports(ctx context.Context) ([]content.ScamReport, error) {
	var reports []content.ScamReport
	err := r.db.WithContext(ctx).
		Where("confirmed = ?", true).
		Order("created_at desc").
		Find(&reports).Error
	if err != nil {
		return nil, upstreamErr("failed to fetch confirmed scam reports", err)
	}
	return reports, nil
}

func (r *contentRepository) SampleCleanListings(ctx context.Context, limit int) ([]content.Listing, error) {
	var listings []content.Listing
	err := r.db.WithContext(ctx).
		Where("reported = ?", false).
		Order("created_at desc").
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, upstreamErr("failed to sample clean listings", err)
	}
	return listings, nil
}

func (r *contentRepository) UnmoderatedListings(ctx context.Context) ([]content.Listing, error) {
	var listings []content.Listing
	err := r.db.WithContext(ctx).
		Where("moderated = ?", false).
		Order("created_at asc").
		Find(&listings).Error
	if err != nil {
		return nil, upstreamErr("failed to fetch unmoderated listings", err)
	}
	return listings, nil
}

func (r *contentRepository) UnmoderatedReviews(ctx context.Context) ([]content.Review, error) {
	var reviews []content.Review
	err := r.db.WithContext(ctx).
		Where("moderated = ?", false).
		Order("created_at asc").
		Find(&reviews).Error
	if err != nil {
		return nil, upstreamErr("failed to fetch unmoderated reviews", err)
	}
	return reviews, nil
}

func (r *contentRepository) MarkListingModerated(ctx context.Context, id uuid.UUID, status string) error {
	err := r.db.WithContext(ctx).
		Model(&content.Listing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"moderated":  true,
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return upstreamErr("failed to mark listing moderated", err)
	}
	return nil
}

func (r *contentRepository) MarkReviewModerated(ctx context.Context, id uuid.UUID, status string) error {
	err := r.db.WithContext(ctx).
		Model(&content.Review{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"moderated":  true,
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return upstreamErr("failed to mark review moderated", err)
	}
	return nil
}

func upstreamErr(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrUpstreamUnavailable, err)
}
