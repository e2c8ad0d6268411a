package content

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=content_repository_mock.go --case=underscore --with-expecter

// Repository is the capability the moderation core needs from the
// content store. Implementations attempt each call once; retry policy
// belongs to the caller.
type Repository interface {
	ConfirmedScamReports(ctx context.Context) ([]ScamReport, error)
	SampleCleanListings(ctx context.Context, limit int) ([]Listing, error)
	UnmoderatedListings(ctx context.Context) ([]Listing, error)
	UnmoderatedReviews(ctx context.Context) ([]Review, error)
	MarkListingModerated(ctx context.Context, id uuid.UUID, status string) error
	MarkReviewModerated(ctx context.Context, id uuid.UUID, status string) error
}
