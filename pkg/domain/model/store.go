package model

import (
	"context"
)

//go:generate mockery --name=Store --dir=. --output=./mocks --filename=artifact_store_mock.go --case=underscore --with-expecter

// Store persists versioned model artifacts. Save must be atomic: a
// concurrent Load never observes a partially written artifact, and the
// latest pointer only moves after the artifact is fully durable.
type Store interface {
	Save(ctx context.Context, artifact *Artifact) error
	Load(ctx context.Context, version string) (*Artifact, error)
	// Versions returns known version ids ordered most recent first.
	Versions(ctx context.Context) ([]string, error)
	LatestVersion(ctx context.Context) (string, error)
}
