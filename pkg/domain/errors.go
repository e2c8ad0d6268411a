package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned when encoding or prediction is attempted
	// before any model version has been trained or activated.
	ErrNotFitted = errors.New("model is not fitted")

	// ErrInsufficientData signals that a retrain was skipped because the
	// labeled corpus is too small to produce a usable model.
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrUpstreamUnavailable wraps content or artifact store failures.
	// Callers apply their own retry policy; this package attempts each
	// upstream call exactly once.
	ErrUpstreamUnavailable = errors.New("upstream store unavailable")
)

type corruptArtifactError struct {
	Version string
	Detail  string
}

func (e *corruptArtifactError) Error() string {
	return fmt.Sprintf("corrupt model artifact '%s': %s", e.Version, e.Detail)
}

func NewCorruptArtifactError(version, detail string) error {
	return &corruptArtifactError{
		Version: version,
		Detail:  detail,
	}
}

func IsCorruptArtifactError(err error) bool {
	if err == nil {
		return false
	}
	var corruptErr *corruptArtifactError
	return errors.As(err, &corruptErr)
}
