package domain

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrCorpusIntegrity = errors.New("corpus integrity violation")
	ErrArtifactStale   = errors.New("index artifact missing or stale")
	ErrIndexNotReady   = errors.New("search index not ready")
	ErrTemporary       = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
