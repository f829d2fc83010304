package data

import apperrors "github.com/MrCreosote/user-and-job-state/internal/errors"

// Shared sentinel errors for data-layer repositories. They are AppErrors so
// callers can classify them with the errors package predicates.
var (
	// ErrJobNotFound is returned when no job row matches a read predicate.
	ErrJobNotFound = apperrors.NotFound("job not found")
	// ErrInvalidBatchSize is returned by reaper deletes given a non-positive batch size.
	ErrInvalidBatchSize = apperrors.Validation("batch size must be greater than zero")
	// ErrInvalidMaxAge is returned by reaper deletes given a non-positive age.
	ErrInvalidMaxAge = apperrors.Validation("max age must be greater than zero")
)
