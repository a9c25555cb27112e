package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Input-shape errors, fatal for the file being analyzed
	ErrEmptySeries      = errors.New("well series has no points")
	ErrNormalizedData   = errors.New("data is already normalized; raw cell index is required")
	ErrUnknownAssayType = errors.New("assay type not found in file name (expected CD19 or BCMA)")
	ErrMissingSheet     = errors.New("required sheet not found")
	ErrMissingColumn    = errors.New("required column not found")
	ErrUnknownSample    = errors.New("unknown sample")
)

// NewNotFoundError builds a not-found error carrying the resource id.
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// IsNotFoundError reports whether err is any not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports whether err rejects the input file itself.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptySeries) ||
		errors.Is(err, ErrNormalizedData) ||
		errors.Is(err, ErrUnknownAssayType) ||
		errors.Is(err, ErrMissingSheet) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrUnknownSample)
}
