package index

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCollectionName indicates a spec without a collection name.
	ErrEmptyCollectionName = errors.New("collection name cannot be empty")

	// ErrZeroDimensions indicates a spec without a dimensionality.
	ErrZeroDimensions = errors.New("collection dimensions must be greater than 0")

	// ErrUnknownDistance indicates an unrecognized distance metric name.
	ErrUnknownDistance = errors.New("unknown distance metric")
)

// ConfigConflictError indicates the destination collection already exists
// with a configuration that differs from the requested one. Ingestion must
// not proceed: silently recreating the collection would destroy its points.
type ConfigConflictError struct {
	Requested CollectionSpec
	Existing  CollectionSpec
}

func (e *ConfigConflictError) Error() string {
	return fmt.Sprintf(
		"collection %q exists with conflicting configuration: have %d/%s, want %d/%s",
		e.Requested.Name,
		e.Existing.Dimensions, e.Existing.Distance,
		e.Requested.Dimensions, e.Requested.Distance)
}
