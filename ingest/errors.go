package ingest

import (
	"errors"
	"fmt"

	"github.com/poiesic/loincvec/core"
)

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrSourceRequired is returned when a pipeline is built without a source.
	ErrSourceRequired = errors.New("term source required")

	// ErrEmbedderRequired is returned when a pipeline is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrStoreRequired is returned when a pipeline is built without an index store.
	ErrStoreRequired = errors.New("index store required")
)

// EmbeddingUnavailableError reports a record whose embedding could not be
// generated after exhausting retries. It is recorded against the run, not
// silently dropped, and does not stop the stream.
type EmbeddingUnavailableError struct {
	Id   core.ID
	Code string
	Err  error
}

func (e *EmbeddingUnavailableError) Error() string {
	return fmt.Sprintf("embedding unavailable for %s (point %d): %v", e.Code, e.Id, e.Err)
}

func (e *EmbeddingUnavailableError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError reports an embedding whose length differs from the
// collection's configured dimensionality. This is a model/configuration
// mismatch affecting every record, so it aborts the run.
type DimensionMismatchError struct {
	Code string
	Want uint64
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding for %s has %d dimensions, collection expects %d", e.Code, e.Got, e.Want)
}

// BatchCommitError reports a batch whose commit failed after exhausting
// retries. Ids lists every point in the failed batch so the range can be
// reprocessed. Subsequent batches still run.
type BatchCommitError struct {
	Ids []core.ID
	Err error
}

func (e *BatchCommitError) Error() string {
	return fmt.Sprintf("batch of %d points failed to commit: %v", len(e.Ids), e.Err)
}

func (e *BatchCommitError) Unwrap() error {
	return e.Err
}
