// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/loincvec/core"
	"github.com/poiesic/loincvec/index"
)

const (
	// DefaultBatchSize is the default number of points per upsert.
	DefaultBatchSize = 100
)

// BatchWriter accumulates index points into fixed-size batches and commits
// each batch with a single acknowledged upsert. A commit is all-or-nothing:
// on failure the whole batch is retried with the same point identifiers
// (the store's upsert-by-ID semantics make the retry idempotent), and
// exhausting retries records a *BatchCommitError without stopping later
// batches.
//
// BatchWriter is the pipeline's single serialization point: exactly one
// goroutine may call Push and Flush.
type BatchWriter struct {
	store      index.Store
	collection string
	capacity   int
	maxRetries int
	retryDelay time.Duration
	open       []*core.Point
	committed  int
	failed     []*BatchCommitError
	logger     *slog.Logger
}

// NewBatchWriter creates a batch writer committing to the named collection.
func NewBatchWriter(store index.Store, collection string, capacity, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *BatchWriter {
	if capacity <= 0 {
		capacity = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchWriter{
		store:      store,
		collection: collection,
		capacity:   capacity,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger.With("component", "batch-writer"),
	}
}

// Push appends a point to the open batch, committing once the batch is full.
// The returned error is non-nil only for context cancellation; commit
// failures are recorded and reported via Failed.
func (w *BatchWriter) Push(ctx context.Context, p *core.Point) error {
	w.open = append(w.open, p)
	if len(w.open) >= w.capacity {
		return w.commit(ctx, w.open[:w.capacity])
	}
	return nil
}

// Flush commits everything still open, in capacity-sized batches. Called at
// stream end and on cancellation so no accumulated point is lost.
func (w *BatchWriter) Flush(ctx context.Context) error {
	for len(w.open) > 0 {
		batch := w.open
		if len(batch) > w.capacity {
			batch = batch[:w.capacity]
		}
		if err := w.commit(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// commit upserts one sealed batch with bounded retries. When the caller's
// context dies the batch stays open so a later Flush with a live context can
// retry it; on retry exhaustion the batch is recorded as failed and dropped.
// A store error that merely wraps a deadline is an exhausted failure like any
// other, not a reason to keep the batch open.
func (w *BatchWriter) commit(ctx context.Context, batch []*core.Point) error {
	err := RetryWithBackoff(ctx, func() error {
		return w.store.Upsert(ctx, w.collection, batch, true)
	}, w.maxRetries, w.retryDelay)

	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		ids := make([]core.ID, len(batch))
		for i, p := range batch {
			ids[i] = p.Id
		}
		w.failed = append(w.failed, &BatchCommitError{Ids: ids, Err: err})
		w.open = w.open[len(batch):]
		w.logger.Error("batch commit failed after retries", "points", len(ids), "err", err)
		return nil
	}

	w.open = w.open[len(batch):]
	w.committed += len(batch)
	w.logger.Debug("batch committed", "points", len(batch), "total", w.committed)
	return nil
}

// Committed returns the number of points acknowledged by the store.
func (w *BatchWriter) Committed() int {
	return w.committed
}

// Open returns the number of points accumulated but not yet committed.
func (w *BatchWriter) Open() int {
	return len(w.open)
}

// Failed returns the commit failures recorded so far.
func (w *BatchWriter) Failed() []*BatchCommitError {
	return w.failed
}
