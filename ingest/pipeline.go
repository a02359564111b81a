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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/loincvec/ai"
	"github.com/poiesic/loincvec/core"
	"github.com/poiesic/loincvec/index"
	"github.com/poiesic/loincvec/loinc"
)

// State identifies the pipeline's position in its run.
type State int32

const (
	StatePending State = iota
	StateFetching
	StateEmbedding
	StateCommitting
	StateCompleted
	StateCompletedWithErrors
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateFetching:
		return "Fetching"
	case StateEmbedding:
		return "Embedding"
	case StateCommitting:
		return "Committing"
	case StateCompleted:
		return "Completed"
	case StateCompletedWithErrors:
		return "CompletedWithErrors"
	case StateAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config holds configuration for an ingestion run.
type Config struct {
	// Collection is the destination collection name.
	Collection string

	// Dimensions is the collection's vector length. Every embedding must
	// match it exactly.
	Dimensions uint64

	// Distance is the collection's similarity metric.
	Distance index.Distance

	// BatchSize is the number of points per upsert.
	BatchSize int

	// PoolSize is the number of concurrent embedding workers.
	PoolSize int

	// Offset skips the first N source rows, resuming a run whose first N
	// positions were already committed.
	Offset int

	// MaxRetries is the attempt ceiling for embedding and commit calls.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// ReportInterval is how often to report progress (number of records).
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Collection:     "loinc",
		Dimensions:     768,
		Distance:       index.DistanceCosine,
		BatchSize:      DefaultBatchSize,
		PoolSize:       4,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		ReportInterval: 100,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := (index.CollectionSpec{Name: c.Collection, Dimensions: c.Dimensions, Distance: c.Distance}).Validate(); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return errors.New("ingest config: BatchSize must be greater than 0")
	}
	if c.PoolSize <= 0 {
		return errors.New("ingest config: PoolSize must be greater than 0")
	}
	if c.Offset < 0 {
		return errors.New("ingest config: Offset cannot be negative")
	}
	if c.MaxRetries <= 0 {
		return errors.New("ingest config: MaxRetries must be greater than 0")
	}
	if c.ReportInterval <= 0 {
		return errors.New("ingest config: ReportInterval must be greater than 0")
	}
	return nil
}

// Summary aggregates the outcome of an ingestion run.
type Summary struct {
	State            string     `json:"state"`
	Read             int        `json:"records_read"`
	Skipped          int        `json:"records_skipped"`
	Embedded         int        `json:"embeddings_generated"`
	Committed        int        `json:"points_committed"`
	FailedEmbeddings []string   `json:"failed_embeddings,omitempty"`
	FailedBatches    [][]uint64 `json:"failed_batches,omitempty"`
	Elapsed          string     `json:"elapsed"`
}

// Pipeline drives one ingestion run: ensure the collection, stream terms
// from the source, fan embedding calls out over a bounded worker pool,
// drain completions back into source order, and commit points in batches.
type Pipeline struct {
	source   *loinc.Source
	embedder ai.Embedder
	store    index.Store
	config   *Config
	pool     *ants.Pool
	logger   *slog.Logger
	progress io.Writer
	state    atomic.Int32
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithProgress sets the writer progress is reported to.
// Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		if w == nil {
			w = io.Discard
		}
		p.progress = w
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(source *loinc.Source, embedder ai.Embedder, store index.Store, config *Config, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(config.PoolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		source:   source,
		embedder: embedder,
		store:    store,
		config:   config,
		pool:     pool,
		logger:   slog.Default(),
		progress: io.Discard,
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			pool.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// State returns the pipeline's current state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.pool.Release()
}

// result carries one completed embedding back to the drain. seq is the
// submission order; completions arrive out of order across the pool.
type result struct {
	seq  int
	term *core.Term
	vec  []float32
	err  error
}

// Run executes one ingestion run and always returns a Summary, even on
// abort. The returned error is non-nil only for fatal conditions and
// cancellation; per-record and per-batch failures are reported on the
// Summary instead.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}
	finish := func(s State, err error) (*Summary, error) {
		p.setState(s)
		summary.State = s.String()
		summary.Elapsed = time.Since(start).Round(time.Millisecond).String()
		return summary, err
	}

	p.setState(StatePending)

	spec := index.CollectionSpec{
		Name:       p.config.Collection,
		Dimensions: p.config.Dimensions,
		Distance:   p.config.Distance,
	}
	if err := p.store.EnsureCollection(ctx, spec); err != nil {
		return finish(StateAborted, err)
	}

	p.setState(StateFetching)
	if err := p.skipOffset(); err != nil {
		return finish(StateAborted, err)
	}

	writer := NewBatchWriter(p.store, p.config.Collection, p.config.BatchSize,
		p.config.MaxRetries, p.config.RetryDelay, p.logger)
	tracker := NewProgressTracker(p.progress, 0, p.config.ReportInterval)
	tracker.Start()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var fatalMu sync.Mutex
	var fatalErr error
	abort := func(err error) {
		fatalMu.Lock()
		if fatalErr == nil {
			fatalErr = err
		}
		fatalMu.Unlock()
		cancel()
	}

	results := make(chan result, p.config.PoolSize*2)

	// Drain goroutine: the single mutator of the batch writer. Completions
	// are buffered by sequence number and pushed in source order, so the
	// point stream into the index is deterministic even though the pool
	// finishes embeddings out of order.
	var embedded int
	var failedEmbeds []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		pending := make(map[int]result)
		next := 0
		aborted := false
		for r := range results {
			pending[r.seq] = r
			for {
				cur, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++

				if aborted {
					continue
				}
				if cur.err != nil {
					var dim *DimensionMismatchError
					if errors.As(cur.err, &dim) {
						abort(cur.err)
						aborted = true
						continue
					}
					var unavailable *EmbeddingUnavailableError
					if errors.As(cur.err, &unavailable) {
						failedEmbeds = append(failedEmbeds, unavailable.Code)
						p.logger.Warn("record failed embedding", "code", unavailable.Code, "err", unavailable.Err)
					}
					// A bare context error means the run was cancelled
					// mid-retry; the record is neither committed nor failed.
					continue
				}

				embedded++
				point := &core.Point{
					Id:      cur.term.ID(),
					Vector:  cur.vec,
					Payload: cur.term.Payload(),
				}
				if err := writer.Push(runCtx, point); err != nil {
					// Cancelled mid-commit; points stay open for the final
					// flush below.
					p.logger.Debug("commit deferred to final flush", "err", err)
				}
				tracker.Increment(1)
			}
		}
	}()

	p.setState(StateEmbedding)
	var wg sync.WaitGroup
	read := 0
	seq := 0
readLoop:
	for {
		select {
		case <-runCtx.Done():
			break readLoop
		default:
		}

		term, err := p.source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			abort(err)
			break
		}
		read++

		s, t := seq, term
		seq++
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			vec, embedErr := p.embed(runCtx, t)
			results <- result{seq: s, term: t, vec: vec, err: embedErr}
		}); err != nil {
			wg.Done()
			abort(fmt.Errorf("submitting embedding work: %w", err))
			break
		}
	}

	wg.Wait()
	close(results)
	<-done
	tracker.Finish()

	summary.Read = read
	summary.Skipped = p.source.Skipped()
	summary.Embedded = embedded
	summary.FailedEmbeddings = failedEmbeds

	fatalMu.Lock()
	fatal := fatalErr
	fatalMu.Unlock()

	if fatal == nil {
		// Commit whatever is still open, surviving cancellation of the run
		// context so an interrupted run loses no computed embeddings.
		p.setState(StateCommitting)
		flushCtx, flushCancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
		if err := writer.Flush(flushCtx); err != nil {
			p.logger.Error("final flush failed", "err", err)
		}
		flushCancel()
	}

	summary.Committed = writer.Committed()
	for _, f := range writer.Failed() {
		ids := make([]uint64, len(f.Ids))
		for i, id := range f.Ids {
			ids[i] = uint64(id)
		}
		summary.FailedBatches = append(summary.FailedBatches, ids)
	}

	if fatal != nil {
		return finish(StateAborted, fatal)
	}
	if err := ctx.Err(); err != nil {
		return finish(StateAborted, err)
	}
	if len(summary.FailedEmbeddings) > 0 || len(summary.FailedBatches) > 0 {
		return finish(StateCompletedWithErrors, nil)
	}
	return finish(StateCompleted, nil)
}

// skipOffset discards the first Offset source rows. Used to resume a run
// whose leading positions were already committed; the source stays
// positionally aligned with the original run.
func (p *Pipeline) skipOffset() error {
	for skipped := 0; skipped < p.config.Offset; skipped++ {
		if _, err := p.source.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
	if p.config.Offset > 0 {
		p.logger.Info("resuming from offset", "offset", p.config.Offset)
	}
	return nil
}

// embed generates one record's embedding with bounded retries and validates
// its dimensionality. In-flight calls survive run cancellation (the adapter
// bounds them with its own per-call timeout); only retries stop.
func (p *Pipeline) embed(ctx context.Context, term *core.Term) ([]float32, error) {
	callCtx := context.WithoutCancel(ctx)

	var vec []float32
	err := RetryWithBackoff(ctx, func() error {
		v, embedErr := p.embedder.EmbedText(callCtx, term.Text())
		if embedErr != nil {
			return embedErr
		}
		vec = v
		return nil
	}, p.config.MaxRetries, p.config.RetryDelay)

	if err != nil {
		// RetryWithBackoff surfaces the run context's error when the run
		// dies between attempts; that is the only error not attributed to
		// the record. Everything else, including a per-call timeout from a
		// hung service, is the last attempt's failure and must be reported
		// against the record rather than dropped.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &EmbeddingUnavailableError{Id: term.ID(), Code: term.Code, Err: err}
	}

	if uint64(len(vec)) != p.config.Dimensions {
		return nil, &DimensionMismatchError{Code: term.Code, Want: p.config.Dimensions, Got: len(vec)}
	}
	return vec, nil
}
