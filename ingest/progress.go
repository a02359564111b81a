package ingest

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes a periodic one-line report for a long run. With a
// known total it includes a percentage; with a total of zero (streaming
// input) it reports only the running count. Methods are safe for concurrent
// use, and calls before Start are no-ops.
type ProgressTracker struct {
	mu       sync.Mutex
	w        io.Writer
	total    int
	interval int
	count    int
	reported int
	began    time.Time
}

// NewProgressTracker returns a tracker writing to w every interval records.
// A total of zero means the record count is unknown up front.
func NewProgressTracker(w io.Writer, total, interval int) *ProgressTracker {
	return &ProgressTracker{w: w, total: total, interval: interval}
}

// Start resets the tracker and begins timing.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.began = time.Now()
	p.count = 0
	p.reported = 0
}

// Increment advances the count by delta, emitting a report once a full
// interval has accumulated since the last one.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return
	}
	p.count += delta
	if p.total > 0 && p.count > p.total {
		p.count = p.total
	}
	if p.count-p.reported >= p.interval {
		p.emit()
		p.reported = p.count
	}
}

// Finish writes a final report and terminates the line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return
	}
	p.emit()
	fmt.Fprintln(p.w)
}

// Elapsed reports how long the tracker has been running.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return 0
	}
	return time.Since(p.began)
}

// Count returns the records counted so far.
func (p *ProgressTracker) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// emit writes one progress line. Callers hold mu.
func (p *ProgressTracker) emit() {
	rate := 0.0
	if secs := time.Since(p.began).Seconds(); secs > 0 {
		rate = float64(p.count) / secs
	}
	if p.total > 0 {
		pct := float64(p.count) / float64(p.total) * 100.0
		fmt.Fprintf(p.w, "\rProgress: %d/%d (%.1f%%) - %.1f records/s", p.count, p.total, pct, rate)
		return
	}
	fmt.Fprintf(p.w, "\rProgress: %d records - %.1f records/s", p.count, rate)
}
