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


package webcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/loincvec/ingest"
)

const (
	defaultBaseURL    = "https://loinc.org"
	defaultUserAgent  = "loincvec/1.0"
	defaultDelay      = 500 * time.Millisecond
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// Fetcher downloads LOINC detail pages over a shared HTTP client.
type Fetcher struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	delay      time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	progress   io.Writer
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher) error

// WithBaseURL overrides the site base URL.
// Default is https://loinc.org.
func WithBaseURL(baseURL string) FetcherOption {
	return func(f *Fetcher) error {
		f.baseURL = strings.TrimSuffix(baseURL, "/")
		return nil
	}
}

// WithDelay sets the polite delay between successive fetches.
func WithDelay(delay time.Duration) FetcherOption {
	return func(f *Fetcher) error {
		if delay < 0 {
			return errors.New("webcache: delay cannot be negative")
		}
		f.delay = delay
		return nil
	}
}

// WithRetries sets the retry policy for a single fetch.
func WithRetries(maxRetries int, retryDelay time.Duration) FetcherOption {
	return func(f *Fetcher) error {
		if maxRetries <= 0 {
			return ingest.ErrInvalidMaxAttempts
		}
		f.maxRetries = maxRetries
		f.retryDelay = retryDelay
		return nil
	}
}

// WithFetcherLogger sets a custom logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// WithFetcherProgress sets the writer progress is reported to.
// Default is io.Discard.
func WithFetcherProgress(w io.Writer) FetcherOption {
	return func(f *Fetcher) error {
		if w == nil {
			w = io.Discard
		}
		f.progress = w
		return nil
	}
}

// NewFetcher creates a page fetcher.
func NewFetcher(opts ...FetcherOption) (*Fetcher, error) {
	f := &Fetcher{
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		delay:      defaultDelay,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
		progress:   io.Discard,
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Fetch downloads one code's detail page with bounded retries. Server
// errors and rate limiting are retried; other statuses are returned on
// the entry as-is so callers can decide what to cache.
func (f *Fetcher) Fetch(ctx context.Context, code string) (*Entry, error) {
	if code == "" {
		return nil, ErrEmptyCode
	}
	url := fmt.Sprintf("%s/%s", f.baseURL, code)

	var entry *Entry
	err := ingest.RetryWithBackoff(ctx, func() error {
		e, fetchErr := f.fetchOnce(ctx, code, url)
		if fetchErr != nil {
			return fetchErr
		}
		entry = e
		return nil
	}, f.maxRetries, f.retryDelay)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, code, url string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, &HTTPStatusError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Code:      code,
		URL:       url,
		FetchedAt: time.Now().UTC(),
		Status:    resp.StatusCode,
		Body:      string(body),
	}, nil
}

// FetchMany downloads every code not already cached, storing each page as
// it arrives. Already-cached codes are skipped, making an interrupted run
// cheap to repeat. Returns the number of pages fetched.
func (f *Fetcher) FetchMany(ctx context.Context, store *Store, codes []string) (int, error) {
	tracker := ingest.NewProgressTracker(f.progress, len(codes), 25)
	tracker.Start()
	defer tracker.Finish()

	fetched := 0
	for i, code := range codes {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		cached, err := store.Has(code)
		if err != nil {
			return fetched, err
		}
		if cached {
			tracker.Increment(1)
			continue
		}

		entry, err := f.Fetch(ctx, code)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fetched, err
			}
			f.logger.Warn("page fetch failed", "code", code, "err", err)
			tracker.Increment(1)
			continue
		}
		if err := store.Put(entry); err != nil {
			return fetched, err
		}
		fetched++
		tracker.Increment(1)

		if f.delay > 0 && i < len(codes)-1 {
			timer := time.NewTimer(f.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fetched, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return fetched, nil
}
