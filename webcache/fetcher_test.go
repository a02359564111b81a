package webcache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, baseURL string) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(
		WithBaseURL(baseURL),
		WithDelay(0),
		WithRetries(3, time.Millisecond),
	)
	require.NoError(t, err)
	return fetcher
}

func TestFetcher_Fetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprintf(w, "<html>%s</html>", r.URL.Path)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	entry, err := fetcher.Fetch(context.Background(), "8867-4")
	require.NoError(t, err)

	assert.Equal(t, "8867-4", entry.Code)
	assert.Equal(t, server.URL+"/8867-4", entry.URL)
	assert.Equal(t, http.StatusOK, entry.Status)
	assert.Equal(t, "<html>/8867-4</html>", entry.Body)
	assert.False(t, entry.FetchedAt.IsZero())
	assert.Equal(t, "loincvec/1.0", gotUA)
}

func TestFetcher_Fetch_EmptyCode(t *testing.T) {
	fetcher := newTestFetcher(t, "http://localhost")

	_, err := fetcher.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyCode)
}

func TestFetcher_Fetch_RetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	entry, err := fetcher.Fetch(context.Background(), "2160-0")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, entry.Status)
	assert.Equal(t, 3, calls)
}

func TestFetcher_Fetch_NotFoundIsNotRetried(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "missing")
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	entry, err := fetcher.Fetch(context.Background(), "9999-9")
	require.NoError(t, err, "client errors are returned on the entry, not retried")
	assert.Equal(t, http.StatusNotFound, entry.Status)
	assert.Equal(t, 1, calls)
}

func TestFetcher_Fetch_Exhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	_, err := fetcher.Fetch(context.Background(), "8867-4")
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
}

func TestFetcher_FetchMany_SkipsCached(t *testing.T) {
	var mu sync.Mutex
	fetched := make(map[string]int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fetched[r.URL.Path]++
		mu.Unlock()
		fmt.Fprint(w, "page")
	}))
	defer server.Close()

	store := setupTestStore(t)
	require.NoError(t, store.Put(testEntry("8867-4")))

	fetcher := newTestFetcher(t, server.URL)

	n, err := fetcher.FetchMany(context.Background(), store, []string{"8867-4", "2160-0", "2951-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Zero(t, fetched["/8867-4"], "cached codes are not refetched")
	assert.Equal(t, 1, fetched["/2160-0"])
	assert.Equal(t, 1, fetched["/2951-2"])

	total, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestFetcher_FetchMany_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "page")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := setupTestStore(t)
	fetcher := newTestFetcher(t, server.URL)

	n, err := fetcher.FetchMany(ctx, store, []string{"8867-4"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}
