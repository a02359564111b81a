package webcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no cached entry exists for the code.
	ErrNotFound = errors.New("entry not found")

	// ErrEmptyCode indicates an empty LOINC code was supplied.
	ErrEmptyCode = errors.New("code cannot be empty")
)

// HTTPStatusError indicates the server answered with a retryable status.
type HTTPStatusError struct {
	URL    string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.Status)
}
