package core

import "fmt"

// Validate checks that the term carries everything the pipeline needs to
// build an index point. Rows failing validation are skipped by the source,
// never ingested.
func (t *Term) Validate() error {
	if t.Code == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTerm, ErrEmptyCode)
	}
	if t.LongCommonName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTerm, ErrEmptyName)
	}
	if t.Component == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTerm, ErrEmptyComponent)
	}
	return nil
}

// Validate checks that the point is committable.
func (p *Point) Validate() error {
	if len(p.Vector) == 0 {
		return ErrEmptyVector
	}
	return nil
}
