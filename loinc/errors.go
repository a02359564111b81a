package loinc

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTable is returned when a table has no header row.
	ErrEmptyTable = errors.New("table has no header row")

	// ErrPartTableRequired is returned when a source is built without a part table.
	ErrPartTableRequired = errors.New("part table required")
)

// MissingColumnError indicates a required column is absent from a table's
// header row. The schema assumption is violated, so the run cannot proceed.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s table: required column %q missing from header", e.Table, e.Column)
}
