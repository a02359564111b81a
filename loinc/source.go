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


package loinc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/loincvec/core"
)

// Columns the core table must carry. A header missing any of these is a
// fatal schema violation.
var requiredColumns = []string{
	"LOINC_NUM",
	"COMPONENT",
	"PROPERTY",
	"TIME_ASPCT",
	"SYSTEM",
	"SCALE_TYP",
	"METHOD_TYP",
	"CLASS",
	"LONG_COMMON_NAME",
}

// Source lazily reads LoincTableCore.csv, resolving part codes through a
// PartTable as terms are pulled. One Next call reads one raw row.
type Source struct {
	reader  *csv.Reader
	parts   *PartTable
	columns map[string]int
	pos     int
	skipped int
	logger  *slog.Logger
}

// NewSource validates the header of the core table and returns a source
// ready to stream terms. A required column missing from the header fails
// immediately with a *MissingColumnError.
func NewSource(r io.Reader, parts *PartTable, logger *slog.Logger) (*Source, error) {
	if parts == nil {
		return nil, ErrPartTableRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}
		return nil, fmt.Errorf("reading core table header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[col] = i
	}
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, &MissingColumnError{Table: "core", Column: col}
		}
	}

	return &Source{
		reader:  cr,
		parts:   parts,
		columns: columns,
		logger:  logger.With("component", "loinc-source"),
	}, nil
}

// Next returns the next resolved term, or io.EOF once the table is
// exhausted. Rows missing a code, long common name, or component carry
// nothing worth embedding; they are skipped and logged, never surfaced as
// errors.
func (s *Source) Next() (*core.Term, error) {
	for {
		row, err := s.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading core table row %d: %w", s.pos, err)
		}

		pos := s.pos
		s.pos++

		term := &core.Term{
			Position:       pos,
			Code:           strings.TrimSpace(s.field(row, "LOINC_NUM")),
			LongCommonName: s.field(row, "LONG_COMMON_NAME"),
			Component:      s.field(row, "COMPONENT"),
			Property:       s.parts.Resolve(s.field(row, "PROPERTY")),
			TimeAspect:     s.parts.Resolve(s.field(row, "TIME_ASPCT")),
			System:         s.parts.Resolve(s.field(row, "SYSTEM")),
			Scale:          s.parts.Resolve(s.field(row, "SCALE_TYP")),
			Method:         s.parts.Resolve(s.field(row, "METHOD_TYP")),
			Class:          s.field(row, "CLASS"),
			ShortName:      s.field(row, "SHORTNAME"),
			Status:         s.field(row, "STATUS"),
			Copyright:      s.field(row, "EXTERNAL_COPYRIGHT_NOTICE"),
		}

		if err := term.Validate(); err != nil {
			s.skipped++
			s.logger.Warn("skipping row", "position", pos, "code", term.Code, "reason", err)
			continue
		}

		return term, nil
	}
}

// Position returns the number of raw rows read so far.
func (s *Source) Position() int {
	return s.pos
}

// Skipped returns the number of rows dropped for missing fields.
func (s *Source) Skipped() int {
	return s.skipped
}

// field returns the row value for a column, or "" when the column is absent
// or the row is short.
func (s *Source) field(row []string, column string) string {
	i, ok := s.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
