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
)

const (
	partNumberColumn = "PartNumber"
	partNameColumn   = "PartName"
)

// PartTable maps LOINC part numbers to display names.
// It is loaded once before processing begins and is immutable afterwards,
// so it is safe for unsynchronized concurrent readers.
type PartTable struct {
	names map[string]string
}

// LoadPartTable reads a Part.csv export fully into memory.
// The header must contain the PartNumber and PartName columns.
func LoadPartTable(r io.Reader) (*PartTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}
		return nil, fmt.Errorf("reading part table header: %w", err)
	}

	numIdx, nameIdx := -1, -1
	for i, col := range header {
		switch col {
		case partNumberColumn:
			numIdx = i
		case partNameColumn:
			nameIdx = i
		}
	}
	if numIdx < 0 {
		return nil, &MissingColumnError{Table: "part", Column: partNumberColumn}
	}
	if nameIdx < 0 {
		return nil, &MissingColumnError{Table: "part", Column: partNameColumn}
	}

	names := make(map[string]string)
	for {
		row, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading part table: %w", err)
		}
		if numIdx >= len(row) || nameIdx >= len(row) {
			continue
		}
		if row[numIdx] == "" {
			continue
		}
		names[row[numIdx]] = row[nameIdx]
	}

	return &PartTable{names: names}, nil
}

// Resolve returns the display name for a part code. A code with no entry
// (or an empty name) resolves to the raw code itself, never to an empty
// string and never to an error.
func (p *PartTable) Resolve(code string) string {
	if name, ok := p.names[code]; ok && name != "" {
		return name
	}
	return code
}

// Len returns the number of loaded part entries.
func (p *PartTable) Len() int {
	return len(p.names)
}
