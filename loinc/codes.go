package loinc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadCodes extracts the LOINC_NUM column from a core table export.
// Blank codes are dropped; order follows the file.
func ReadCodes(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}
		return nil, fmt.Errorf("reading core table header: %w", err)
	}

	codeIdx := -1
	for i, col := range header {
		if col == "LOINC_NUM" {
			codeIdx = i
			break
		}
	}
	if codeIdx < 0 {
		return nil, &MissingColumnError{Table: "core", Column: "LOINC_NUM"}
	}

	var codes []string
	for {
		row, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading core table: %w", err)
		}
		if codeIdx >= len(row) {
			continue
		}
		code := strings.TrimSpace(row[codeIdx])
		if code == "" {
			continue
		}
		codes = append(codes, code)
	}
	return codes, nil
}
