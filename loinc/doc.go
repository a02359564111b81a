// Package loinc reads the LOINC tabular exports.
//
// PartTable loads the Part.csv code-to-name lookup fully into memory;
// Source streams LoincTableCore.csv one row at a time, resolving part
// codes through the lookup with raw-code fallback. A required column
// missing from a header is fatal; rows with empty identifying fields are
// skipped and counted, never treated as errors.
package loinc
