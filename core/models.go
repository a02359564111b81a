package core

import (
	"encoding/binary"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for index points.
// It is derived from the LOINC code rather than the row position, so a rerun
// over the same dataset addresses the same points in any row order.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Term is one LOINC record with its part codes resolved to display names.
// A part code with no lookup entry keeps the raw code as its resolved value.
type Term struct {
	Position       int    // zero-based row position in the source table
	Code           string // LOINC_NUM
	LongCommonName string
	Component      string
	Property       string
	TimeAspect     string
	System         string
	Scale          string
	Method         string
	Class          string

	// Optional columns, present in the full LoincTableCore export.
	ShortName string
	Status    string
	Copyright string
}

// ID returns the term's index point identifier.
func (t *Term) ID() ID {
	return IDFromContent(t.Code)
}

// Text renders the descriptive sentence submitted to the embedding model.
func (t *Term) Text() string {
	return fmt.Sprintf(
		"This LOINC term is for '%s'. Component: %s. Property: %s. Time Aspect: %s. System: %s. Scale: %s. Method: %s. Class: %s.",
		t.LongCommonName, t.Component, t.Property, t.TimeAspect, t.System, t.Scale, t.Method, t.Class)
}

// Payload renders the point payload stored alongside the vector.
func (t *Term) Payload() map[string]string {
	return map[string]string{
		"Fully-Specified Name": t.LongCommonName,
		"LOINC code":           t.Code,
		"Component":            t.Component,
		"Property":             t.Property,
		"Time":                 t.TimeAspect,
		"System":               t.System,
		"Scale":                t.Scale,
		"Method":               t.Method,
	}
}

// Point is one vector index entry awaiting commit.
type Point struct {
	Id      ID
	Vector  []float32
	Payload map[string]string
}
