// Package core defines the domain model shared across the ingestion
// pipeline: resolved LOINC terms, index points, and deterministic
// content-derived identifiers.
package core
