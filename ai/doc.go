// Package ai defines the embedding service boundary.
//
// The Embedder interface isolates the pipeline from the concrete embedding
// backend; the ollama subpackage provides the production implementation and
// the mock subpackage a deterministic test double.
package ai
