// Package ingest implements the ingestion pipeline: it streams resolved
// LOINC terms from a source, generates one embedding per term over a
// bounded worker pool, and commits points to a vector index in fixed-size,
// acknowledged, all-or-nothing batches.
//
// Failure handling follows a three-way taxonomy. Fatal conditions (schema
// violations, embedding dimension mismatch, collection config conflict)
// abort the run. Transient network failures are retried with bounded
// exponential backoff and escalate to reported per-record or per-batch
// failures once retries are exhausted. Data-quality problems (empty fields,
// unresolved part codes) are handled locally by skip or substitution and
// never fail a run. Every record either contributes a committed point or
// appears in the run summary's failure lists.
package ingest
