// Package index defines the vector store boundary: collection lifecycle
// (idempotent ensure, explicit recreate) and acknowledged upsert-by-ID.
//
// The qdrant subpackage provides the production implementation over the
// official gRPC client; the mock subpackage an in-memory double whose
// upsert-by-ID semantics make idempotence observable in tests.
package index
