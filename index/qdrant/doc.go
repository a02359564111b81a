// Package qdrant implements index.Store over the official Qdrant gRPC client.
package qdrant
