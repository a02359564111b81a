// Package mock provides an in-memory index.Store test double.
package mock
