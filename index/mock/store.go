package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/loincvec/core"
	"github.com/poiesic/loincvec/index"
)

// MockStore is an in-memory test double for index.Store.
// Points are keyed by identifier, so upsert idempotence is observable.
// Behavior can be overridden via function fields.
type MockStore struct {
	// EnsureFunc is called by EnsureCollection if set.
	EnsureFunc func(ctx context.Context, spec index.CollectionSpec) error

	// UpsertFunc is called by Upsert if set. Returning an error leaves the
	// in-memory state untouched, mimicking an all-or-nothing commit.
	UpsertFunc func(ctx context.Context, collection string, points []*core.Point, wait bool) error

	mu          sync.Mutex
	collections map[string]index.CollectionSpec
	points      map[string]map[core.ID]*core.Point
	upsertCalls int
}

var _ index.Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		collections: make(map[string]index.CollectionSpec),
		points:      make(map[string]map[core.ID]*core.Point),
	}
}

// EnsureCollection mirrors the production contract: no-op on match,
// *index.ConfigConflictError on mismatch.
func (m *MockStore) EnsureCollection(ctx context.Context, spec index.CollectionSpec) error {
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, spec)
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.collections[spec.Name]
	if !ok {
		m.collections[spec.Name] = spec
		m.points[spec.Name] = make(map[core.ID]*core.Point)
		return nil
	}
	if existing.Dimensions != spec.Dimensions || existing.Distance != spec.Distance {
		return &index.ConfigConflictError{Requested: spec, Existing: existing}
	}
	return nil
}

// RecreateCollection drops and recreates the collection.
func (m *MockStore) RecreateCollection(ctx context.Context, spec index.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.collections[spec.Name] = spec
	m.points[spec.Name] = make(map[core.ID]*core.Point)
	return nil
}

// Upsert stores points by identifier, replacing existing ones.
func (m *MockStore) Upsert(ctx context.Context, collection string, points []*core.Point, wait bool) error {
	m.mu.Lock()
	m.upsertCalls++
	m.mu.Unlock()

	if m.UpsertFunc != nil {
		if err := m.UpsertFunc(ctx, collection, points, wait); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.points[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	for _, p := range points {
		cp := *p
		stored[p.Id] = &cp
	}
	return nil
}

// Count returns the number of distinct point identifiers in the collection.
func (m *MockStore) Count(ctx context.Context, collection string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.points[collection]
	if !ok {
		return 0, fmt.Errorf("collection %q does not exist", collection)
	}
	return uint64(len(stored)), nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Point returns the stored point for an identifier, or nil.
func (m *MockStore) Point(collection string, id core.ID) *core.Point {
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.points[collection]; ok {
		return stored[id]
	}
	return nil
}

// UpsertCalls returns the number of Upsert invocations, including failed ones.
func (m *MockStore) UpsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCalls
}
