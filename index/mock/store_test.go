package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/loincvec/core"
	"github.com/poiesic/loincvec/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec() index.CollectionSpec {
	return index.CollectionSpec{Name: "loinc", Dimensions: 768, Distance: index.DistanceCosine}
}

func TestMockStore_EnsureCollection(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()

	require.NoError(t, store.EnsureCollection(ctx, testSpec()))

	t.Run("matching spec is a no-op", func(t *testing.T) {
		require.NoError(t, store.EnsureCollection(ctx, testSpec()))
	})

	t.Run("mismatched dimensions conflict", func(t *testing.T) {
		spec := testSpec()
		spec.Dimensions = 384

		err := store.EnsureCollection(ctx, spec)
		var conflict *index.ConfigConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, uint64(768), conflict.Existing.Dimensions)
		assert.Equal(t, uint64(384), conflict.Requested.Dimensions)
	})

	t.Run("mismatched distance conflicts", func(t *testing.T) {
		spec := testSpec()
		spec.Distance = index.DistanceDot

		err := store.EnsureCollection(ctx, spec)
		var conflict *index.ConfigConflictError
		require.ErrorAs(t, err, &conflict)
	})
}

func TestMockStore_Upsert_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	require.NoError(t, store.EnsureCollection(ctx, testSpec()))

	points := []*core.Point{
		{Id: 1, Vector: []float32{0.1}, Payload: map[string]string{"LOINC code": "8867-4"}},
		{Id: 2, Vector: []float32{0.2}, Payload: map[string]string{"LOINC code": "2160-0"}},
	}

	require.NoError(t, store.Upsert(ctx, "loinc", points, true))
	require.NoError(t, store.Upsert(ctx, "loinc", points, true))

	count, err := store.Count(ctx, "loinc")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count, "re-upserting the same IDs must not grow the collection")
	assert.Equal(t, 2, store.UpsertCalls())
}

func TestMockStore_Upsert_Replaces(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	require.NoError(t, store.EnsureCollection(ctx, testSpec()))

	require.NoError(t, store.Upsert(ctx, "loinc", []*core.Point{{Id: 7, Vector: []float32{1}}}, true))
	require.NoError(t, store.Upsert(ctx, "loinc", []*core.Point{{Id: 7, Vector: []float32{2}}}, true))

	stored := store.Point("loinc", 7)
	require.NotNil(t, stored)
	assert.Equal(t, []float32{2}, stored.Vector)
}

func TestMockStore_Upsert_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	require.NoError(t, store.EnsureCollection(ctx, testSpec()))

	boom := errors.New("connection reset")
	store.UpsertFunc = func(ctx context.Context, collection string, points []*core.Point, wait bool) error {
		return boom
	}

	err := store.Upsert(ctx, "loinc", []*core.Point{{Id: 1, Vector: []float32{1}}}, true)
	require.ErrorIs(t, err, boom)

	count, err := store.Count(ctx, "loinc")
	require.NoError(t, err)
	assert.Zero(t, count, "failed upsert must leave no partial points")
}

func TestMockStore_RecreateCollection(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	require.NoError(t, store.EnsureCollection(ctx, testSpec()))
	require.NoError(t, store.Upsert(ctx, "loinc", []*core.Point{{Id: 1, Vector: []float32{1}}}, true))

	require.NoError(t, store.RecreateCollection(ctx, testSpec()))

	count, err := store.Count(ctx, "loinc")
	require.NoError(t, err)
	assert.Zero(t, count)
}
