package webcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testEntry(code string) *Entry {
	return &Entry{
		Code:      code,
		URL:       "https://loinc.org/" + code,
		FetchedAt: time.Now().Truncate(time.Microsecond).UTC(),
		Status:    200,
		Body:      "<html>" + code + "</html>",
	}
}

func TestStore_PutGet(t *testing.T) {
	store := setupTestStore(t)

	entry := testEntry("8867-4")
	require.NoError(t, store.Put(entry))

	got, err := store.Get("8867-4")
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get("9999-9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Put_Replaces(t *testing.T) {
	store := setupTestStore(t)

	first := testEntry("8867-4")
	require.NoError(t, store.Put(first))

	second := testEntry("8867-4")
	second.Body = "<html>updated</html>"
	require.NoError(t, store.Put(second))

	got, err := store.Get("8867-4")
	require.NoError(t, err)
	assert.Equal(t, "<html>updated</html>", got.Body)

	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Has(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Put(testEntry("8867-4")))

	ok, err := store.Has("8867-4")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Has("2160-0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_EmptyCode(t *testing.T) {
	store := setupTestStore(t)

	assert.ErrorIs(t, store.Put(&Entry{}), ErrEmptyCode)

	_, err := store.Get("")
	assert.ErrorIs(t, err, ErrEmptyCode)
}

func TestStore_Len(t *testing.T) {
	store := setupTestStore(t)

	for _, code := range []string{"8867-4", "2160-0", "2951-2"} {
		require.NoError(t, store.Put(testEntry(code)))
	}

	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
