package bbolt

import (
	"encoding/binary"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/corey/todos/internal/ports"
)

// =============================================================================
// Fingerprint cache: freshness, atomic replace, clear, corruption
// =============================================================================

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".todo-tracker", "cache.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func makeItems(path string) []ports.Item {
	return []ports.Item{
		{
			Tag: ports.TagTodo, Message: "fix race condition", File: path,
			Line: 1, Column: 4, Author: "alice", Issue: "#123",
			Priority: ports.PriorityHigh,
			Context:  "// TODO(alice, #123, p:high): fix race condition",
		},
		{
			Tag: ports.Tag("NOTE"), Message: "custom", File: path,
			Line: 9, Column: 3, Context: "# NOTE custom",
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	items := makeItems("src/main.rs")

	require.NoError(t, s.Store("src/main.rs", 1700000000, 512, items))
	got, ok := s.Items("src/main.rs")
	require.True(t, ok)
	assert.Equal(t, items, got)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Freshness(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Store("a.go", 100, 10, nil))

	assert.True(t, s.IsFresh("a.go", 100, 10))
	assert.False(t, s.IsFresh("a.go", 101, 10), "mtime changed")
	assert.False(t, s.IsFresh("a.go", 100, 11), "size changed")
	assert.False(t, s.IsFresh("b.go", 100, 10), "never stored")
	assert.False(t, s.IsFresh("./a.go", 100, 10), "keys are literal")

	fp, ok := s.Fingerprint("a.go")
	require.True(t, ok)
	assert.Equal(t, ports.Fingerprint{Path: "a.go", ModTime: 100, Size: 10}, fp)
}

func TestStore_ReplaceNotMerge(t *testing.T) {
	s, _ := newTestStore(t)
	first := makeItems("a.rs")
	require.NoError(t, s.Store("a.rs", 1, 1, first))

	second := []ports.Item{{Tag: ports.TagBug, Message: "only", File: "a.rs", Line: 3, Column: 1}}
	require.NoError(t, s.Store("a.rs", 2, 2, second))

	got, ok := s.Items("a.rs")
	require.True(t, ok)
	assert.Equal(t, second, got)
	assert.True(t, s.IsFresh("a.rs", 2, 2))
	assert.False(t, s.IsFresh("a.rs", 1, 1))

	require.NoError(t, s.Store("a.rs", 3, 3, nil))
	got, ok = s.Items("a.rs")
	assert.True(t, ok, "an empty file is still a hit")
	assert.Empty(t, got)
	assert.True(t, s.IsFresh("a.rs", 3, 3))
}

func TestStore_ItemsMissing(t *testing.T) {
	s, _ := newTestStore(t)
	got, ok := s.Items("nope")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestStore_Clear(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Store("a", 1, 1, makeItems("a")))
	require.NoError(t, s.Store("b", 1, 1, makeItems("b")))

	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.IsFresh("a", 1, 1))
	_, ok := s.Items("b")
	assert.False(t, ok)

	// usable after clear
	require.NoError(t, s.Store("a", 2, 2, nil))
	assert.True(t, s.IsFresh("a", 2, 2))
}

func TestStore_CorruptBlobIsMiss(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Store("a", 1, 1, makeItems("a")))

	for _, blob := range [][]byte{{}, {blobVersion, 0xff, 0x00}, {blobVersion, 0xde, 0xad}, {99, 1, 2, 3}} {
		require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketItems).Put([]byte("a"), blob)
		}))
		got, ok := s.Items("a")
		assert.False(t, ok, "blob %v", blob)
		assert.Nil(t, got)
	}
}

func TestStore_CorruptFingerprintIsStale(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFingerprints).Put([]byte("a"), []byte{1, 2, 3})
	}))
	assert.False(t, s.IsFresh("a", 0, 0))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	s, path := newTestStore(t)
	items := makeItems("a.rs")
	require.NoError(t, s.Store("a.rs", 5, 6, items))
	require.NoError(t, s.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.IsFresh("a.rs", 5, 6))
	got, ok := reopened.Items("a.rs")
	require.True(t, ok)
	assert.Equal(t, items, got)
	assert.Equal(t, path, reopened.Path())
}

func TestStore_SchemaMismatchWipes(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.Store("a.rs", 5, 6, makeItems("a.rs")))
	require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
		old := make([]byte, 4)
		binary.BigEndian.PutUint32(old, SchemaVersion+7)
		return tx.Bucket(bucketMeta).Put(keySchema, old)
	}))
	require.NoError(t, s.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 0, reopened.Len())
	assert.False(t, reopened.IsFresh("a.rs", 5, 6))
}

func TestStore_SettingsMismatchWipes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	s, err := NewStoreWithSettings(path, "tags=TODO")
	require.NoError(t, err)
	require.NoError(t, s.Store("a.rs", 5, 6, makeItems("a.rs")))
	require.NoError(t, s.Close())

	same, err := NewStoreWithSettings(path, "tags=TODO")
	require.NoError(t, err)
	assert.True(t, same.IsFresh("a.rs", 5, 6), "same settings keep rows")
	require.NoError(t, same.Close())

	changed, err := NewStoreWithSettings(path, "tags=TODO,NOTE")
	require.NoError(t, err)
	defer changed.Close()
	assert.Equal(t, 0, changed.Len())
	assert.False(t, changed.IsFresh("a.rs", 5, 6))
	_, ok := changed.Items("a.rs")
	assert.False(t, ok)
}

func TestStore_ClosedDatabaseIsMiss(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Store("a.rs", 5, 6, makeItems("a.rs")))
	require.NoError(t, s.Close())

	_, ok := s.Fingerprint("a.rs")
	assert.False(t, ok)
	assert.False(t, s.IsFresh("a.rs", 5, 6))
	_, ok = s.Items("a.rs")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_LockedDatabase(t *testing.T) {
	_, path := newTestStore(t)
	_, err := NewStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bbolt open")
}

func TestStore_ConcurrentStores(t *testing.T) {
	s, _ := newTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := filepath.Join("pkg", string(rune('a'+i))+".go")
			assert.NoError(t, s.Store(path, int64(i), int64(i), makeItems(path)))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, s.Len())
}

func TestEncodeItems_Versioned(t *testing.T) {
	blob, err := encodeItems(makeItems("x"))
	require.NoError(t, err)
	assert.Equal(t, blobVersion, blob[0])

	got, err := decodeItems("y", blob)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "y", got[0].File, "path comes from the key")
	assert.Equal(t, ports.PriorityHigh, got[0].Priority)
	assert.True(t, got[1].Tag.IsCustom())
}
