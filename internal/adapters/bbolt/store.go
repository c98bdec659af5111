// Package bbolt implements ports.Cache using bbolt (embedded B+ tree).
// Three top-level buckets: "fingerprints" maps a path to its 16-byte
// (mtime, size) fingerprint, "items" maps a path to its encoded item blob,
// and "meta" holds the schema version and the scan settings key. Writes are transactional, so a crash
// mid-write cannot leave a path with a fingerprint from one scan and items
// from another.
package bbolt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/corey/todos/internal/ports"
)

// SchemaVersion is bumped whenever the bucket layout or blob format changes.
// A store written with another version is wiped on open.
const SchemaVersion = 1

var (
	bucketFingerprints = []byte("fingerprints")
	bucketItems        = []byte("items")
	bucketMeta         = []byte("meta")
	keySchema          = []byte("schema")
	keySettings        = []byte("settings")
)

const fingerprintSize = 16

// Store implements ports.Cache backed by bbolt.
type Store struct {
	db   *bolt.DB
	path string
	mu   sync.Mutex // serializes writers
}

var _ ports.Cache = (*Store)(nil)

// NewStore opens (or creates) a cache database at path, creating the parent
// directory if needed.
func NewStore(path string) (*Store, error) {
	return NewStoreWithSettings(path, "")
}

// NewStoreWithSettings is NewStore for a cache whose rows depend on scan
// settings. settings is an opaque key; a store last written under another
// key is wiped on open, the same as a schema change.
func NewStoreWithSettings(path, settings string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.init(settings); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// init creates the buckets and wipes data written under another schema or
// another settings key.
func (s *Store) init(settings string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		v := meta.Get(keySchema)
		if v != nil && (!sameSchema(v) || string(meta.Get(keySettings)) != settings) {
			if err := resetBuckets(tx); err != nil {
				return err
			}
		}
		for _, name := range [][]byte{bucketFingerprints, bucketItems} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		if err := meta.Put(keySettings, []byte(settings)); err != nil {
			return err
		}
		return meta.Put(keySchema, schemaBytes())
	})
}

func schemaBytes() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, SchemaVersion)
	return b
}

func sameSchema(v []byte) bool {
	return len(v) == 4 && binary.BigEndian.Uint32(v) == SchemaVersion
}

// resetBuckets drops and recreates the data buckets inside tx.
func resetBuckets(tx *bolt.Tx) error {
	for _, name := range [][]byte{bucketFingerprints, bucketItems} {
		if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		if _, err := tx.CreateBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeFingerprint(mtime, size int64) []byte {
	b := make([]byte, fingerprintSize)
	binary.BigEndian.PutUint64(b[:8], uint64(mtime))
	binary.BigEndian.PutUint64(b[8:], uint64(size))
	return b
}

func decodeFingerprint(path string, v []byte) (ports.Fingerprint, bool) {
	if len(v) != fingerprintSize {
		return ports.Fingerprint{}, false
	}
	return ports.Fingerprint{
		Path:    path,
		ModTime: int64(binary.BigEndian.Uint64(v[:8])),
		Size:    int64(binary.BigEndian.Uint64(v[8:])),
	}, true
}

// Fingerprint returns the stored fingerprint for path.
func (s *Store) Fingerprint(path string) (ports.Fingerprint, bool) {
	var fp ports.Fingerprint
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFingerprints)
		if b == nil {
			return nil
		}
		fp, ok = decodeFingerprint(path, b.Get([]byte(path)))
		return nil
	})
	return fp, ok && err == nil
}

// IsFresh reports whether path was stored with exactly this mtime and size.
func (s *Store) IsFresh(path string, mtime, size int64) bool {
	fp, ok := s.Fingerprint(path)
	return ok && fp.ModTime == mtime && fp.Size == size
}

// Items returns the stored items for path. A missing or undecodable blob
// reports ok=false.
func (s *Store) Items(path string) ([]ports.Item, bool) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketItems)
		if b == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := b.Get([]byte(path)); v != nil {
			blob = make([]byte, len(v))
			copy(blob, v)
		}
		return nil
	})
	if err != nil || blob == nil {
		return nil, false
	}
	items, err := decodeItems(path, blob)
	if err != nil {
		return nil, false
	}
	return items, true
}

// Store replaces the fingerprint and item set for path in one transaction.
// The old blob is deleted before the new one is written, so items from two
// scans are never merged.
func (s *Store) Store(path string, mtime, size int64, items []ports.Item) error {
	blob, err := encodeItems(items)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := []byte(path)
	return s.db.Update(func(tx *bolt.Tx) error {
		ib, err := tx.CreateBucketIfNotExists(bucketItems)
		if err != nil {
			return err
		}
		if err := ib.Delete(key); err != nil {
			return err
		}
		fb, err := tx.CreateBucketIfNotExists(bucketFingerprints)
		if err != nil {
			return err
		}
		if err := fb.Put(key, encodeFingerprint(mtime, size)); err != nil {
			return err
		}
		return ib.Put(key, blob)
	})
}

// Clear removes every fingerprint and item.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(resetBuckets)
}

// Len returns the number of cached paths.
func (s *Store) Len() int {
	n := 0
	if err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketFingerprints); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	}); err != nil {
		return 0
	}
	return n
}
