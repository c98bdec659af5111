// Package ports defines the interfaces (contracts) that adapters must implement,
// together with the data types that cross those boundaries. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

// Cache persists per-file scan results across runs so unchanged files can be
// skipped. Keys are literal path strings; no normalization is performed, so
// callers must use one path representation for Store and later lookups.
//
// Every read degrades to "not cached" on failure. Store must replace the
// fingerprint and the full item set for a path atomically: a path's cached
// items are always either absent or exactly the latest stored extraction.
//
// Implementations serialize writes; callers should still treat the cache as a
// single-writer resource and drive it from one goroutine.
type Cache interface {
	// IsFresh reports whether a fingerprint is stored for path and both mtime
	// (unix seconds) and size match exactly. Absence or any lookup error is
	// reported as false, never as an error.
	IsFresh(path string, mtime, size int64) bool

	// Items returns the stored items for path. ok is false when nothing is
	// stored or the stored row cannot be decoded; callers treat that as a
	// miss, never as an empty file.
	Items(path string) (items []Item, ok bool)

	// Store replaces the fingerprint and items for path in one transaction.
	Store(path string, mtime, size int64, items []Item) error

	// Clear removes every cached fingerprint and item.
	Clear() error

	// Close releases the underlying store.
	Close() error
}
