// Package mmap reads source files for scanning. Large files are memory-mapped
// and copied out; small ones are read directly.
package mmap

import (
	"fmt"
	"os"

	"golang.org/x/exp/mmap"
)

// Threshold is the size above which files are memory-mapped.
const Threshold = 256 * 1024

// ReadFile returns the contents of path. Content is returned as raw bytes;
// invalid UTF-8 is not an error.
func ReadFile(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Size() <= Threshold {
		return os.ReadFile(path)
	}
	return readMapped(path)
}

func readMapped(path string) ([]byte, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	defer r.Close()

	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("mmap read %s: %w", path, err)
	}
	return buf, nil
}

// Reader adapts ReadFile to the scanner's reader hook.
type Reader struct{}

// ReadFile implements the scanner's file reader.
func (Reader) ReadFile(path string) ([]byte, error) {
	return ReadFile(path)
}
