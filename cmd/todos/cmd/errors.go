package cmd

import (
	"fmt"
	"strings"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when the cache database is held
// by another process.
func diagnoseDBLock(dbPath string) string {
	return fmt.Sprintf("cache database is locked by another process\n"+
		"  → another todos run may still be going:  ps aux | grep todos\n"+
		"  → wait for it, or skip the cache:        todos --cache=false\n"+
		"  → database:                               %s", dbPath)
}
