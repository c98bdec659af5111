package ports

// Discoverer supplies the candidate file list for a scan. Paths it returns are
// already filtered for size limits, ignore rules and binary content; the scan
// core treats every path as an in-policy text file.
type Discoverer interface {
	// Discover walks the root and returns candidate file paths.
	Discover() ([]string, error)

	// Root returns the directory the discoverer walks.
	Root() string
}
