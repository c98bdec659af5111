package app

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/corey/todos/internal/domain/extract"
	"github.com/corey/todos/internal/domain/lang"
	"github.com/corey/todos/internal/ports"
)

// ProgressThreshold is the file count above which incremental scans report
// progress.
const ProgressThreshold = 1000

// FileReader loads file contents for scanning.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

type osReader struct{}

func (osReader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Progress receives per-file ticks during an incremental scan.
type Progress interface {
	Start(total int)
	Increment()
	Stop()
}

// ScannerConfig wires a Scanner.
type ScannerConfig struct {
	Registry  *lang.Registry     // default: lang.Default()
	Extractor *extract.Extractor // required
	Verifier  ports.Verifier     // optional: nil = lexical results only
	Reader    FileReader         // default: os.ReadFile
	Workers   int                // full-scan parallelism, default runtime.NumCPU()
	Logger    *slog.Logger       // default: discard
	Progress  Progress           // optional, incremental scans only
}

// Scanner runs extraction and verification over a file list.
type Scanner struct {
	registry  *lang.Registry
	extractor *extract.Extractor
	verifier  ports.Verifier
	reader    FileReader
	workers   int
	log       *slog.Logger
	progress  Progress
}

// NewScanner creates a scanner, filling defaults for unset fields.
func NewScanner(cfg ScannerConfig) *Scanner {
	s := &Scanner{
		registry:  cfg.Registry,
		extractor: cfg.Extractor,
		verifier:  cfg.Verifier,
		reader:    cfg.Reader,
		workers:   cfg.Workers,
		log:       cfg.Logger,
		progress:  cfg.Progress,
	}
	if s.registry == nil {
		s.registry = lang.Default()
	}
	if s.extractor == nil {
		s.extractor = extract.NewExtractor(extract.NewGrammar(nil), nil)
	}
	if s.reader == nil {
		s.reader = osReader{}
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	if s.log == nil {
		s.log = NewLogger(nil, false)
	}
	return s
}

// fileResult is one file's contribution to a scan.
type fileResult struct {
	index  int
	items  []ports.Item
	verify ports.VerifyStats
	cached bool
}

// ScanFile extracts and verifies the items in one file. Unknown extensions
// are scanned with every line treated as a comment and are not verified.
func (s *Scanner) ScanFile(path string) ([]ports.Item, ports.VerifyStats, error) {
	src, err := s.reader.ReadFile(path)
	if err != nil {
		return nil, ports.VerifyStats{}, err
	}
	return s.scanSource(path, src)
}

func (s *Scanner) scanSource(path string, src []byte) ([]ports.Item, ports.VerifyStats, error) {
	rule, known := s.registry.ForPath(path)
	items := s.extractor.Extract(path, src, rule)

	stats := ports.VerifyStats{Total: len(items), Verified: len(items)}
	if known && s.verifier != nil && len(items) > 0 {
		items, stats = s.verifier.Verify(items, src, rule.Name)
	}
	return items, stats, nil
}

// scanOne wraps ScanFile for the aggregate scans: a read failure contributes
// no items.
func (s *Scanner) scanOne(path string) ([]ports.Item, ports.VerifyStats) {
	items, stats, err := s.ScanFile(path)
	if err != nil {
		s.log.Debug("read failed", "file", path, "err", err)
		return nil, ports.VerifyStats{}
	}
	return items, stats
}

// Scan extracts every file in parallel with a bounded worker pool. Files are
// independent, so workers share nothing; the final sort restores a
// deterministic order.
func (s *Scanner) Scan(files []string, root string) ports.ScanResult {
	start := time.Now()

	sem := make(chan struct{}, s.workers)
	results := make(chan fileResult, len(files))
	var wg sync.WaitGroup

	for i, path := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release
			items, vs := s.scanOne(path)
			results <- fileResult{index: i, items: items, verify: vs}
		}(i, path)
	}

	wg.Wait()
	close(results)

	perFile := make([]fileResult, len(files))
	for r := range results {
		perFile[r.index] = r
	}
	return s.assemble(perFile, root, start)
}

// ScanIncremental scans files one at a time through cache. Fresh files with a
// readable row are served from the cache; the rest are extracted and stored. A file that
// cannot be stat'ed is extracted directly and not stored. Store failures are
// logged and otherwise ignored.
func (s *Scanner) ScanIncremental(files []string, root string, cache ports.Cache) ports.ScanResult {
	start := time.Now()

	progress := s.progress
	if len(files) <= ProgressThreshold {
		progress = nil
	}
	if progress != nil {
		progress.Start(len(files))
		defer progress.Stop()
	}

	perFile := make([]fileResult, len(files))
	for i, path := range files {
		perFile[i] = s.scanCached(path, cache)
		perFile[i].index = i
		if progress != nil {
			progress.Increment()
		}
	}
	return s.assemble(perFile, root, start)
}

func (s *Scanner) scanCached(path string, cache ports.Cache) fileResult {
	info, err := os.Stat(path)
	if err != nil {
		items, vs := s.scanOne(path)
		return fileResult{items: items, verify: vs}
	}
	mtime, size := info.ModTime().Unix(), info.Size()

	if cache.IsFresh(path, mtime, size) {
		if items, ok := cache.Items(path); ok {
			return fileResult{items: items, cached: true}
		}
		s.log.Debug("cached row unreadable, rescanning", "file", path)
	}

	src, err := s.reader.ReadFile(path)
	if err != nil {
		s.log.Debug("read failed", "file", path, "err", err)
		return fileResult{}
	}
	items, vs, _ := s.scanSource(path, src)
	if err := cache.Store(path, mtime, size, items); err != nil {
		s.log.Warn("cache store failed", "file", path, "err", err)
	}
	return fileResult{items: items, verify: vs}
}

// assemble flattens per-file results in file order, sorts, and derives
// stats and metadata.
func (s *Scanner) assemble(perFile []fileResult, root string, start time.Time) ports.ScanResult {
	var items []ports.Item
	var verify ports.VerifyStats
	fromCache := 0
	for _, r := range perFile {
		items = append(items, r.items...)
		verify.Add(r.verify)
		if r.cached {
			fromCache++
		}
	}
	if items == nil {
		items = []ports.Item{}
	}
	ports.SortItems(items)

	stats := ports.NewScanStats(items, len(perFile))
	stats.FromCache = fromCache
	elapsed := time.Since(start)

	if verify.Filtered > 0 {
		s.log.Info("filtered false positives",
			"filtered", verify.Filtered,
			"candidates", verify.Total,
			"accuracy", verify.Accuracy())
	}
	if fromCache > 0 {
		s.log.Info("scan complete",
			"files", len(perFile),
			"from_cache", fromCache,
			"elapsed_ms", elapsed.Milliseconds())
	}

	return ports.ScanResult{
		Items: items,
		Stats: stats,
		Metadata: ports.ScanMetadata{
			Elapsed:   elapsed,
			Root:      root,
			Timestamp: start,
		},
	}
}

// Run discovers files and scans them, through cache when one is given.
func (s *Scanner) Run(d ports.Discoverer, cache ports.Cache) (ports.ScanResult, error) {
	files, err := d.Discover()
	if err != nil {
		return ports.ScanResult{}, err
	}
	if cache == nil {
		return s.Scan(files, d.Root()), nil
	}
	return s.ScanIncremental(files, d.Root(), cache), nil
}
