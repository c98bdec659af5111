package ports

// Verifier is the precision stage that runs after lexical extraction. It drops
// candidates whose tag does not sit inside a real comment node.
//
// A verifier must never reduce correctness below the lexical pass: for an
// unsupported language, a parse failure, or any internal error it returns the
// input items unchanged. It never adds items.
type Verifier interface {
	// Verify filters items extracted from source. language is the registry
	// language name (e.g. "Rust", "C++").
	Verify(items []Item, source []byte, language string) ([]Item, VerifyStats)

	// Supports returns true if a grammar is available for the language.
	Supports(language string) bool
}

// VerifyStats records what a verification pass did. Diagnostic only.
type VerifyStats struct {
	Total    int
	Verified int
	Filtered int
}

// Accuracy returns the verified share of candidates as a percentage.
// Returns 100 when there were no candidates.
func (s VerifyStats) Accuracy() float64 {
	if s.Total == 0 {
		return 100
	}
	return float64(s.Verified) / float64(s.Total) * 100
}

// Add accumulates another pass into s.
func (s *VerifyStats) Add(o VerifyStats) {
	s.Total += o.Total
	s.Verified += o.Verified
	s.Filtered += o.Filtered
}
