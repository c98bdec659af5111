package ports

// KeywordMatcher reports which of a fixed keyword set occur in a line, using
// multi-pattern matching (Aho-Corasick). The extractor uses it to skip comment
// lines that cannot contain a tag before running the tag grammar.
//
// A single pass over the content finds all keywords simultaneously,
// regardless of how many keywords are in the set. Matching is case-sensitive.
type KeywordMatcher interface {
	// Contains returns true if any keyword occurs anywhere in content.
	Contains(content string) bool

	// Match returns the distinct keywords found in content, in first-seen order.
	Match(content string) []string
}
