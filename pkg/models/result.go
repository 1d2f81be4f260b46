package models

// EntryPair holds the two sides of a key present in both trees but judged
// unequal. Source is always the authoritative side.
type EntryPair struct {
	Source *FileEntry
	Dest   *FileEntry
}

// KeyCollision reports two or more keys within one tree that differ only by
// case. On a case-insensitive destination filesystem they would map to a
// single path, so they are surfaced explicitly instead of silently merged.
type KeyCollision struct {
	Side Side
	// Folded is the lower-cased form the keys share
	Folded string
	// Keys are the exact keys involved, as scanned
	Keys []string
}

// CompareResult is the outcome of one comparison run. The three collections
// are disjoint by key: a relative key appears in exactly one of them, or in
// none when the pair was judged equal. A new run produces a new value; prior
// results are never mutated.
type CompareResult struct {
	// MissingInDest holds entries whose key exists only in the source tree
	MissingInDest []*FileEntry

	// MissingInSource holds entries whose key exists only in the destination tree
	MissingInSource []*FileEntry

	// DifferentContent holds key-sharing pairs judged unequal
	DifferentContent []EntryPair

	// Collisions lists case-fold key collisions detected in either tree
	Collisions []KeyCollision

	// Issues accumulates per-item failures (scan or hash) that were
	// excluded from the collections above but should stay observable
	Issues []Issue
}

// InSync reports whether the comparison found no differences at all
func (r *CompareResult) InSync() bool {
	return len(r.MissingInDest) == 0 &&
		len(r.MissingInSource) == 0 &&
		len(r.DifferentContent) == 0
}

// TotalDifferences returns the number of keys in any difference collection
func (r *CompareResult) TotalDifferences() int {
	return len(r.MissingInDest) + len(r.MissingInSource) + len(r.DifferentContent)
}
