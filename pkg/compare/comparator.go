// Package compare reconciles two tree snapshots into a three-way result,
// using a staged equality funnel (size, partial hash, full hash) so the
// cheapest signal that proves inequality wins.
package compare

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/foldermirror/foldermirror/pkg/models"
	"github.com/foldermirror/foldermirror/pkg/status"
)

// DefaultHashProgressInterval is how many hashed candidates pass between
// hashing progress events; the final candidate always emits one.
const DefaultHashProgressInterval = 50

// Comparator partitions two snapshots by key and, in deep mode, by content
type Comparator struct {
	hasher           Hasher
	workers          int
	progressInterval int
	status           *status.Channel
}

// NewComparator creates a comparator. workers bounds the parallel hashing
// stage; values below 1 are raised to 1.
func NewComparator(hasher Hasher, workers int, ch *status.Channel) *Comparator {
	if workers < 1 {
		workers = 1
	}
	return &Comparator{
		hasher:           hasher,
		workers:          workers,
		progressInterval: DefaultHashProgressInterval,
		status:           ch,
	}
}

// SetProgressInterval overrides the hashing progress cadence
func (c *Comparator) SetProgressInterval(n int) {
	if n > 0 {
		c.progressInterval = n
	}
}

// Reconcile produces a CompareResult for two snapshots.
//
// Keys present on one side only land in MissingInDest or MissingInSource.
// Size-mismatched pairs are different without any hashing. Remaining
// same-size pairs are judged by ModTime when deep is false, or by the
// partial-then-full hash funnel when deep is true. Pairs that fail to hash
// on either side are indeterminate: excluded from every collection and
// recorded as issues.
func (c *Comparator) Reconcile(ctx context.Context, source, dest models.Snapshot, deep bool) *models.CompareResult {
	result := &models.CompareResult{}

	var candidates []models.EntryPair
	for key, srcEntry := range source {
		if destEntry, ok := dest[key]; ok {
			candidates = append(candidates, models.EntryPair{Source: srcEntry, Dest: destEntry})
		} else {
			result.MissingInDest = append(result.MissingInDest, srcEntry)
		}
	}
	for key, destEntry := range dest {
		if _, ok := source[key]; !ok {
			result.MissingInSource = append(result.MissingInSource, destEntry)
		}
	}

	result.Collisions = append(result.Collisions, detectCollisions(source, models.SideSource)...)
	result.Collisions = append(result.Collisions, detectCollisions(dest, models.SideDest)...)

	// Stage 0: size mismatch proves inequality, no hashing performed
	sameSize := candidates[:0]
	for _, pair := range candidates {
		if pair.Source.Size != pair.Dest.Size {
			result.DifferentContent = append(result.DifferentContent, pair)
		} else {
			sameSize = append(sameSize, pair)
		}
	}

	if !deep {
		// Shallow heuristic: a differing mtime marks the pair different;
		// an equal mtime is trusted without reading content
		for _, pair := range sameSize {
			if !pair.Source.ModTime.Equal(pair.Dest.ModTime) {
				result.DifferentContent = append(result.DifferentContent, pair)
			}
		}
		return result
	}

	c.hashCandidates(ctx, sameSize, result)
	return result
}

// hashCandidates runs the parallel partial/full hashing stage over same-size pairs
func (c *Comparator) hashCandidates(ctx context.Context, pairs []models.EntryPair, result *models.CompareResult) {
	total := len(pairs)
	if total == 0 {
		return
	}

	reporter := status.NewReporter(c.status, models.PhaseHashing, total, c.progressInterval)

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.workers)

	for i := range pairs {
		pair := pairs[i]

		select {
		case <-ctx.Done():
			wg.Wait()
			return
		default:
		}

		semaphore <- struct{}{}
		wg.Add(1)

		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			different, issues := c.judgePair(pair)
			reporter.Increment()

			mu.Lock()
			if different {
				result.DifferentContent = append(result.DifferentContent, pair)
			}
			result.Issues = append(result.Issues, issues...)
			mu.Unlock()
		}()
	}

	wg.Wait()
}

// judgePair applies the two hashing stages to one same-size pair. It reports
// whether the pair is different; an unreadable side makes the pair
// indeterminate (not different, issues recorded).
func (c *Comparator) judgePair(pair models.EntryPair) (bool, []models.Issue) {
	// Stage 1: head/tail fingerprints reject most genuinely different
	// large files without a full read
	srcPartial, srcErr := c.hasher.Partial(pair.Source.AbsolutePath)
	destPartial, destErr := c.hasher.Partial(pair.Dest.AbsolutePath)
	if issues := hashIssues(pair, srcErr, destErr); issues != nil {
		return false, issues
	}
	if srcPartial != destPartial {
		return true, nil
	}

	// Stage 2: full-content verification
	srcHash, srcErr := c.hasher.Full(pair.Source.AbsolutePath)
	destHash, destErr := c.hasher.Full(pair.Dest.AbsolutePath)
	if issues := hashIssues(pair, srcErr, destErr); issues != nil {
		return false, issues
	}
	if srcHash != destHash {
		// Attach the computed hashes to the emitted entries
		pair.Source.ContentHash = srcHash
		pair.Dest.ContentHash = destHash
		return true, nil
	}

	return false, nil
}

func hashIssues(pair models.EntryPair, srcErr, destErr error) []models.Issue {
	var issues []models.Issue
	if srcErr != nil {
		issues = append(issues, models.Issue{Path: pair.Source.AbsolutePath, Kind: models.IssueHash, Err: srcErr.Error()})
	}
	if destErr != nil {
		issues = append(issues, models.Issue{Path: pair.Dest.AbsolutePath, Kind: models.IssueHash, Err: destErr.Error()})
	}
	return issues
}

// detectCollisions finds keys within one snapshot that differ only by case.
// Such keys map to a single path on a case-insensitive destination
// filesystem, so they are reported rather than silently resolved.
func detectCollisions(snapshot models.Snapshot, side models.Side) []models.KeyCollision {
	folded := make(map[string][]string)
	for key := range snapshot {
		lower := strings.ToLower(key)
		folded[lower] = append(folded[lower], key)
	}

	var collisions []models.KeyCollision
	for lower, keys := range folded {
		if len(keys) > 1 {
			sort.Strings(keys)
			collisions = append(collisions, models.KeyCollision{
				Side:   side,
				Folded: lower,
				Keys:   keys,
			})
		}
	}
	return collisions
}
