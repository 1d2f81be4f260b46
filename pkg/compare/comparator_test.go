package compare

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foldermirror/foldermirror/pkg/models"
	"github.com/foldermirror/foldermirror/pkg/status"
)

// TestHelper provides source/dest trees and snapshot construction
type TestHelper struct {
	t       *testing.T
	tempDir string
	source  models.Snapshot
	dest    models.Snapshot
}

// NewTestHelper creates a new test helper with temporary directories
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "foldermirror-compare-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	for _, sub := range []string{"source", "dest"} {
		if err := os.MkdirAll(filepath.Join(tempDir, sub), 0755); err != nil {
			t.Fatalf("failed to create %s dir: %v", sub, err)
		}
	}

	return &TestHelper{
		t:       t,
		tempDir: tempDir,
		source:  make(models.Snapshot),
		dest:    make(models.Snapshot),
	}
}

// Cleanup removes all temporary files
func (h *TestHelper) Cleanup() {
	os.RemoveAll(h.tempDir)
}

// addFile writes a file under side/key and records a snapshot entry for it
func (h *TestHelper) addFile(snapshot models.Snapshot, side, key string, content []byte, modTime time.Time) {
	h.t.Helper()

	path := filepath.Join(h.tempDir, side, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		h.t.Fatalf("failed to create file: %v", err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		h.t.Fatalf("failed to set mod time: %v", err)
	}

	snapshot[key] = &models.FileEntry{
		AbsolutePath: path,
		RelativeKey:  key,
		Size:         int64(len(content)),
		ModTime:      modTime.Truncate(time.Second),
	}
}

// CreateSourceFile creates a file in the source tree and snapshot
func (h *TestHelper) CreateSourceFile(key string, content []byte, modTime time.Time) {
	h.addFile(h.source, "source", key, content, modTime)
}

// CreateDestFile creates a file in the dest tree and snapshot
func (h *TestHelper) CreateDestFile(key string, content []byte, modTime time.Time) {
	h.addFile(h.dest, "dest", key, content, modTime)
}

// countingHasher wraps a hasher and counts how often each stage ran
type countingHasher struct {
	inner    Hasher
	partials int64
	fulls    int64
}

func (c *countingHasher) Partial(path string) (string, error) {
	atomic.AddInt64(&c.partials, 1)
	return c.inner.Partial(path)
}

func (c *countingHasher) Full(path string) (string, error) {
	atomic.AddInt64(&c.fulls, 1)
	return c.inner.Full(path)
}

// TestReconcilePartition verifies keys land in exactly one collection
func TestReconcilePartition(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	h.CreateSourceFile("only-source.txt", []byte("a"), now)
	h.CreateDestFile("only-dest.txt", []byte("b"), now)
	h.CreateSourceFile("both-equal.txt", []byte("same"), now)
	h.CreateDestFile("both-equal.txt", []byte("same"), now)
	h.CreateSourceFile("both-diff.txt", []byte("source!!"), now)
	h.CreateDestFile("both-diff.txt", []byte("dest!!!!"), now)

	c := NewComparator(NewSHA256Hasher(4096), 4, nil)
	result := c.Reconcile(context.Background(), h.source, h.dest, true)

	if len(result.MissingInDest) != 1 || result.MissingInDest[0].RelativeKey != "only-source.txt" {
		t.Errorf("MissingInDest = %v, want [only-source.txt]", result.MissingInDest)
	}
	if len(result.MissingInSource) != 1 || result.MissingInSource[0].RelativeKey != "only-dest.txt" {
		t.Errorf("MissingInSource = %v, want [only-dest.txt]", result.MissingInSource)
	}
	if len(result.DifferentContent) != 1 || result.DifferentContent[0].Source.RelativeKey != "both-diff.txt" {
		t.Errorf("DifferentContent = %v, want [both-diff.txt]", result.DifferentContent)
	}

	t.Run("Disjoint", func(t *testing.T) {
		seen := make(map[string]int)
		for _, e := range result.MissingInDest {
			seen[e.RelativeKey]++
		}
		for _, e := range result.MissingInSource {
			seen[e.RelativeKey]++
		}
		for _, p := range result.DifferentContent {
			seen[p.Source.RelativeKey]++
		}
		for key, count := range seen {
			if count > 1 {
				t.Errorf("key %q appears in %d collections, want 1", key, count)
			}
		}
	})

	if result.InSync() {
		t.Error("InSync() = true for differing trees")
	}
	if result.TotalDifferences() != 3 {
		t.Errorf("TotalDifferences() = %d, want 3", result.TotalDifferences())
	}
}

// TestReconcileSizeShortCircuit verifies size-mismatched pairs are judged
// different without any hashing
func TestReconcileSizeShortCircuit(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	h.CreateSourceFile("sized.txt", []byte("short"), now)
	h.CreateDestFile("sized.txt", []byte("much longer content"), now)

	counter := &countingHasher{inner: NewSHA256Hasher(4096)}
	c := NewComparator(counter, 4, nil)
	result := c.Reconcile(context.Background(), h.source, h.dest, true)

	if len(result.DifferentContent) != 1 {
		t.Fatalf("DifferentContent has %d pairs, want 1", len(result.DifferentContent))
	}
	if got := atomic.LoadInt64(&counter.partials); got != 0 {
		t.Errorf("Partial() called %d times, want 0", got)
	}
	if got := atomic.LoadInt64(&counter.fulls); got != 0 {
		t.Errorf("Full() called %d times, want 0", got)
	}
}

// TestReconcileFunnel verifies the partial stage gates the full stage
func TestReconcileFunnel(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()

	// Same size, different head: partial hash settles it without a full read
	h.CreateSourceFile("head-diff.bin", []byte("AAAAAAAA"), now)
	h.CreateDestFile("head-diff.bin", []byte("BBBBBBBB"), now)

	counter := &countingHasher{inner: NewSHA256Hasher(4096)}
	c := NewComparator(counter, 1, nil)
	result := c.Reconcile(context.Background(), h.source, h.dest, true)

	if len(result.DifferentContent) != 1 {
		t.Fatalf("DifferentContent has %d pairs, want 1", len(result.DifferentContent))
	}
	if got := atomic.LoadInt64(&counter.partials); got != 2 {
		t.Errorf("Partial() called %d times, want 2", got)
	}
	if got := atomic.LoadInt64(&counter.fulls); got != 0 {
		t.Errorf("Full() called %d times, want 0 (partial stage settled the pair)", got)
	}
}

// TestReconcileFullHashVerdict verifies a middle-only difference in a large
// file survives the partial stage and is caught by the full stage
func TestReconcileFullHashVerdict(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	const size = 40 * 1024
	content1 := bytes.Repeat([]byte{0x11}, size)
	content2 := bytes.Repeat([]byte{0x11}, size)
	for i := partialChunkSize; i < size-partialChunkSize; i++ {
		content2[i] = 0x22
	}

	h.CreateSourceFile("middle.bin", content1, now)
	h.CreateDestFile("middle.bin", content2, now)

	counter := &countingHasher{inner: NewSHA256Hasher(4096)}
	c := NewComparator(counter, 1, nil)
	result := c.Reconcile(context.Background(), h.source, h.dest, true)

	if len(result.DifferentContent) != 1 {
		t.Fatalf("DifferentContent has %d pairs, want 1", len(result.DifferentContent))
	}
	if got := atomic.LoadInt64(&counter.fulls); got != 2 {
		t.Errorf("Full() called %d times, want 2", got)
	}

	pair := result.DifferentContent[0]
	if pair.Source.ContentHash == "" || pair.Dest.ContentHash == "" {
		t.Error("full-hash verdict should attach content hashes to both entries")
	}
	if pair.Source.ContentHash == pair.Dest.ContentHash {
		t.Error("attached content hashes should differ")
	}
}

// TestReconcileEqualPairs verifies identical pairs land in no collection
func TestReconcileEqualPairs(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	content := bytes.Repeat([]byte{0x77}, 50*1024)
	h.CreateSourceFile("same.bin", content, now)
	h.CreateDestFile("same.bin", content, now)

	c := NewComparator(NewSHA256Hasher(4096), 4, nil)
	result := c.Reconcile(context.Background(), h.source, h.dest, true)

	if !result.InSync() {
		t.Errorf("InSync() = false for identical trees: %+v", result)
	}
}

// TestReconcileShallow verifies shallow mode uses mtime instead of content
func TestReconcileShallow(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	// Same size and mtime but different bytes: shallow mode trusts the
	// metadata and reads no content
	h.CreateSourceFile("trusted.txt", []byte("aaaa"), older)
	h.CreateDestFile("trusted.txt", []byte("bbbb"), older)

	// Same size and bytes but different mtime: shallow flags it
	h.CreateSourceFile("flagged.txt", []byte("same"), newer)
	h.CreateDestFile("flagged.txt", []byte("same"), older)

	counter := &countingHasher{inner: NewSHA256Hasher(4096)}
	c := NewComparator(counter, 4, nil)
	result := c.Reconcile(context.Background(), h.source, h.dest, false)

	if len(result.DifferentContent) != 1 || result.DifferentContent[0].Source.RelativeKey != "flagged.txt" {
		t.Errorf("DifferentContent = %v, want [flagged.txt]", result.DifferentContent)
	}
	if got := atomic.LoadInt64(&counter.partials) + atomic.LoadInt64(&counter.fulls); got != 0 {
		t.Errorf("shallow mode performed %d hash reads, want 0", got)
	}
}

// TestReconcileIdempotent verifies repeated runs produce identical partitions
func TestReconcileIdempotent(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	h.CreateSourceFile("a.txt", []byte("a"), now)
	h.CreateSourceFile("c.txt", []byte("source"), now)
	h.CreateDestFile("b.txt", []byte("b"), now)
	h.CreateDestFile("c.txt", []byte("dest!!"), now)

	c := NewComparator(NewSHA256Hasher(4096), 4, nil)

	first := c.Reconcile(context.Background(), h.source, h.dest, true)
	second := c.Reconcile(context.Background(), h.source, h.dest, true)

	if len(first.MissingInDest) != len(second.MissingInDest) ||
		len(first.MissingInSource) != len(second.MissingInSource) ||
		len(first.DifferentContent) != len(second.DifferentContent) {
		t.Errorf("runs disagree: first=%d/%d/%d second=%d/%d/%d",
			len(first.MissingInDest), len(first.MissingInSource), len(first.DifferentContent),
			len(second.MissingInDest), len(second.MissingInSource), len(second.DifferentContent))
	}
}

// TestReconcileHashIssues verifies unreadable pairs are indeterminate
func TestReconcileHashIssues(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	h.CreateSourceFile("gone.txt", []byte("content"), now)
	h.CreateDestFile("gone.txt", []byte("CONTENT"), now)

	// Remove the source file after snapshotting so hashing fails
	if err := os.Remove(h.source["gone.txt"].AbsolutePath); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	c := NewComparator(NewSHA256Hasher(4096), 1, nil)
	result := c.Reconcile(context.Background(), h.source, h.dest, true)

	if len(result.DifferentContent) != 0 {
		t.Errorf("indeterminate pair landed in DifferentContent: %v", result.DifferentContent)
	}
	if len(result.Issues) == 0 {
		t.Fatal("unreadable pair should record an issue")
	}
	if result.Issues[0].Kind != models.IssueHash {
		t.Errorf("issue kind = %s, want %s", result.Issues[0].Kind, models.IssueHash)
	}
}

// TestReconcileCollisions verifies case-fold key collisions are surfaced
func TestReconcileCollisions(t *testing.T) {
	// Snapshots built directly: writing Readme.md and README.md to one
	// directory is impossible on case-insensitive filesystems
	now := time.Now()
	source := models.Snapshot{
		"Readme.md": {RelativeKey: "Readme.md", Size: 1, ModTime: now},
		"README.md": {RelativeKey: "README.md", Size: 2, ModTime: now},
		"other.txt": {RelativeKey: "other.txt", Size: 3, ModTime: now},
	}
	dest := models.Snapshot{}

	c := NewComparator(NewSHA256Hasher(4096), 1, nil)
	result := c.Reconcile(context.Background(), source, dest, true)

	if len(result.Collisions) != 1 {
		t.Fatalf("got %d collisions, want 1", len(result.Collisions))
	}
	col := result.Collisions[0]
	if col.Side != models.SideSource {
		t.Errorf("collision side = %s, want %s", col.Side, models.SideSource)
	}
	if col.Folded != "readme.md" {
		t.Errorf("collision folded key = %s, want readme.md", col.Folded)
	}
	if len(col.Keys) != 2 || col.Keys[0] != "README.md" || col.Keys[1] != "Readme.md" {
		t.Errorf("collision keys = %v, want sorted [README.md Readme.md]", col.Keys)
	}
}

// TestReconcileProgress verifies hashing progress is monotonic and reaches
// the candidate total
func TestReconcileProgress(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()

	now := time.Now()
	content := []byte("identical")
	for _, key := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		h.CreateSourceFile(key, content, now)
		h.CreateDestFile(key, content, now)
	}

	ch := status.NewChannel()
	c := NewComparator(NewSHA256Hasher(4096), 4, ch)
	c.SetProgressInterval(2)
	c.Reconcile(context.Background(), h.source, h.dest, true)

	events := ch.Drain()
	if len(events) == 0 {
		t.Fatal("no progress events emitted")
	}

	last := 0
	for i, e := range events {
		if e.Phase != models.PhaseHashing {
			t.Errorf("events[%d].Phase = %s, want %s", i, e.Phase, models.PhaseHashing)
		}
		if e.Current < last {
			t.Errorf("events[%d].Current = %d, decreased from %d", i, e.Current, last)
		}
		last = e.Current
	}
	if last != 5 {
		t.Errorf("final Current = %d, want 5", last)
	}
}
