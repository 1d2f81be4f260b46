// Package scanner walks a directory tree and produces a keyed snapshot of
// file metadata for the comparator.
package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/foldermirror/foldermirror/pkg/models"
)

// Scanner walks a tree and builds a snapshot keyed by relative path
type Scanner struct {
	workers int
	exclude []string
}

// New creates a scanner. workers bounds concurrent metadata reads; values
// below 1 fall back to the available hardware parallelism.
func New(workers int, exclude []string) *Scanner {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		workers: workers,
		exclude: exclude,
	}
}

// Scan returns a snapshot of every regular file reachable under root.
// Directories and non-regular entries are excluded. A per-entry metadata
// failure (permissions, race-deleted file) drops that entry and records an
// issue; it never fails the scan. Only a cancelled context or an unreadable
// root aborts the walk.
func (s *Scanner) Scan(ctx context.Context, root string) (models.Snapshot, []models.Issue, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}

	snapshot := make(models.Snapshot)
	var issues []models.Issue
	var mu sync.Mutex

	paths := make(chan walkItem, s.workers*4)
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range paths {
				entry, issue := s.buildEntry(absRoot, item)
				mu.Lock()
				if issue != nil {
					issues = append(issues, *issue)
				} else if entry != nil {
					snapshot[entry.RelativeKey] = entry
				}
				mu.Unlock()
			}
		}()
	}

	walkErr := filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			mu.Lock()
			issues = append(issues, models.Issue{Path: p, Kind: models.IssueScan, Err: err.Error()})
			mu.Unlock()
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		paths <- walkItem{path: p, entry: d}
		return nil
	})

	close(paths)
	wg.Wait()

	if walkErr != nil {
		return nil, issues, walkErr
	}
	return snapshot, issues, nil
}

type walkItem struct {
	path  string
	entry fs.DirEntry
}

// buildEntry reads metadata for one walked file and derives its relative key
func (s *Scanner) buildEntry(root string, item walkItem) (*models.FileEntry, *models.Issue) {
	relPath, err := filepath.Rel(root, item.path)
	if err != nil {
		return nil, &models.Issue{Path: item.path, Kind: models.IssueScan, Err: err.Error()}
	}
	key := filepath.ToSlash(relPath)

	if shouldExclude(key, s.exclude) {
		return nil, nil
	}

	info, err := item.entry.Info()
	if err != nil {
		// File disappeared or became unreadable between walk and stat
		return nil, &models.Issue{Path: item.path, Kind: models.IssueScan, Err: err.Error()}
	}

	return &models.FileEntry{
		AbsolutePath: item.path,
		RelativeKey:  key,
		Size:         info.Size(),
		ModTime:      info.ModTime().Truncate(time.Second),
	}, nil
}
