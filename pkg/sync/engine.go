// Package sync orchestrates comparison runs and replays their results
// against the destination tree.
package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/foldermirror/foldermirror/pkg/compare"
	"github.com/foldermirror/foldermirror/pkg/logging"
	"github.com/foldermirror/foldermirror/pkg/models"
	"github.com/foldermirror/foldermirror/pkg/ratelimit"
	"github.com/foldermirror/foldermirror/pkg/scanner"
	"github.com/foldermirror/foldermirror/pkg/status"
)

// Options configures an engine
type Options struct {
	// MaxWorkers bounds scan, hash and sync parallelism; values below 1
	// fall back to the available hardware parallelism
	MaxWorkers int

	// BufferSize is the read buffer size for hashing and copying
	BufferSize int

	// BandwidthLimit caps read throughput in bytes per second (0 = none)
	BandwidthLimit int64

	// HashProgressInterval is the hashing progress cadence (default 50)
	HashProgressInterval int

	// SyncProgressInterval is the syncing progress cadence (default 10)
	SyncProgressInterval int

	// Exclude holds glob patterns dropped from both scans
	Exclude []string
}

// Engine runs comparisons and synchronizations. It is stateless between
// runs; every Compare call produces a fresh result.
type Engine struct {
	opts    Options
	scanner *scanner.Scanner
	hasher  compare.Hasher
	status  *status.Channel
	logger  logging.Logger
	limiter *ratelimit.Limiter
}

// NewEngine creates an engine publishing progress on ch. Both ch and logger
// may be nil.
func NewEngine(ch *status.Channel, logger logging.Logger, opts Options) *Engine {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if opts.HashProgressInterval < 1 {
		opts.HashProgressInterval = compare.DefaultHashProgressInterval
	}
	if opts.SyncProgressInterval < 1 {
		opts.SyncProgressInterval = DefaultSyncProgressInterval
	}

	hasher := compare.NewSHA256Hasher(opts.BufferSize)
	limiter := ratelimit.NewLimiter(opts.BandwidthLimit)
	if limiter != nil {
		hasher.SetReaderWrapper(func(r io.Reader) io.Reader {
			return ratelimit.NewReader(r, limiter)
		})
	}

	return &Engine{
		opts:    opts,
		scanner: scanner.New(opts.MaxWorkers, opts.Exclude),
		hasher:  hasher,
		status:  ch,
		logger:  logger,
		limiter: limiter,
	}
}

// Compare scans both roots concurrently and reconciles the snapshots.
// A missing root fails fast with a RootNotFoundError and an error event;
// everything below root level degrades to issues inside the result.
func (e *Engine) Compare(ctx context.Context, sourceRoot, destRoot string, deep bool) (*models.CompareResult, error) {
	if err := checkRoot(models.SideSource, sourceRoot); err != nil {
		e.status.Publish(models.NewErrorEvent(err.Error()))
		return nil, err
	}
	if err := checkRoot(models.SideDest, destRoot); err != nil {
		e.status.Publish(models.NewErrorEvent(err.Error()))
		return nil, err
	}

	e.logger.Info(ctx, "starting comparison", logging.Fields{
		"source": sourceRoot,
		"dest":   destRoot,
		"deep":   deep,
	})

	e.status.Publish(models.NewStatusEvent(models.PhaseScanningBoth))

	var sourceSnap, destSnap models.Snapshot
	var sourceIssues, destIssues []models.Issue
	var sourceErr, destErr error
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		sourceSnap, sourceIssues, sourceErr = e.scanner.Scan(ctx, sourceRoot)
	}()
	go func() {
		defer wg.Done()
		destSnap, destIssues, destErr = e.scanner.Scan(ctx, destRoot)
	}()
	wg.Wait()

	if sourceErr != nil {
		e.status.Publish(models.NewErrorEvent(sourceErr.Error()))
		return nil, fmt.Errorf("failed to scan source: %w", sourceErr)
	}
	if destErr != nil {
		e.status.Publish(models.NewErrorEvent(destErr.Error()))
		return nil, fmt.Errorf("failed to scan destination: %w", destErr)
	}

	comparator := compare.NewComparator(e.hasher, e.opts.MaxWorkers, e.status)
	comparator.SetProgressInterval(e.opts.HashProgressInterval)

	result := comparator.Reconcile(ctx, sourceSnap, destSnap, deep)
	result.Issues = append(result.Issues, sourceIssues...)
	result.Issues = append(result.Issues, destIssues...)

	if err := ctx.Err(); err != nil {
		e.status.Publish(models.NewErrorEvent(err.Error()))
		return nil, err
	}

	e.logger.Info(ctx, "comparison finished", logging.Fields{
		"missing_in_dest":   len(result.MissingInDest),
		"missing_in_source": len(result.MissingInSource),
		"different_content": len(result.DifferentContent),
		"issues":            len(result.Issues),
	})

	e.status.Publish(models.NewStatusEvent(models.PhaseComplete))
	return result, nil
}

// Sync replays a comparison result against the destination tree
func (e *Engine) Sync(ctx context.Context, destRoot string, result *models.CompareResult, deleteExtra bool) (*models.SyncReport, error) {
	if err := checkRoot(models.SideDest, destRoot); err != nil {
		e.status.Publish(models.NewErrorEvent(err.Error()))
		return nil, err
	}

	executor := NewExecutor(e.status, e.logger, ExecutorOptions{
		MaxWorkers:       e.opts.MaxWorkers,
		ProgressInterval: e.opts.SyncProgressInterval,
		Limiter:          e.limiter,
	})

	return executor.Run(ctx, destRoot, result, deleteExtra), nil
}

// checkRoot verifies a root exists and is a directory
func checkRoot(side models.Side, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &models.RootNotFoundError{Side: side, Root: root, Err: err}
	}
	if !info.IsDir() {
		return &models.RootNotFoundError{Side: side, Root: root, Err: fmt.Errorf("not a directory")}
	}
	return nil
}
