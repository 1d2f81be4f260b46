package sync

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/foldermirror/foldermirror/pkg/logging"
	"github.com/foldermirror/foldermirror/pkg/models"
	"github.com/foldermirror/foldermirror/pkg/ratelimit"
	"github.com/foldermirror/foldermirror/pkg/status"
	"github.com/foldermirror/foldermirror/pkg/storage"
)

// DefaultSyncProgressInterval is how many finished tasks pass between
// syncing progress events; the final task always emits one.
const DefaultSyncProgressInterval = 10

// taskKind distinguishes the two operations the executor performs
type taskKind int

const (
	taskCopy taskKind = iota
	taskDelete
)

// task is one unit of destination mutation. Destination paths are derived
// from unique relative keys, so the write sets of all tasks are disjoint and
// workers need no synchronization among themselves.
type task struct {
	kind  taskKind
	entry *models.FileEntry
}

// ExecutorOptions configures a sync executor
type ExecutorOptions struct {
	MaxWorkers       int
	ProgressInterval int
	Limiter          *ratelimit.Limiter
}

// Executor replays a CompareResult against the destination tree: copy every
// source-only entry, overwrite every differing pair with the source version,
// and optionally delete destination-only entries. Execution is best-effort;
// a failed task is recorded and skipped, never retried, and never stops the
// rest of the batch.
type Executor struct {
	opts   ExecutorOptions
	status *status.Channel
	logger logging.Logger
}

// NewExecutor creates an executor publishing progress on ch
func NewExecutor(ch *status.Channel, logger logging.Logger, opts ExecutorOptions) *Executor {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	if opts.ProgressInterval < 1 {
		opts.ProgressInterval = DefaultSyncProgressInterval
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Executor{opts: opts, status: ch, logger: logger}
}

// Run executes the sync. The completion event fires unconditionally once all
// tasks finish, regardless of individual failures.
func (e *Executor) Run(ctx context.Context, destRoot string, result *models.CompareResult, deleteExtra bool) *models.SyncReport {
	report := &models.SyncReport{
		DestPath:    destRoot,
		DeleteExtra: deleteExtra,
		StartTime:   time.Now(),
		Status:      models.StatusSuccess,
	}

	tasks := buildTasks(result, deleteExtra)
	report.Stats.TasksTotal = len(tasks)

	e.logger.Info(ctx, "starting sync", logging.Fields{
		"dest":         destRoot,
		"tasks":        len(tasks),
		"delete_extra": deleteExtra,
	})

	dest, err := storage.NewLocal(destRoot)
	if err != nil {
		report.Status = models.StatusFailed
		report.Issues = append(report.Issues, models.Issue{Path: destRoot, Kind: models.IssueCopy, Err: err.Error()})
		e.finish(ctx, report)
		return report
	}
	defer dest.Close()

	reporter := status.NewReporter(e.status, models.PhaseSyncing, len(tasks), e.opts.ProgressInterval)

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.opts.MaxWorkers)

	cancelled := false
	for _, t := range tasks {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		semaphore <- struct{}{}
		wg.Add(1)

		go func(t task) {
			defer wg.Done()
			defer func() { <-semaphore }()

			issue := e.execute(ctx, dest, t)
			reporter.Increment()

			mu.Lock()
			if issue != nil {
				report.Stats.TasksErrored++
				report.Issues = append(report.Issues, *issue)
			} else if t.kind == taskCopy {
				report.Stats.FilesCopied++
				report.Stats.BytesTransferred += t.entry.Size
			} else {
				report.Stats.FilesDeleted++
			}
			mu.Unlock()
		}(t)
	}

	wg.Wait()

	if cancelled {
		report.Status = models.StatusCancelled
	} else if report.Stats.TasksErrored > 0 {
		report.Status = models.StatusPartial
	}

	e.finish(ctx, report)
	return report
}

// finish closes out the report and fires the unconditional completion event
func (e *Executor) finish(ctx context.Context, report *models.SyncReport) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	e.logger.Info(ctx, "sync finished", logging.Fields{
		"status":   string(report.Status),
		"copied":   report.Stats.FilesCopied,
		"deleted":  report.Stats.FilesDeleted,
		"errored":  report.Stats.TasksErrored,
		"bytes":    report.Stats.BytesTransferred,
		"duration": report.Duration.String(),
	})

	e.status.Publish(models.NewStatusEvent(models.PhaseComplete))
}

// buildTasks derives the task list from a comparison result. Source is
// authoritative: differing pairs are overwritten with the source version,
// never merged.
func buildTasks(result *models.CompareResult, deleteExtra bool) []task {
	var tasks []task

	for _, entry := range result.MissingInDest {
		tasks = append(tasks, task{kind: taskCopy, entry: entry})
	}
	for _, pair := range result.DifferentContent {
		tasks = append(tasks, task{kind: taskCopy, entry: pair.Source})
	}
	if deleteExtra {
		for _, entry := range result.MissingInSource {
			tasks = append(tasks, task{kind: taskDelete, entry: entry})
		}
	}

	return tasks
}

// execute runs a single task and returns an issue on failure
func (e *Executor) execute(ctx context.Context, dest storage.Backend, t task) *models.Issue {
	switch t.kind {
	case taskDelete:
		if err := dest.Delete(ctx, t.entry.RelativeKey); err != nil {
			return &models.Issue{Path: t.entry.RelativeKey, Kind: models.IssueDelete, Err: err.Error()}
		}
		return nil

	default:
		if err := e.copyEntry(ctx, dest, t.entry); err != nil {
			return &models.Issue{Path: t.entry.RelativeKey, Kind: models.IssueCopy, Err: err.Error()}
		}
		return nil
	}
}

// copyEntry streams one source file to destRoot/relativeKey, creating parent
// directories first
func (e *Executor) copyEntry(ctx context.Context, dest storage.Backend, entry *models.FileEntry) error {
	if dir := filepath.Dir(entry.RelativeKey); dir != "." {
		if err := dest.MkdirAll(ctx, dir); err != nil {
			return err
		}
	}

	src, err := os.Open(entry.AbsolutePath)
	if err != nil {
		return err
	}
	defer src.Close()

	// Stat the open handle: the scan-time size may be stale
	info, err := src.Stat()
	if err != nil {
		return err
	}

	reader := ratelimit.NewReader(src, e.opts.Limiter)
	return dest.Write(ctx, entry.RelativeKey, reader, info.Size(), entry.ModTime)
}
