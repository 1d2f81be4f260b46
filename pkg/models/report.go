package models

import (
	"time"
)

// SyncReport represents the results of one synchronization run
type SyncReport struct {
	// RunID identifies the run this report belongs to
	RunID string

	DestPath    string
	DeleteExtra bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Issues encountered; tasks that failed were skipped, not retried
	Issues []Issue

	// Overall status
	Status SyncStatus
}

// Statistics holds sync run metrics
type Statistics struct {
	TasksTotal       int
	FilesCopied      int
	FilesDeleted     int
	TasksErrored     int
	BytesTransferred int64
}

// SyncStatus represents the overall result of a run
type SyncStatus string

const (
	// StatusSuccess indicates all tasks completed
	StatusSuccess SyncStatus = "success"
	// StatusPartial indicates some tasks failed but the batch finished
	StatusPartial SyncStatus = "partial"
	// StatusFailed indicates the run failed before or during execution
	StatusFailed SyncStatus = "failed"
	// StatusCancelled indicates the run was cancelled
	StatusCancelled SyncStatus = "cancelled"
)

// ExitCode returns the process exit code for the status
func (s SyncStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}
