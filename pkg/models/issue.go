package models

// IssueKind categorizes a per-item failure
type IssueKind string

const (
	// IssueScan indicates a metadata read failed during scanning
	IssueScan IssueKind = "scan"
	// IssueHash indicates a content read failed during hashing
	IssueHash IssueKind = "hash"
	// IssueCopy indicates a copy task failed during synchronization
	IssueCopy IssueKind = "copy"
	// IssueDelete indicates a delete task failed during synchronization
	IssueDelete IssueKind = "delete"
)

// Issue records a single path that could not be processed. Per-item failures
// never abort a run; they degrade to an omitted item plus one of these.
type Issue struct {
	Path string
	Kind IssueKind
	Err  string
}
