package models

import (
	"time"
)

// Phase identifies what the engine is currently doing
type Phase string

const (
	// PhaseScanningSource indicates the source tree is being scanned
	PhaseScanningSource Phase = "scanning_source"
	// PhaseScanningDest indicates the destination tree is being scanned
	PhaseScanningDest Phase = "scanning_dest"
	// PhaseScanningBoth indicates both trees are being scanned concurrently
	PhaseScanningBoth Phase = "scanning_both"
	// PhaseHashing indicates same-size candidates are being content-hashed
	PhaseHashing Phase = "hashing"
	// PhaseSyncing indicates copy/delete tasks are executing
	PhaseSyncing Phase = "syncing"
	// PhaseComplete indicates the current run finished
	PhaseComplete Phase = "complete"
	// PhaseError indicates the run aborted with a top-level error
	PhaseError Phase = "error"
)

// StatusEvent is an observational progress notification. Consumers must not
// rely on delivery cadence beyond monotonic Current values that eventually
// reach Total for the hashing and syncing phases.
type StatusEvent struct {
	Phase     Phase
	Current   int
	Total     int
	Message   string
	Timestamp time.Time
}

// NewStatusEvent creates an event for a phase with no counters
func NewStatusEvent(phase Phase) StatusEvent {
	return StatusEvent{Phase: phase, Timestamp: time.Now()}
}

// NewProgressEvent creates a counted event for the hashing or syncing phase
func NewProgressEvent(phase Phase, current, total int) StatusEvent {
	return StatusEvent{Phase: phase, Current: current, Total: total, Timestamp: time.Now()}
}

// NewErrorEvent creates an error event carrying a message
func NewErrorEvent(msg string) StatusEvent {
	return StatusEvent{Phase: PhaseError, Message: msg, Timestamp: time.Now()}
}
