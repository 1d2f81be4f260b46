package models

import (
	"time"
)

// FileEntry represents one regular file observed during a tree scan
type FileEntry struct {
	// AbsolutePath is the resolved location on disk
	AbsolutePath string

	// RelativeKey is the slash-separated path below the scan root.
	// It is the join key used to match files across two trees and is
	// unique within one snapshot.
	RelativeKey string

	// Size in bytes at scan time
	Size int64

	// ModTime is the last modification time, truncated to seconds
	ModTime time.Time

	// ContentHash is the hex SHA-256 of the full content. It is empty
	// unless a full hash was actually computed for this entry during a
	// deep comparison; it is the only field set after creation.
	ContentHash string
}

// Snapshot maps relative keys to entries for one scanned tree.
// There is no ordering guarantee; it is a lookup structure, not a sequence.
type Snapshot map[string]*FileEntry

// TotalBytes returns the combined size of all entries in the snapshot
func (s Snapshot) TotalBytes() int64 {
	var total int64
	for _, e := range s {
		total += e.Size
	}
	return total
}

// Side identifies which tree an entry or collision belongs to
type Side string

const (
	// SideSource is the authoritative tree
	SideSource Side = "source"
	// SideDest is the tree being mirrored
	SideDest Side = "dest"
)
