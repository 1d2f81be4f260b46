package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file below a backend root
type FileInfo struct {
	Path        string
	Size        int64
	ModTime     time.Time
	IsDir       bool
	Permissions uint32
	RelativeKey string
}

// Backend defines the filesystem surface used by the sync executor and the
// CLI. Paths are relative to the backend root unless noted otherwise.
type Backend interface {
	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or overwrites a file with the given content,
	// preserving modTime when it is non-zero
	Write(ctx context.Context, path string, reader io.Reader, size int64, modTime time.Time) error

	// Delete removes a file
	Delete(ctx context.Context, path string) error

	// Exists checks if a path exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Root returns the absolute root the backend is anchored at
	Root() string

	// Close releases any resources held by the backend
	Close() error
}
