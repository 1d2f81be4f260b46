package compare

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"
)

// Partial hashing configuration: the fingerprint covers the first chunk and,
// for files with a disjoint tail, the last chunk.
const (
	// partialChunkSize is the size of the head and tail reads (16 KiB)
	partialChunkSize = 16 * 1024
	// partialTailThreshold is the size above which a tail read adds
	// information; at or below it the head read already covers the tail
	partialTailThreshold = 2 * partialChunkSize
)

// ReaderWrapper wraps a reader, e.g. for bandwidth limiting
type ReaderWrapper func(io.Reader) io.Reader

// Hasher computes content fingerprints for a single file. Implementations
// must be pure over the path and safe for concurrent use.
type Hasher interface {
	// Partial fingerprints the head (and large-file tail) of the file
	Partial(path string) (string, error)

	// Full fingerprints the entire file content
	Full(path string) (string, error)
}

// SHA256Hasher computes streaming SHA-256 fingerprints using pooled buffers
type SHA256Hasher struct {
	bufferPool    *sync.Pool
	readerWrapper ReaderWrapper
}

// NewSHA256Hasher creates a hasher with the given read buffer size
func NewSHA256Hasher(bufferSize int) *SHA256Hasher {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &SHA256Hasher{
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetReaderWrapper sets a function to wrap full-hash readers (e.g., for rate limiting)
func (h *SHA256Hasher) SetReaderWrapper(wrapper ReaderWrapper) {
	h.readerWrapper = wrapper
}

// Partial computes the short-circuit fingerprint: SHA-256 over the first
// 16 KiB, plus the last 16 KiB (via a seek to end-minus-16KiB) when the file
// is larger than 32 KiB. Two files with equal partial hashes still require a
// full hash to be judged equal.
func (h *SHA256Hasher) Partial(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	hasher := sha256.New()
	buf := make([]byte, partialChunkSize)

	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read head: %w", err)
	}
	hasher.Write(buf[:n])

	if info.Size() > partialTailThreshold {
		if _, err := file.Seek(-partialChunkSize, io.SeekEnd); err != nil {
			return "", fmt.Errorf("failed to seek to tail: %w", err)
		}
		n, err := io.ReadFull(file, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return "", fmt.Errorf("failed to read tail: %w", err)
		}
		hasher.Write(buf[:n])
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// Full computes SHA-256 over the entire file using buffered sequential reads
func (h *SHA256Hasher) Full(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if h.readerWrapper != nil {
		reader = h.readerWrapper(reader)
	}

	hasher := sha256.New()

	bufPtr := h.bufferPool.Get().(*[]byte)
	defer h.bufferPool.Put(bufPtr)

	if _, err := io.CopyBuffer(hasher, reader, *bufPtr); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
