// Package ratelimit provides token-bucket bandwidth limiting for readers.
package ratelimit

import (
	"io"
	"sync"
	"time"
)

// Limiter controls the aggregate read rate across any number of readers
// using a token bucket. A nil limiter means no limiting.
type Limiter struct {
	bytesPerSecond int64
	bucketSize     int64

	mu         sync.Mutex
	tokens     int64
	lastRefill time.Time
}

// NewLimiter creates a limiter for the given bytes-per-second rate.
// Rates of zero or below return nil (unlimited).
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	// One second of burst, 64KB minimum so small reads stay smooth
	bucketSize := bytesPerSecond
	if bucketSize < 65536 {
		bucketSize = 65536
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		bucketSize:     bucketSize,
		tokens:         bucketSize,
		lastRefill:     time.Now(),
	}
}

// take blocks until n tokens are available, then consumes them
func (l *Limiter) take(n int64) {
	if n > l.bucketSize {
		n = l.bucketSize
	}

	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= n {
			l.tokens -= n
			l.mu.Unlock()
			return
		}
		deficit := n - l.tokens
		l.mu.Unlock()

		wait := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		time.Sleep(wait)
	}
}

// refill adds tokens for the elapsed time; must be called with the lock held
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill)

	added := int64(float64(elapsed) / float64(time.Second) * float64(l.bytesPerSecond))
	if added > 0 {
		l.tokens += added
		if l.tokens > l.bucketSize {
			l.tokens = l.bucketSize
		}
		l.lastRefill = now
	}
}

// reader wraps an io.Reader with rate limiting
type reader struct {
	inner   io.Reader
	limiter *Limiter
}

// NewReader wraps r with rate limiting. A nil limiter returns r unchanged.
func NewReader(r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &reader{inner: r, limiter: limiter}
}

// Read waits for bucket tokens before delegating to the wrapped reader
func (r *reader) Read(p []byte) (int, error) {
	toRead := int64(len(p))
	if toRead > r.limiter.bucketSize {
		toRead = r.limiter.bucketSize
	}

	r.limiter.take(toRead)

	n, err := r.inner.Read(p[:toRead])

	// Return tokens we reserved but did not use
	if unused := toRead - int64(n); unused > 0 {
		r.limiter.mu.Lock()
		r.limiter.tokens += unused
		if r.limiter.tokens > r.limiter.bucketSize {
			r.limiter.tokens = r.limiter.bucketSize
		}
		r.limiter.mu.Unlock()
	}

	return n, err
}
