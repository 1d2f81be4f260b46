// Package status provides the asynchronous progress stream between the
// engine's worker goroutines and a single external consumer.
package status

import (
	"sync"

	"github.com/foldermirror/foldermirror/pkg/models"
)

// Channel is an unbounded multi-producer, single-consumer event queue.
// Publish never blocks, so a slow or absent consumer can never stall a
// worker; the consumer polls Drain at its own cadence and receives every
// pending event each tick, in publish order.
type Channel struct {
	mu      sync.Mutex
	pending []models.StatusEvent
}

// NewChannel creates an empty status channel
func NewChannel() *Channel {
	return &Channel{}
}

// Publish appends an event without blocking. A nil channel discards events,
// which lets engine code publish unconditionally.
func (c *Channel) Publish(e models.StatusEvent) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, e)
	c.mu.Unlock()
}

// Drain returns all pending events in publish order and clears the queue.
// It returns nil when nothing is pending.
func (c *Channel) Drain() []models.StatusEvent {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}
	events := c.pending
	c.pending = nil
	return events
}

// Pending returns the number of undrained events
func (c *Channel) Pending() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
