package status

import (
	"sync"

	"github.com/foldermirror/foldermirror/pkg/models"
)

// Reporter publishes coarse-interval progress for one phase. Workers call
// Increment once per finished item; an event is emitted every interval-th
// item and for the final one. Published Current values are monotonically
// non-decreasing even under concurrent increments, and the final event
// always carries Current == Total.
type Reporter struct {
	ch       *Channel
	phase    models.Phase
	total    int
	interval int

	mu   sync.Mutex
	done int
}

// NewReporter creates a reporter for a phase with a known item total
func NewReporter(ch *Channel, phase models.Phase, total, interval int) *Reporter {
	if interval < 1 {
		interval = 1
	}
	return &Reporter{
		ch:       ch,
		phase:    phase,
		total:    total,
		interval: interval,
	}
}

// Increment records one finished item and publishes when the cadence is due
func (r *Reporter) Increment() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.done++
	if r.done%r.interval != 0 && r.done != r.total {
		return
	}
	// Publishing under the lock keeps drained Current values non-decreasing
	r.ch.Publish(models.NewProgressEvent(r.phase, r.done, r.total))
}
