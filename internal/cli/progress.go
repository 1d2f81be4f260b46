package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/foldermirror/foldermirror/pkg/models"
	"github.com/foldermirror/foldermirror/pkg/status"
)

// phaseLabels maps counted phases to the bar prefix shown next to them
var phaseLabels = map[models.Phase]string{
	models.PhaseHashing: "Hashing",
	models.PhaseSyncing: "Syncing",
}

// statusConsumer drains the engine's status channel on a fixed cadence and
// renders counted phases as progress bars. The engine never blocks on it;
// it just reads whatever accumulated since the last tick.
type statusConsumer struct {
	ch    *status.Channel
	quiet bool

	bars map[models.Phase]*pb.ProgressBar
	stop chan struct{}
	done chan struct{}
}

// newStatusConsumer starts a consumer goroutine polling every 100ms
func newStatusConsumer(ch *status.Channel, quiet bool) *statusConsumer {
	c := &statusConsumer{
		ch:    ch,
		quiet: quiet,
		bars:  make(map[models.Phase]*pb.ProgressBar),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *statusConsumer) run() {
	defer close(c.done)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.handleAll(c.ch.Drain())
		case <-c.stop:
			// Final drain so late events are not lost
			c.handleAll(c.ch.Drain())
			c.finishBars()
			return
		}
	}
}

func (c *statusConsumer) handleAll(events []models.StatusEvent) {
	for _, e := range events {
		c.handle(e)
	}
}

func (c *statusConsumer) handle(e models.StatusEvent) {
	switch e.Phase {
	case models.PhaseScanningSource, models.PhaseScanningDest, models.PhaseScanningBoth:
		if !c.quiet {
			fmt.Fprintln(os.Stderr, "Scanning...")
		}

	case models.PhaseHashing, models.PhaseSyncing:
		if c.quiet {
			return
		}
		bar, ok := c.bars[e.Phase]
		if !ok {
			bar = pb.Full.Start(e.Total)
			bar.SetWriter(os.Stderr)
			bar.Set("prefix", phaseLabels[e.Phase]+" ")
			c.bars[e.Phase] = bar
		}
		bar.SetCurrent(int64(e.Current))
		if e.Current >= e.Total {
			bar.Finish()
		}

	case models.PhaseError:
		c.finishBars()
		fmt.Fprintf(os.Stderr, "Error: %s\n", e.Message)

	case models.PhaseComplete:
		c.finishBars()
	}
}

func (c *statusConsumer) finishBars() {
	for phase, bar := range c.bars {
		bar.Finish()
		delete(c.bars, phase)
	}
}

// Stop drains remaining events and waits for the consumer to exit
func (c *statusConsumer) Stop() {
	close(c.stop)
	<-c.done
}
