package autosend

import (
	"context"
	"time"
)

type signalKind int

const (
	sigPause signalKind = iota
	sigResume
	sigCancel
)

// countdown is a timer actor with three external signals (pause, resume,
// cancel) and one expiry outcome. It owns no state beyond its tick budget;
// the pending message it times is managed by the Service.
type countdown struct {
	interval  time.Duration
	remaining int
	signals   chan signalKind
	stopped   chan struct{}
}

func newCountdown(ticks int, interval time.Duration) *countdown {
	return &countdown{
		interval:  interval,
		remaining: ticks,
		signals:   make(chan signalKind),
		stopped:   make(chan struct{}),
	}
}

// run drives the actor until expiry, cancellation, or ctx death. onTick fires
// after every elapsed tick with the remaining count; onDone fires exactly
// once, with expired=true only when the full budget elapsed.
func (c *countdown) run(ctx context.Context, onTick func(remaining int), onDone func(expired bool)) {
	defer close(c.stopped)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	paused := false
	for {
		select {
		case <-ctx.Done():
			onDone(false)
			return
		case sig := <-c.signals:
			switch sig {
			case sigPause:
				paused = true
			case sigResume:
				paused = false
			case sigCancel:
				onDone(false)
				return
			}
		case <-ticker.C:
			if paused {
				continue
			}
			c.remaining--
			onTick(c.remaining)
			if c.remaining <= 0 {
				onDone(true)
				return
			}
		}
	}
}

// signal delivers s unless the actor already stopped.
func (c *countdown) signal(s signalKind) bool {
	select {
	case c.signals <- s:
		return true
	case <-c.stopped:
		return false
	}
}

func (c *countdown) pause() bool  { return c.signal(sigPause) }
func (c *countdown) resume() bool { return c.signal(sigResume) }
func (c *countdown) cancel() bool { return c.signal(sigCancel) }
