//go:build !tinygo

package port

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// TickSource paces a periodic callback at a fixed frequency using
// unix.Nanosleep rather than time.Sleep/time.Ticker, for tighter,
// less jitter-prone pacing under load. It is the host analogue of the
// periodic hardware interrupt that drives SystickHandler on real
// hardware.
type TickSource struct {
	hz    int
	stop  chan struct{}
	ticks atomic.Uint64
}

// NewTickSource creates a tick source firing at hz ticks per second.
func NewTickSource(hz int) *TickSource {
	return &TickSource{hz: hz, stop: make(chan struct{})}
}

// Run invokes fn once per tick period until Stop is called. Intended to
// run on its own goroutine.
func (s *TickSource) Run(fn func()) {
	if s.hz <= 0 {
		return
	}
	period := time.Second / time.Duration(s.hz)
	req := unix.NsecToTimespec(period.Nanoseconds())
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		rem := req
		for {
			err := unix.Nanosleep(&rem, &rem)
			if err == nil {
				break
			}
			if err != unix.EINTR {
				break
			}
		}

		s.ticks.Add(1)
		fn()
	}
}

// Stop halts a running TickSource. Idempotent is not required: callers
// invoke it exactly once, mirroring how a real SysTick is disabled once
// at shutdown.
func (s *TickSource) Stop() {
	close(s.stop)
}

// Ticks returns the number of tick periods elapsed since Run started.
func (s *TickSource) Ticks() uint64 {
	return s.ticks.Load()
}
