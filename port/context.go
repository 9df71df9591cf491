package port

// chanContext is the shared ThreadContext implementation for both the
// host and baremetal ports: a goroutine gated by a single-slot resume
// channel. Both build targets run on top of a goroutine scheduler
// (the Go runtime for the host build, tinygo's cooperative task
// scheduler for the baremetal build), so the same handoff mechanism
// works for either; only interrupt masking and tick pacing differ
// between the two ports.
type chanContext struct {
	resume chan struct{}
}

// newChanContext creates a suspended context that will run entry the
// first time it is resumed.
func newChanContext(entry func()) *chanContext {
	c := &chanContext{resume: make(chan struct{}, 1)}
	go func() {
		c.Suspend()
		entry()
	}()
	return c
}

// Resume makes the context runnable. Safe to call from any goroutine,
// including a simulated interrupt handler.
func (c *chanContext) Resume() {
	select {
	case c.resume <- struct{}{}:
	default:
		// Already has a pending resume; Resume is idempotent, matching
		// the fact that a thread can only be made ready once between
		// two dispatches.
	}
}

// Suspend blocks the calling goroutine until the next Resume. The
// caller must be the goroutine created by newChanContext for this
// context.
func (c *chanContext) Suspend() {
	<-c.resume
}
