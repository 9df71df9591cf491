package kernel

// SleepFor blocks the calling thread for at least d ticks. Normal
// expiry returns ErrTimedOut — for a pure delay, running to completion
// is the expected outcome, not a failure. Waking
// early (a signal flag, an explicit Wakeup, or a pending cancellation)
// returns ErrIntr.
func (k *Kernel) SleepFor(ticks uint64) Result {
	if res := k.requirePermittedContext(); res != OK {
		return res
	}
	k.mu.Lock()
	t := k.current
	if k.checkCancelLocked(t) {
		k.mu.Unlock()
		return ErrIntr
	}
	deadline := k.clock.ticks + ticks
	reason := k.park(&k.sleepList, deadline, true)
	if reason == WakeInterrupted {
		return ErrIntr
	}
	return ErrTimedOut
}

// WaitFor blocks the calling thread for at most d ticks, waiting for an
// external event. Identical to SleepFor except that waking early is
// success: it returns OK instead of ErrIntr.
func (k *Kernel) WaitFor(ticks uint64) Result {
	if res := k.requirePermittedContext(); res != OK {
		return res
	}
	k.mu.Lock()
	t := k.current
	if k.checkCancelLocked(t) {
		k.mu.Unlock()
		return ErrIntr
	}
	deadline := k.clock.ticks + ticks
	reason := k.park(&k.sleepList, deadline, true)
	if reason == WakeInterrupted {
		return OK
	}
	return ErrTimedOut
}
