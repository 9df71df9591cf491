package kernel

// CondVar is a wait queue associated with a caller-supplied Mutex at
// each wait call, releasing that mutex atomically with respect to a
// concurrent Signal/Broadcast and re-acquiring it before returning.
type CondVar struct {
	k       *Kernel
	name    string
	waiters waitList
}

// NewCondVar creates a condition variable.
func (k *Kernel) NewCondVar(name string) *CondVar {
	return &CondVar{k: k, name: name}
}

func (c *CondVar) Name() string {
	if c.name == "" {
		return "-"
	}
	return c.name
}

// Wait atomically unlocks m and blocks the caller until signalled,
// broadcast to, or interrupted, then re-locks m before returning,
// regardless of the wake reason.
func (c *CondVar) Wait(m *Mutex) Result {
	return c.wait(m, 0, false)
}

// TimedWait behaves like Wait but returns ErrTimedOut if ticks elapse
// first. Either way, m is re-locked before returning.
func (c *CondVar) TimedWait(m *Mutex, ticks uint64) Result {
	return c.wait(m, ticks, true)
}

func (c *CondVar) wait(m *Mutex, ticks uint64, timed bool) Result {
	k := c.k
	if res := k.requirePermittedContext(); res != OK {
		return res
	}
	k.mu.Lock()
	caller := k.current
	if m.owner != caller {
		k.mu.Unlock()
		return ErrPerm
	}
	if k.checkCancelLocked(caller) {
		k.mu.Unlock()
		return ErrIntr
	}

	// Release m exactly as Unlock would, but without leaving the
	// scheduler critical section in between: the drop and the enqueue
	// onto c.waiters must be atomic with respect to a concurrent
	// Signal/Broadcast racing to observe "who is currently waiting".
	m.count = 0
	caller.removeOwnedMutex(m)
	caller.recomputeBoost()
	m.owner = nil
	m.wakeNextLocked(WakeNormal)

	var deadline uint64
	if timed {
		deadline = k.clock.ticks + ticks
	}
	reason := k.park(&c.waiters, deadline, timed)

	// Re-acquire m before returning to the caller, regardless of why we
	// woke; this may itself block.
	relock := m.acquire(false, 0, false)

	switch reason {
	case WakeTimeout:
		if relock != OK {
			return relock
		}
		return ErrTimedOut
	case WakeInterrupted:
		if relock != OK {
			return relock
		}
		return ErrIntr
	default:
		return relock
	}
}

// Destroy releases c, refusing while any thread is waiting on it.
func (c *CondVar) Destroy() Result {
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	if !c.waiters.empty() {
		return ErrBusy
	}
	return OK
}

// Signal wakes at most one waiter: the highest-priority one, FIFO-oldest
// among equals.
func (c *CondVar) Signal() Result {
	k := c.k
	k.mu.Lock()
	w := c.waiters.popHighestPriority()
	if w == nil {
		k.mu.Unlock()
		return OK
	}
	k.unparkLocked(w, WakeNormal, 0)
	k.maybeDispatchLocked()
	return OK
}

// Broadcast wakes every current waiter.
func (c *CondVar) Broadcast() Result {
	k := c.k
	k.mu.Lock()
	woken := c.waiters.drain()
	for _, w := range woken {
		k.unparkLocked(w, WakeNormal, 0)
	}
	k.maybeDispatchLocked()
	return OK
}
