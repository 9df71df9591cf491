package kernel

import "rtoscore/port"

// ThreadAttr configures a new thread.
type ThreadAttr struct {
	Name       string
	Priority   Priority
	StackBytes int
}

// initThreadLocked assigns t a port thread context. Must be called with
// k.mu held.
func (k *Kernel) initThreadLocked(t *Thread) {
	stackBytes := t.stackBytes
	if stackBytes <= 0 {
		stackBytes = DefaultStackBytes
	}
	t.stackBytes = stackBytes
	entry := t.entry
	arg := t.arg
	t.ctx = k.port.StackInit(func() { k.runThread(t, entry, arg) }, stackBytes)
}

// NewThread creates a thread in the inactive state. It does not become
// runnable until Start is called on it.
func (k *Kernel) NewThread(attr ThreadAttr, entry func(arg any), arg any) (*Thread, Result) {
	if !attr.Priority.Valid() {
		return nil, ErrInval
	}
	if attr.StackBytes != 0 && attr.StackBytes < MinStackBytes {
		return nil, ErrInval
	}
	if res := k.requirePermittedContext(); res != OK {
		return nil, res
	}

	t := &Thread{
		k:            k,
		name:         attr.Name,
		basePriority: attr.Priority,
		stackBytes:   attr.StackBytes,
		state:        StateInactive,
		entry:        entry,
		arg:          arg,
		log:          k.log,
	}

	k.mu.Lock()
	k.initThreadLocked(t)
	k.mu.Unlock()
	return t, OK
}

// runThread is the trampoline every thread context actually runs: it
// recovers a panicking entry function, logging it, and always finishes
// by retiring the thread.
func (k *Kernel) runThread(t *Thread, entry func(any), arg any) {
	defer k.retire(t)
	defer func() {
		if r := recover(); r != nil {
			t.log.WriteLineString("thread " + t.Name() + " panicked")
		}
	}()
	entry(arg)
}

// Start makes an inactive thread ready to run. Starting a thread that
// is not inactive returns ErrInval and changes nothing.
func (k *Kernel) Start(t *Thread) Result {
	if res := k.requirePermittedContext(); res != OK {
		return res
	}
	k.mu.Lock()
	if t.state != StateInactive {
		k.mu.Unlock()
		return ErrInval
	}
	k.makeReadyLocked(t)
	k.maybeDispatchLocked()
	return OK
}

// makeReadyLocked transitions t to ready and enqueues it at the tail of
// its priority level. Requests a context switch if t now outranks the
// current thread. Must be called with k.mu held.
func (k *Kernel) makeReadyLocked(t *Thread) {
	t.state = StateReady
	lvl := t.effectivePriority()
	k.ready[lvl] = append(k.ready[lvl], t)
	if k.current == nil || t.effectivePriority() > k.current.effectivePriority() {
		k.switchPending = true
		k.port.RequestContextSwitch()
	}
}

// pickNextLocked pops and returns the highest-priority, FIFO-oldest
// ready thread, falling back to the idle thread if none is ready. Must
// be called with k.mu held.
func (k *Kernel) pickNextLocked() *Thread {
	for lvl := priorityLevels - 1; lvl >= 0; lvl-- {
		q := k.ready[lvl]
		if len(q) == 0 {
			continue
		}
		t := q[0]
		k.ready[lvl] = append(q[:0], q[1:]...)
		return t
	}
	return k.idle
}

// maybeDispatchLocked realises a pending switch if the scheduler is
// currently unlocked, consuming k.mu (it always unlocks it, on every
// path).
func (k *Kernel) maybeDispatchLocked() {
	if k.lockCount > 0 || !k.switchPending {
		k.mu.Unlock()
		return
	}
	k.dispatchLocked()
}

// dispatchLocked performs the actual switch. Must be called with k.mu
// held, lockCount == 0, and switchPending true; always unlocks k.mu.
func (k *Kernel) dispatchLocked() {
	next := k.pickNextLocked()
	prev := k.current
	k.switchPending = false
	if next == nil || next == prev {
		if next != nil {
			// picked the already-current thread back out of the ready
			// set by mistake (shouldn't happen — current is never
			// enqueued); put it back to be safe.
			k.ready[next.effectivePriority()] = append(k.ready[next.effectivePriority()], next)
		}
		k.mu.Unlock()
		return
	}
	k.current = next
	next.state = StateRunning
	var prevCtx port.ThreadContext
	if prev != nil {
		prevCtx = prev.ctx
	}
	nextCtx := next.ctx
	k.mu.Unlock()
	k.port.ContextSwitchNow(prevCtx, nextCtx)
}

// park moves the calling thread to StateWaiting, enqueues it on list,
// optionally registers it with the tick engine's deadline scan, and
// blocks until some other call makes it current again. It must be
// called with k.mu held, and always releases it. Returns the reason the
// thread was eventually woken.
func (k *Kernel) park(list *waitList, deadline uint64, hasDeadline bool) WakeReason {
	return k.parkWithHook(list, deadline, hasDeadline, nil)
}

// parkWithHook behaves like park, but invokes hook (if non-nil) right
// after t has been pushed onto list and before the context switch away
// from it — the point at which a priority-inheritance boost triggered
// by t's arrival must become visible, so the newly-selected thread
// picks the right one to run.
func (k *Kernel) parkWithHook(list *waitList, deadline uint64, hasDeadline bool, hook func()) WakeReason {
	t := k.current
	t.state = StateWaiting
	t.wakeReason = WakeNone
	t.hasDeadline = hasDeadline
	t.deadline = deadline
	list.push(t)
	if hasDeadline {
		k.deadlines = append(k.deadlines, t)
	}
	if hook != nil {
		hook()
	}

	prevCtx := t.ctx
	k.current = nil
	next := k.pickNextLocked()
	var nextCtx port.ThreadContext
	if next != nil {
		k.current = next
		next.state = StateRunning
		nextCtx = next.ctx
	}
	k.mu.Unlock()

	k.port.ContextSwitchNow(prevCtx, nextCtx)
	return t.wakeReason
}

// unparkLocked removes t from the tick engine's deadline scan (if
// present) and moves it to ready with the given wake reason and
// payload. t must already have been removed from whatever waitList held
// it. Must be called with k.mu held.
func (k *Kernel) unparkLocked(t *Thread, reason WakeReason, payload uint32) {
	if t.hasDeadline {
		k.removeDeadlineLocked(t)
		t.hasDeadline = false
	}
	t.wakeReason = reason
	t.wakePayload = payload
	k.makeReadyLocked(t)
}

func (k *Kernel) removeDeadlineLocked(t *Thread) {
	for i, d := range k.deadlines {
		if d == t {
			k.deadlines = append(k.deadlines[:i], k.deadlines[i+1:]...)
			return
		}
	}
}

// Yield moves the calling thread to the tail of its priority level and
// re-selects the next thread to run.
func (k *Kernel) Yield() Result {
	if res := k.requirePermittedContext(); res != OK {
		return res
	}
	k.mu.Lock()
	t := k.current
	if t == nil {
		k.mu.Unlock()
		return OK
	}
	k.current = nil
	k.ready[t.effectivePriority()] = append(k.ready[t.effectivePriority()], t)
	t.state = StateReady
	next := k.pickNextLocked()
	k.current = next
	next.state = StateRunning
	if next == t {
		k.mu.Unlock()
		return OK
	}
	prevCtx := t.ctx
	nextCtx := next.ctx
	k.mu.Unlock()
	k.port.ContextSwitchNow(prevCtx, nextCtx)
	return OK
}

// Current returns the calling goroutine's thread handle if it is the
// currently scheduled thread. Intended for use from within a thread's
// own entry function; the returned handle is undefined if called from
// any other goroutine.
func (k *Kernel) Current() *Thread {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current
}

// retire transitions a thread that has returned from its entry function
// to StateTerminated, wakes any joiners, and passes every mutex it still
// holds through onOwnerDeath (which marks robust mutexes inconsistent
// and hands non-robust ones to their next waiter).
func (k *Kernel) retire(t *Thread) {
	k.mu.Lock()
	t.state = StateTerminated
	owned := t.ownedMutexes[:t.ownedCount]
	dead := append([]*Mutex(nil), owned...)
	t.ownedCount = 0
	joiners := t.joiners.drain()
	for _, j := range joiners {
		k.unparkLocked(j, WakeNormal, 0)
	}
	k.maybeDispatchLocked()

	for _, m := range dead {
		m.onOwnerDeath(t)
	}
}

// Destroy transitions a terminated thread to StateDestroyed, refusing
// while it is still running or joinable-but-alive.
func (k *Kernel) Destroy(t *Thread) Result {
	k.mu.Lock()
	defer k.mu.Unlock()
	if t.state != StateTerminated {
		return ErrBusy
	}
	t.state = StateDestroyed
	return OK
}

// Join blocks the caller until t terminates.
func (k *Kernel) Join(t *Thread) Result {
	if res := k.requirePermittedContext(); res != OK {
		return res
	}
	k.mu.Lock()
	if t.state == StateTerminated || t.state == StateDestroyed {
		k.mu.Unlock()
		return OK
	}
	reason := k.park(&t.joiners, 0, false)
	if reason == WakeInterrupted {
		return ErrIntr
	}
	return OK
}

// Kill forces t to StateTerminated without running the rest of its
// entry function, waking joiners and releasing owned mutexes exactly as
// a normal exit would. If t is the currently running thread, a
// replacement must be dispatched explicitly since no other event will
// otherwise notice the scheduler is now idle.
func (k *Kernel) Kill(t *Thread) Result {
	k.mu.Lock()
	if t.state == StateTerminated || t.state == StateDestroyed {
		k.mu.Unlock()
		return OK
	}
	if t.waitingOn != nil {
		t.waitingOn.removeThread(t)
	}
	if t.hasDeadline {
		k.removeDeadlineLocked(t)
	}
	if k.current == t {
		k.current = nil
		k.switchPending = true
	} else {
		lvl := t.effectivePriority()
		for i, q := range k.ready[lvl] {
			if q == t {
				k.ready[lvl] = append(k.ready[lvl][:i], k.ready[lvl][i+1:]...)
				break
			}
		}
	}
	t.state = StateTerminated
	owned := t.ownedMutexes[:t.ownedCount]
	dead := append([]*Mutex(nil), owned...)
	t.ownedCount = 0
	joiners := t.joiners.drain()
	for _, j := range joiners {
		k.unparkLocked(j, WakeNormal, 0)
	}
	k.maybeDispatchLocked()

	for _, m := range dead {
		m.onOwnerDeath(t)
	}
	return OK
}

// SetPriority changes t's base priority, taking any inherited boost
// into account for scheduling purposes on the next reschedule point.
func (k *Kernel) SetPriority(t *Thread, p Priority) Result {
	if !p.Valid() {
		return ErrInval
	}
	k.mu.Lock()
	t.basePriority = p
	if t.state == StateReady {
		k.reseatReadyLocked(t)
	}
	k.maybeDispatchLocked()
	return OK
}

// reseatReadyLocked re-enqueues t at the tail of its (possibly changed)
// priority level, used whenever t's effective priority moves while it
// is already sitting in the ready set — an explicit SetPriority, or a
// priority-inheritance boost recomputed while a new waiter queues
// behind t's owned mutex. Must be called with k.mu held and t.state ==
// StateReady.
func (k *Kernel) reseatReadyLocked(t *Thread) {
	for lvl := range k.ready {
		for i, q := range k.ready[lvl] {
			if q == t {
				k.ready[lvl] = append(k.ready[lvl][:i], k.ready[lvl][i+1:]...)
				k.makeReadyLocked(t)
				return
			}
		}
	}
}

// Wakeup delivers an explicit, out-of-band wakeup to a parked thread,
// waking it with WakeInterrupted. Idempotent if t is not currently
// parked.
func (k *Kernel) Wakeup(t *Thread) Result {
	k.mu.Lock()
	if t.waitingOn == nil {
		k.mu.Unlock()
		return OK
	}
	t.waitingOn.removeThread(t)
	k.unparkLocked(t, WakeInterrupted, 0)
	k.maybeDispatchLocked()
	return OK
}

// RequestCancel defers a cancellation request on t: it becomes visible
// at t's next blocking call, which then returns ErrIntr.
func (k *Kernel) RequestCancel(t *Thread) {
	k.mu.Lock()
	t.cancelRequested = true
	k.mu.Unlock()
}

// checkCancelLocked consumes a pending cancellation request. Must be
// called with k.mu held, at the top of every blocking primitive.
func (k *Kernel) checkCancelLocked(t *Thread) bool {
	if t.cancelRequested {
		t.cancelRequested = false
		return true
	}
	return false
}
