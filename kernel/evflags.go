package kernel

// WaitMode selects how EventFlags.Wait matches its mask against the
// current bits.
type WaitMode uint8

const (
	WaitAny WaitMode = iota
	WaitAll
)

// EventFlags is a shared 32-bit flag word with any/all wait predicates
// and optional consume-on-wake clearing. Each
// waiter's mask/mode/clear predicate travels on the Thread itself
// (evMask/evMode/evClear) so EventFlags can reuse the same waitList,
// and the same tick-engine/Wakeup/Kill removal paths, as every other
// blocking primitive.
type EventFlags struct {
	k    *Kernel
	name string

	bits    uint32
	waiters waitList
}

// NewEventFlags creates an event-flag group, initially all-clear.
func (k *Kernel) NewEventFlags(name string) *EventFlags {
	return &EventFlags{k: k, name: name}
}

func (e *EventFlags) Name() string {
	if e.name == "" {
		return "-"
	}
	return e.name
}

// Get returns the current bits.
func (e *EventFlags) Get() uint32 {
	e.k.mu.Lock()
	defer e.k.mu.Unlock()
	return e.bits
}

// Raise ORs mask into the flag word, then scans every waiter in FIFO
// order and wakes any whose predicate now holds. The awakened bits, as
// observed at wake time, are delivered back to each woken thread via
// its wake payload. Safe to call from interrupt context: the OR into the
// flag word is additionally bracketed by the port's interrupt mask,
// nested inside the scheduler lock.
func (e *EventFlags) Raise(mask uint32) Result {
	k := e.k
	k.mu.Lock()
	st := k.port.InterruptsMask()
	e.bits |= mask
	k.port.InterruptsRestore(st)
	e.scanAndWakeLocked()
	k.maybeDispatchLocked()
	return OK
}

// Clear ANDs the flag word with ^mask, clearing the given bits without
// waking anyone (a clear can only ever make predicates harder to
// satisfy).
func (e *EventFlags) Clear(mask uint32) Result {
	k := e.k
	k.mu.Lock()
	e.bits &^= mask
	k.mu.Unlock()
	return OK
}

// Destroy releases e, refusing while any thread is waiting on it.
func (e *EventFlags) Destroy() Result {
	e.k.mu.Lock()
	defer e.k.mu.Unlock()
	if !e.waiters.empty() {
		return ErrBusy
	}
	return OK
}

// Wait blocks until mask is satisfied under mode. When clear is true,
// the satisfying bits are consumed (cleared) atomically with the wake.
// Returns the bits observed at the moment the predicate was satisfied.
func (e *EventFlags) Wait(mask uint32, mode WaitMode, clear bool) (uint32, Result) {
	return e.wait(mask, mode, clear, false, 0, false)
}

// TryWait is Wait without blocking.
func (e *EventFlags) TryWait(mask uint32, mode WaitMode, clear bool) (uint32, Result) {
	return e.wait(mask, mode, clear, true, 0, false)
}

// TimedWait is Wait bounded by ticks ticks.
func (e *EventFlags) TimedWait(mask uint32, mode WaitMode, clear bool, ticks uint64) (uint32, Result) {
	return e.wait(mask, mode, clear, false, ticks, true)
}

func satisfied(bits, mask uint32, mode WaitMode) bool {
	if mode == WaitAll {
		return bits&mask == mask
	}
	return mask == 0 || bits&mask != 0
}

func (e *EventFlags) wait(mask uint32, mode WaitMode, clear, try bool, ticks uint64, timed bool) (uint32, Result) {
	k := e.k
	if res := k.requirePermittedContext(); res != OK {
		return 0, res
	}
	k.mu.Lock()
	t := k.current
	if k.checkCancelLocked(t) {
		k.mu.Unlock()
		return 0, ErrIntr
	}
	if satisfied(e.bits, mask, mode) {
		observed := e.bits & mask
		if clear {
			e.bits &^= mask
		}
		k.mu.Unlock()
		return observed, OK
	}
	if try {
		k.mu.Unlock()
		return 0, ErrWouldBlock
	}

	t.evMask, t.evMode, t.evClear = mask, mode, clear
	var deadline uint64
	if timed {
		deadline = k.clock.ticks + ticks
	}
	reason := k.park(&e.waiters, deadline, timed)
	switch reason {
	case WakeTimeout:
		return 0, ErrTimedOut
	case WakeInterrupted:
		return 0, ErrIntr
	default:
		return t.wakePayload, OK
	}
}

// scanAndWakeLocked walks every queued waiter in FIFO order and wakes
// each one whose predicate the current bits now satisfy. Must be
// called with k.mu held.
func (e *EventFlags) scanAndWakeLocked() {
	queued := append([]*Thread(nil), e.waiters.entries...)
	for _, w := range queued {
		if !satisfied(e.bits, w.evMask, w.evMode) {
			continue
		}
		e.waiters.removeThread(w)
		observed := e.bits & w.evMask
		if w.evClear {
			e.bits &^= w.evMask
		}
		e.k.unparkLocked(w, WakeNormal, observed)
	}
}
