package kernel

// MutexType selects re-lock behaviour for the owning thread.
type MutexType uint8

const (
	MutexNormal MutexType = iota
	MutexErrorCheck
	MutexRecursive
)

// Protocol selects priority-inversion handling.
type Protocol uint8

const (
	ProtocolNone Protocol = iota
	ProtocolInherit
	ProtocolProtect
)

// Robustness selects owner-death handling.
type Robustness uint8

const (
	RobustnessStalled Robustness = iota
	RobustnessRobust
)

// MutexMaxRecursion bounds a recursive mutex's lock count. 0xFFFF mirrors
// the closed 16-bit-ish bound used elsewhere for counting primitives
// (see the semaphore's 0x7FFF).
const MutexMaxRecursion = 0xFFFF

// Mutex is a type/protocol/robustness-configurable lock supporting
// priority inheritance, priority ceiling, and robust owner-death
// recovery.
type Mutex struct {
	k    *Kernel
	name string

	mtype      MutexType
	protocol   Protocol
	robustness Robustness
	ceiling    Priority

	owner   *Thread
	count   int
	waiters waitList

	inconsistent  bool // robust: owner died, mark_consistent not yet called
	unrecoverable bool // robust: unlocked while inconsistent, never fixed
}

// MutexAttr configures a new Mutex.
type MutexAttr struct {
	Name       string
	Type       MutexType
	Protocol   Protocol
	Robustness Robustness
	Ceiling    Priority // only meaningful when Protocol == ProtocolProtect
}

// NewMutex creates a mutex per attr. When Protocol is ProtocolProtect,
// Ceiling is validated against [PriorityLowest, PriorityHighest] at
// construction time rather than deferred to the first Lock.
func (k *Kernel) NewMutex(attr MutexAttr) (*Mutex, Result) {
	if attr.Protocol == ProtocolProtect && !attr.Ceiling.Valid() {
		return nil, ErrInval
	}
	return &Mutex{
		k:          k,
		name:       attr.Name,
		mtype:      attr.Type,
		protocol:   attr.Protocol,
		robustness: attr.Robustness,
		ceiling:    attr.Ceiling,
	}, OK
}

func (m *Mutex) Name() string {
	if m.name == "" {
		return "-"
	}
	return m.name
}

// Owner returns the current owner, or nil if unowned.
func (m *Mutex) Owner() *Thread {
	m.k.mu.Lock()
	defer m.k.mu.Unlock()
	return m.owner
}

// Count returns the current recursion count (0 when unowned).
func (m *Mutex) Count() int {
	m.k.mu.Lock()
	defer m.k.mu.Unlock()
	return m.count
}

// Lock acquires the mutex, blocking indefinitely if necessary.
func (m *Mutex) Lock() Result {
	return m.acquire(false, 0, false)
}

// TryLock acquires the mutex without blocking.
func (m *Mutex) TryLock() Result {
	return m.acquire(true, 0, false)
}

// TimedLock acquires the mutex, blocking for at most `ticks` ticks.
func (m *Mutex) TimedLock(ticks uint64) Result {
	return m.acquire(false, ticks, true)
}

// acquire is the shared implementation behind Lock/TryLock/TimedLock.
func (m *Mutex) acquire(try bool, ticks uint64, timed bool) Result {
	k := m.k
	if res := k.requirePermittedContext(); res != OK {
		return res
	}
	k.mu.Lock()
	if m.unrecoverable {
		k.mu.Unlock()
		return ErrNotRecoverable
	}
	caller := k.current
	if k.checkCancelLocked(caller) {
		k.mu.Unlock()
		return ErrIntr
	}

	if m.owner == nil {
		return m.acquireUnownedLocked(caller)
	}

	if m.owner == caller {
		switch m.mtype {
		case MutexRecursive:
			if m.count >= MutexMaxRecursion {
				k.mu.Unlock()
				return ErrInval
			}
			m.count++
			k.mu.Unlock()
			return OK
		case MutexErrorCheck:
			k.mu.Unlock()
			return ErrDeadlk
		default:
			// MutexNormal: the owner re-locking blocks, same as POSIX
			// PTHREAD_MUTEX_NORMAL. try_lock still must not block.
		}
	}

	if try {
		k.mu.Unlock()
		return ErrWouldBlock
	}

	var deadline uint64
	if timed {
		deadline = k.clock.ticks + ticks
	}
	owner := m.owner
	protocol := m.protocol
	reason := k.parkWithHook(&m.waiters, deadline, timed, func() {
		// caller is now queued in m.waiters; owner's boost must be
		// recomputed before we switch away, or the boosted owner would
		// not be picked to run next. Only owner itself is re-boosted:
		// if owner is in turn blocked on another mutex, that mutex's
		// owner is not recomputed here.
		if protocol == ProtocolInherit {
			owner.recomputeBoost()
			if owner.state == StateReady {
				k.reseatReadyLocked(owner)
			}
		}
	})
	switch reason {
	case WakeTimeout:
		return ErrTimedOut
	case WakeInterrupted:
		return ErrIntr
	case WakeOwnerDead:
		return ErrOwnerDead
	default:
		return OK
	}
}

// acquireUnownedLocked grants the mutex to caller. Must be called with
// k.mu held; always releases it.
func (m *Mutex) acquireUnownedLocked(caller *Thread) Result {
	k := m.k
	if m.protocol == ProtocolProtect && caller.effectivePriority() > m.ceiling {
		k.mu.Unlock()
		return ErrInval
	}
	m.owner = caller
	m.count = 1
	if !caller.addOwnedMutex(m) {
		m.owner = nil
		m.count = 0
		k.mu.Unlock()
		return ErrInval
	}
	caller.recomputeBoost()
	wasInconsistent := m.inconsistent
	k.mu.Unlock()
	if wasInconsistent {
		return ErrOwnerDead
	}
	return OK
}

// highestWaiterPriority returns the effective priority of the
// highest-priority thread currently queued on m, if any.
func (m *Mutex) highestWaiterPriority() (Priority, bool) {
	if m.waiters.empty() {
		return 0, false
	}
	best := Priority(0)
	for _, w := range m.waiters.entries {
		if p := w.effectivePriority(); p > best {
			best = p
		}
	}
	return best, true
}

// Unlock releases the mutex. Decrementing to zero clears
// ownership, restores any inheritance boost, and transfers ownership
// directly to the highest-priority, FIFO-oldest waiter — avoiding the
// lock-stealing race an unrelated thread could otherwise win.
func (m *Mutex) Unlock() Result {
	k := m.k
	if res := k.requirePermittedContext(); res != OK {
		return res
	}
	k.mu.Lock()
	caller := k.current
	if m.owner != caller {
		// errorcheck/recursive/robust: only the owner may unlock.
		// normal: POSIX leaves this undefined; we reject it uniformly.
		k.mu.Unlock()
		return ErrPerm
	}
	m.count--
	if m.count > 0 {
		k.mu.Unlock()
		return OK
	}

	caller.removeOwnedMutex(m)
	caller.recomputeBoost()
	m.owner = nil

	if m.robustness == RobustnessRobust && m.inconsistent {
		m.unrecoverable = true
		m.inconsistent = false
	}

	m.wakeNextLocked(WakeNormal)
	k.maybeDispatchLocked()
	return OK
}

// wakeNextLocked transfers ownership of m to its highest-priority,
// FIFO-oldest waiter, if any, and wakes it with the given reason. Must
// be called with k.mu held.
func (m *Mutex) wakeNextLocked(reason WakeReason) {
	w := m.waiters.popHighestPriority()
	if w == nil {
		return
	}
	m.owner = w
	m.count = 1
	if m.inconsistent {
		reason = WakeOwnerDead
	}
	if !w.addOwnedMutex(m) {
		// Bound exceeded: leave the mutex unowned rather than corrupt
		// bookkeeping. This is a programming-limit condition that a
		// correctly sized thread never hits.
		m.owner = nil
		m.count = 0
		m.k.unparkLocked(w, WakeInterrupted, 0)
		return
	}
	w.recomputeBoost()
	m.k.unparkLocked(w, reason, 0)
}

// onOwnerDeath is invoked by Kernel.retire/Kill for every mutex a
// terminated thread still held.
func (m *Mutex) onOwnerDeath(t *Thread) {
	k := m.k
	k.mu.Lock()
	if m.owner != t {
		k.mu.Unlock()
		return
	}
	t.recomputeBoost()
	m.owner = nil
	m.count = 0
	if m.robustness != RobustnessRobust {
		m.wakeNextLocked(WakeNormal)
		k.maybeDispatchLocked()
		return
	}
	m.inconsistent = true
	k.log.WriteLineString("mutex " + m.Name() + " owner died while holding it, marked inconsistent")
	m.wakeNextLocked(WakeOwnerDead)
	k.maybeDispatchLocked()
}

// Destroy releases m, refusing while it is owned or has waiters.
func (m *Mutex) Destroy() Result {
	m.k.mu.Lock()
	defer m.k.mu.Unlock()
	if m.owner != nil || !m.waiters.empty() {
		return ErrBusy
	}
	return OK
}

// MarkConsistent repairs a robust mutex's invariants after its holder
// died. Only valid for the thread that received ErrOwnerDead from
// Lock/TryLock/TimedLock.
func (m *Mutex) MarkConsistent() Result {
	k := m.k
	k.mu.Lock()
	defer k.mu.Unlock()
	if m.owner != k.current {
		return ErrPerm
	}
	if !m.inconsistent {
		return ErrInval
	}
	m.inconsistent = false
	return OK
}
