package kernel

import (
	"rtoscore/klog"
	"rtoscore/port"
)

// State is a thread's position in its lifecycle state machine:
// undefined → inactive → ready ⇄ running → waiting → … → terminated →
// destroyed.
type State uint8

const (
	StateUndefined State = iota
	StateInactive
	StateReady
	StateRunning
	StateWaiting
	StateTerminated
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateInactive:
		return "inactive"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateTerminated:
		return "terminated"
	case StateDestroyed:
		return "destroyed"
	default:
		return "invalid"
	}
}

// maxOwnedMutexes bounds the inline list of mutexes a thread may hold
// simultaneously, breaking the mutex-thread cyclic reference by having
// the thread maintain a small inline list of the mutexes it owns rather
// than each mutex and thread pointing at each other through a
// heap-allocated collection.
const maxOwnedMutexes = 8

// Thread is the kernel's schedulable unit.
type Thread struct {
	k    *Kernel
	name string

	entry func(arg any)
	arg   any

	stackBytes int
	ctx        port.ThreadContext

	basePriority Priority // priority as created/last SetPriority
	boostedTo    Priority // 0 if not currently boosted by inheritance/ceiling

	state State

	// sigFlags is the thread-private 32-bit signal word, mutated under
	// the scheduler lock; SigRaise's OR is additionally bracketed by the
	// interrupt critical section.
	sigFlags uint32

	// evMask/evMode/evClear hold this thread's pending wait predicate
	// while it is parked in an EventFlags' waiters list (read by that
	// EventFlags' scanAndWakeLocked) or in SigWait (read by SigRaise).
	evMask  uint32
	evMode  WaitMode
	evClear bool

	// sigWaiting and privateWait back SigWait: a thread waits on its own
	// signal word using a dedicated, always-single-occupant waitList so
	// the generic deadline/wakeup/kill removal paths (t.waitingOn.
	// removeThread) work unchanged for this primitive too.
	sigWaiting  bool
	privateWait waitList

	// send/recv fields carry a blocked Queue caller's buffer and
	// priority across the park/unpark boundary, since a slice or a
	// message priority can't ride in the generic uint32 wake payload
	// the way Pool's block index does.
	sendMsg  []byte
	sendPrio uint8
	recvBuf  []byte
	recvLen  int
	recvPrio uint8

	wakeReason WakeReason
	wakePayload uint32 // observed bits for evflags/sigflags wakeups; block index for Pool handoffs

	waitingOn *waitList // the wait list this thread is currently queued in, if any
	deadline  uint64
	hasDeadline bool

	// ownedMutexes is the inline back-reference list used to restore an
	// inherited/ceiling priority boost on unlock and to detect
	// robust-mutex ownership at thread death.
	ownedMutexes [maxOwnedMutexes]*Mutex
	ownedCount   int

	joiners  waitList
	joined   bool
	exitVal  any

	cancelRequested bool

	userStorage any

	log klog.Logger
}

// Name returns the thread's borrow-only display name, defaulted to "-".
func (t *Thread) Name() string {
	if t.name == "" {
		return "-"
	}
	return t.name
}

// Priority returns the thread's current base priority (not including
// any temporary inheritance/ceiling boost).
func (t *Thread) Priority() Priority { return t.basePriority }

// effectivePriority is what the scheduler compares when selecting the
// next thread to run: the higher of the base priority and any boost
// from priority inheritance or a priority-ceiling mutex.
func (t *Thread) effectivePriority() Priority {
	if t.boostedTo > t.basePriority {
		return t.boostedTo
	}
	return t.basePriority
}

// State returns the thread's current lifecycle state.
func (t *Thread) State() State { return t.state }

// UserStorage returns the thread's private user-storage slot.
func (t *Thread) UserStorage() any { return t.userStorage }

// SetUserStorage assigns the thread's private user-storage slot.
func (t *Thread) SetUserStorage(v any) { t.userStorage = v }

// Equal reports whether two thread handles refer to the same thread.
func (t *Thread) Equal(o *Thread) bool { return t == o }

// addOwnedMutex records that t now holds m, for inheritance-restore and
// robustness bookkeeping. Returns false if the bound is exceeded (a
// programming error: no thread in this design holds more than
// maxOwnedMutexes locks at once).
func (t *Thread) addOwnedMutex(m *Mutex) bool {
	if t.ownedCount >= maxOwnedMutexes {
		return false
	}
	t.ownedMutexes[t.ownedCount] = m
	t.ownedCount++
	return true
}

func (t *Thread) removeOwnedMutex(m *Mutex) {
	for i := 0; i < t.ownedCount; i++ {
		if t.ownedMutexes[i] == m {
			t.ownedCount--
			t.ownedMutexes[i] = t.ownedMutexes[t.ownedCount]
			t.ownedMutexes[t.ownedCount] = nil
			return
		}
	}
}

// recomputeBoost recalculates t's inheritance boost from the priority
// ceiling/inherit mutexes it currently owns, transitively: a mutex
// owned by t may itself have waiters, and the highest of those waiters'
// effective priorities (which may itself include a boost) is what t
// inherits.
func (t *Thread) recomputeBoost() {
	best := Priority(0)
	for i := 0; i < t.ownedCount; i++ {
		m := t.ownedMutexes[i]
		if m.protocol == ProtocolInherit {
			if p, ok := m.highestWaiterPriority(); ok && p > best {
				best = p
			}
		}
		if m.protocol == ProtocolProtect && m.ceiling > best {
			best = m.ceiling
		}
	}
	t.boostedTo = best
}
