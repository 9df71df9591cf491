package kernel

// SemaphoreMaxCount is the default bound on a counting semaphore's
// count when no construction-time max is given, and the largest max
// NewSemaphore accepts.
const SemaphoreMaxCount = 0x7FFF

// Semaphore is a counting (or binary) semaphore with plain FIFO wake
// order — no priority weighting, since a semaphore grants a resource
// unit rather than exclusive ownership of a contended object.
type Semaphore struct {
	k    *Kernel
	name string

	count    int
	maxCount int

	waiters waitList
}

// SemaphoreAttr configures a new Semaphore.
type SemaphoreAttr struct {
	Name         string
	InitialCount int
	MaxCount     int // 0 selects SemaphoreMaxCount
}

// NewSemaphore creates a semaphore per attr.
func (k *Kernel) NewSemaphore(attr SemaphoreAttr) (*Semaphore, Result) {
	max := attr.MaxCount
	if max == 0 {
		max = SemaphoreMaxCount
	}
	if max < 0 || max > SemaphoreMaxCount {
		return nil, ErrInval
	}
	if attr.InitialCount < 0 || attr.InitialCount > max {
		return nil, ErrInval
	}
	return &Semaphore{k: k, name: attr.Name, count: attr.InitialCount, maxCount: max}, OK
}

func (s *Semaphore) Name() string {
	if s.name == "" {
		return "-"
	}
	return s.name
}

// Count returns the current count.
func (s *Semaphore) Count() int {
	s.k.mu.Lock()
	defer s.k.mu.Unlock()
	return s.count
}

// Post increments the count, or wakes one waiter directly if any are
// queued, transferring the unit to it without ever making it publicly
// visible in count. Returns ErrOverflow if the count is already at
// max and no waiter is queued. Safe to call from interrupt context: the
// count itself, the one piece of state an ISR touches directly, is
// additionally bracketed by the port's interrupt mask, nested inside
// the scheduler lock.
func (s *Semaphore) Post() Result {
	k := s.k
	k.mu.Lock()
	w := s.waiters.popHead()
	if w != nil {
		k.unparkLocked(w, WakeNormal, 0)
		k.maybeDispatchLocked()
		return OK
	}
	st := k.port.InterruptsMask()
	overflow := s.count >= s.maxCount
	if !overflow {
		s.count++
	}
	k.port.InterruptsRestore(st)
	k.mu.Unlock()
	if overflow {
		return ErrOverflow
	}
	return OK
}

// Wait blocks until a unit is available.
func (s *Semaphore) Wait() Result {
	return s.acquire(false, 0, false)
}

// TryWait acquires a unit without blocking.
func (s *Semaphore) TryWait() Result {
	return s.acquire(true, 0, false)
}

// TimedWait blocks for at most ticks ticks.
func (s *Semaphore) TimedWait(ticks uint64) Result {
	return s.acquire(false, ticks, true)
}

func (s *Semaphore) acquire(try bool, ticks uint64, timed bool) Result {
	k := s.k
	if res := k.requirePermittedContext(); res != OK {
		return res
	}
	k.mu.Lock()
	t := k.current
	if k.checkCancelLocked(t) {
		k.mu.Unlock()
		return ErrIntr
	}
	if s.count > 0 {
		s.count--
		k.mu.Unlock()
		return OK
	}
	if try {
		k.mu.Unlock()
		return ErrWouldBlock
	}
	var deadline uint64
	if timed {
		deadline = k.clock.ticks + ticks
	}
	reason := k.park(&s.waiters, deadline, timed)
	switch reason {
	case WakeTimeout:
		return ErrTimedOut
	case WakeInterrupted:
		return ErrIntr
	default:
		return OK
	}
}

// Destroy releases s, refusing while any thread is waiting on it.
func (s *Semaphore) Destroy() Result {
	s.k.mu.Lock()
	defer s.k.mu.Unlock()
	if !s.waiters.empty() {
		return ErrBusy
	}
	return OK
}

// Reset sets the count to n and wakes every current waiter with
// ErrIntr, invalidating every pending wait rather than silently
// leaving them queued against a count they no longer agree with.
func (s *Semaphore) Reset(n int) Result {
	if n < 0 || n > s.maxCount {
		return ErrInval
	}
	k := s.k
	k.mu.Lock()
	s.count = n
	woken := s.waiters.drain()
	for _, w := range woken {
		k.unparkLocked(w, WakeInterrupted, 0)
	}
	k.maybeDispatchLocked()
	return OK
}
