// Package kernel implements the deterministic, single-core,
// priority-preemptive scheduler core and the blocking primitives built
// on top of it: threads, clocks, timers, mutexes, condition variables,
// semaphores, event flags, thread signal flags, fixed-block memory
// pools, and priority message queues.
package kernel

import (
	"sync"

	"rtoscore/klog"
	"rtoscore/port"
)

// Kernel is the process-wide scheduler/clock singleton. Rather than
// hiding it behind package-level globals, callers hold an explicit
// *Kernel and pass it to every object constructor, which keeps the
// package free of init-order surprises and makes tests trivially
// parallel (each test gets its own Kernel).
type Kernel struct {
	mu   sync.Mutex
	port port.Port
	log  klog.Logger

	ready     [priorityLevels][]*Thread
	current   *Thread
	idle      *Thread
	lockCount int
	switchPending bool

	deadlines []*Thread // threads parked with a deadline, scanned each tick
	sleepList waitList  // deadline-only wait list backing SleepFor/WaitFor

	clock Clock
	rtc   RealTimeClock
	timers timerWheel

	started bool
}

// New creates a Kernel bound to the given Port. Callers must call
// Initialize before creating any thread or synchronisation object, and
// Run exactly once to begin scheduling.
func New(p port.Port) *Kernel {
	return &Kernel{port: p, log: klog.Discard}
}

// SetLogger installs the sink for structural kernel events: a thread
// entry function panicking, and a robust mutex being marked inconsistent
// because its owner died while holding it. The default is klog.Discard.
func (k *Kernel) SetLogger(l klog.Logger) {
	if l == nil {
		l = klog.Discard
	}
	k.log = l
}

// Initialize prepares the ready set and creates the idle thread. The
// caller supplies the entry function for the initial ("main") thread
// separately, via NewThread + Start.
func (k *Kernel) Initialize() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.idle != nil {
		return
	}
	idle := &Thread{
		k:            k,
		name:         "idle",
		basePriority: PriorityIdle,
		state:        StateInactive,
		entry:        func(any) { k.idleLoop() },
	}
	k.idle = idle
	k.initThreadLocked(idle)
}

// idleLoop is the body of the idle thread: it never blocks in a wait
// list, it simply yields forever so the scheduler always has a
// runnable thread at PriorityIdle.
func (k *Kernel) idleLoop() {
	for {
		k.Yield()
	}
}

// Lock enters the scheduler critical section. It is
// nestable: the outermost matching Unlock re-enables rescheduling and
// realises any switch that was requested while locked. Lock returns the
// previous lock-count so callers can restore it, mirroring
// interrupts_mask/interrupts_restore's status-token shape.
func (k *Kernel) Lock() int {
	k.mu.Lock()
	prev := k.lockCount
	k.lockCount++
	k.mu.Unlock()
	return prev
}

// Unlock leaves one level of the scheduler critical section. When the
// lock count reaches zero and a switch was requested while locked, the
// pending switch is realised before Unlock returns to the newly
// descheduled caller.
func (k *Kernel) Unlock(prev int) {
	k.mu.Lock()
	k.lockCount = prev
	k.maybeDispatchLocked()
}

// InHandlerMode reports whether the caller is executing inside a
// simulated interrupt handler.
func (k *Kernel) InHandlerMode() bool {
	return k.port.InHandlerMode()
}

// Run performs the initial dispatch and then blocks the calling
// goroutine forever. Call it once, after Initialize and after starting
// at least the main thread.
func (k *Kernel) Run() {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return
	}
	next := k.pickNextLocked()
	if next == nil {
		k.mu.Unlock()
		return
	}
	k.started = true
	k.current = next
	next.state = StateRunning
	nextCtx := next.ctx
	k.mu.Unlock()

	k.port.ContextSwitchNow(nil, nextCtx)
	select {}
}

// requirePermittedContext returns ErrPerm if called from handler mode,
// for operations that require thread context.
func (k *Kernel) requirePermittedContext() Result {
	if k.port.InHandlerMode() {
		return ErrPerm
	}
	return OK
}
