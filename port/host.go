//go:build !tinygo

package port

import (
	"sync"
	"sync/atomic"
)

// Host is the development/test Port: it stands in for hardware
// interrupt masking with a plain mutex and for a hardware ISR with an
// explicit EnterISR wrapper, and it drives thread contexts with
// goroutines gated by chanContext (see context.go).
type Host struct {
	mu  sync.Mutex
	isr atomic.Bool
}

// NewHost creates a Port suitable for running the kernel on a
// development machine or under `go test`.
func NewHost() *Host {
	return &Host{}
}

// InterruptsMask acquires the host's single interrupt-shared-state lock.
// Status is unused on the host port beyond satisfying the Port
// interface; the lock itself carries the "masked" state.
func (h *Host) InterruptsMask() Status {
	h.mu.Lock()
	return 1
}

// InterruptsRestore releases the lock acquired by InterruptsMask.
func (h *Host) InterruptsRestore(Status) {
	h.mu.Unlock()
}

// InHandlerMode reports whether the calling goroutine is inside an
// EnterISR call. The host only ever simulates one interrupt context at
// a time, matching the single-core, non-nested-interrupt model this
// kernel targets.
func (h *Host) InHandlerMode() bool {
	return h.isr.Load()
}

// EnterISR runs fn with InHandlerMode reporting true, standing in for a
// hardware interrupt invoking SystickHandler/RtcHandler or a driver
// ISR calling Semaphore.Post/EventFlags.Raise.
func (h *Host) EnterISR(fn func()) {
	h.isr.Store(true)
	defer h.isr.Store(false)
	fn()
}

// RequestContextSwitch is a no-op on the host port: the scheduler
// tracks its own pending-switch flag and calls ContextSwitchNow
// directly once its lock count reaches zero. On real hardware this
// would set the PendSV-pending bit.
func (h *Host) RequestContextSwitch() {}

// ContextSwitchNow resumes to and, if from is non-nil, suspends the
// caller until it is next resumed.
func (h *Host) ContextSwitchNow(from, to ThreadContext) {
	to.Resume()
	if from != nil {
		from.Suspend()
	}
}

// StackInit creates a goroutine-backed thread context. stackBytes is
// accepted for interface parity with the baremetal port but otherwise
// unused: the host relies on the Go runtime's growable stacks.
func (h *Host) StackInit(entry func(), stackBytes int) ThreadContext {
	return newChanContext(entry)
}
