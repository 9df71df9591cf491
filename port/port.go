// Package port defines the boundary between the kernel core and the
// hardware/runtime it executes on: interrupt masking, context switching,
// and stack/thread-context creation. The core never touches a register or
// a goroutine primitive directly; it calls out through this interface.
//
// Two implementations are provided: Host (build tag !tinygo), backed by
// goroutines and channels for development and the test suite, and
// Baremetal (build tag tinygo && baremetal), backed by the tinygo
// "machine" package for real Cortex-M targets.
package port

// Status is an opaque interrupt-mask snapshot produced by InterruptsMask
// and consumed by InterruptsRestore. Callers must not inspect its value.
type Status uint32

// ThreadContext is an opaque, per-thread execution context created by
// StackInit. It exposes exactly the two operations the scheduler needs to
// hand off the CPU: Resume (make this context runnable) and Suspend
// (block the calling context until it is next resumed).
type ThreadContext interface {
	Resume()
	Suspend()
}

// Port is the set of primitives the kernel core requires from its
// environment.
type Port interface {
	// InterruptsMask disables interrupts at or below the kernel's
	// configured priority and returns a token that restores the prior
	// mask state.
	InterruptsMask() Status

	// InterruptsRestore restores a previously captured interrupt mask.
	InterruptsRestore(Status)

	// InHandlerMode reports whether the caller is running inside an
	// interrupt handler.
	InHandlerMode() bool

	// RequestContextSwitch marks a context switch as pending. The switch
	// is realised later, at the next call to ContextSwitchNow.
	RequestContextSwitch()

	// ContextSwitchNow performs a context switch: resumes to and, if
	// from is non-nil, suspends the caller until it is resumed again.
	// The caller must be running in the context named by from.
	ContextSwitchNow(from, to ThreadContext)

	// StackInit prepares an execution context that will run entry when
	// first resumed. stackBytes is advisory; both the host and the
	// baremetal port currently ignore it.
	StackInit(entry func(), stackBytes int) ThreadContext
}

// TickReader is an optional capability a Port may implement: an
// externally driven monotonic tick source. Neither port in this package
// implements it, and the kernel does not consult it: the system clock
// is advanced purely by increment in SystickHandler.
type TickReader interface {
	TickRead() (ticks uint64, ok bool)
}
