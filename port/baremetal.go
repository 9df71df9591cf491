//go:build tinygo && baremetal

package port

import (
	"machine"
	"runtime/interrupt"
)

// Baremetal is the Port implementation for a real Cortex-M target:
// global interrupt masking uses tinygo's runtime/interrupt package, and
// thread contexts reuse the same goroutine/channel handoff as the host
// port since tinygo's own cooperative task scheduler runs goroutines on
// bare metal too.
type Baremetal struct {
	isrDepth uint32
}

// NewBaremetal creates a Port bound to the running microcontroller.
func NewBaremetal() *Baremetal {
	return &Baremetal{}
}

// InterruptsMask disables interrupts and returns the prior state so it
// can be restored later.
func (b *Baremetal) InterruptsMask() Status {
	st := interrupt.Disable()
	return Status(st)
}

// InterruptsRestore restores the interrupt state captured by
// InterruptsMask.
func (b *Baremetal) InterruptsRestore(s Status) {
	interrupt.Restore(interrupt.State(s))
}

// InHandlerMode reports whether the CPU is currently servicing an
// interrupt, read from the NVIC via machine.CPUInterrupt.
func (b *Baremetal) InHandlerMode() bool {
	return machine.CPUInterrupt{}.InHandler()
}

// RequestContextSwitch pends the PendSV exception, the standard
// Cortex-M mechanism for deferring a context switch to the lowest
// hardware priority.
func (b *Baremetal) RequestContextSwitch() {
	machine.SetPendSV()
}

// ContextSwitchNow resumes to and, if from is non-nil, suspends the
// caller until it is next resumed. Mechanically identical to the host
// port: tinygo's baremetal builds still schedule goroutines
// cooperatively, so the same channel handoff applies.
func (b *Baremetal) ContextSwitchNow(from, to ThreadContext) {
	to.Resume()
	if from != nil {
		from.Suspend()
	}
}

// StackInit creates a goroutine-backed thread context. stackBytes is
// accepted for interface parity but not used: the goroutine gets
// tinygo's own default stack.
func (b *Baremetal) StackInit(entry func(), stackBytes int) ThreadContext {
	return newChanContext(entry)
}

// TickRead is deliberately not implemented: the baremetal port drives
// the tick engine purely from the SysTick interrupt handler, so
// Baremetal does not satisfy TickReader.
