// Package rtos is the module's public façade: it re-exports the kernel
// package's primitive and attribute types as aliases, its result codes
// and enumerations as constants, and wraps *kernel.Kernel so that the
// constructors and operations are reached through the embedded kernel
// methods. kernel remains the mechanism; no primitive is reimplemented
// or renamed here.
package rtos

import (
	"rtoscore/kernel"
	"rtoscore/port"
)

// Re-exported types so callers of this package never need to import
// kernel directly.
type (
	Result     = kernel.Result
	WakeReason = kernel.WakeReason
	Priority   = kernel.Priority
	State      = kernel.State
	MutexType  = kernel.MutexType
	Protocol   = kernel.Protocol
	Robustness = kernel.Robustness
	WaitMode   = kernel.WaitMode
	TimerKind  = kernel.TimerKind

	Thread     = kernel.Thread
	Mutex      = kernel.Mutex
	CondVar    = kernel.CondVar
	Semaphore  = kernel.Semaphore
	EventFlags = kernel.EventFlags
	Pool       = kernel.Pool
	Queue      = kernel.Queue
	Timer      = kernel.Timer

	ThreadAttr    = kernel.ThreadAttr
	MutexAttr     = kernel.MutexAttr
	SemaphoreAttr = kernel.SemaphoreAttr
	PoolAttr      = kernel.PoolAttr
	QueueAttr     = kernel.QueueAttr
)

const (
	OK                = kernel.OK
	ErrPerm           = kernel.ErrPerm
	ErrIntr           = kernel.ErrIntr
	ErrInval          = kernel.ErrInval
	ErrDeadlk         = kernel.ErrDeadlk
	ErrTimedOut       = kernel.ErrTimedOut
	ErrWouldBlock     = kernel.ErrWouldBlock
	ErrMsgSize        = kernel.ErrMsgSize
	ErrBadMsg         = kernel.ErrBadMsg
	ErrOwnerDead      = kernel.ErrOwnerDead
	ErrNotRecoverable = kernel.ErrNotRecoverable
	ErrOverflow       = kernel.ErrOverflow
	ErrBusy           = kernel.ErrBusy
)

const (
	MutexNormal     = kernel.MutexNormal
	MutexErrorCheck = kernel.MutexErrorCheck
	MutexRecursive  = kernel.MutexRecursive

	ProtocolNone    = kernel.ProtocolNone
	ProtocolInherit = kernel.ProtocolInherit
	ProtocolProtect = kernel.ProtocolProtect

	RobustnessStalled = kernel.RobustnessStalled
	RobustnessRobust  = kernel.RobustnessRobust

	WaitAny = kernel.WaitAny
	WaitAll = kernel.WaitAll

	TimerOnce     = kernel.TimerOnce
	TimerPeriodic = kernel.TimerPeriodic
)

const (
	PriorityIdle  = kernel.PriorityIdle
	PriorityISR   = kernel.PriorityISR
	PriorityError = kernel.PriorityError
)

var (
	PriorityLow         = kernel.PriorityLow
	PriorityBelowNormal = kernel.PriorityBelowNormal
	PriorityNormal      = kernel.PriorityNormal
	PriorityAboveNormal = kernel.PriorityAboveNormal
	PriorityHigh        = kernel.PriorityHigh
	PriorityRealtime    = kernel.PriorityRealtime
)

// Kernel wraps *kernel.Kernel, adding nothing beyond a friendlier
// package boundary for callers who only ever import rtos.
type Kernel struct {
	*kernel.Kernel
}

// New creates a Kernel bound to p, the host or baremetal Port.
func New(p port.Port) *Kernel {
	return &Kernel{kernel.New(p)}
}

// NewHostKernel is a convenience constructor for development and
// tests: a Kernel already bound to port.NewHost().
func NewHostKernel() *Kernel {
	return New(port.NewHost())
}
