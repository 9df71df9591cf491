package kernel

// Result is the kernel's closed result-code enumeration. It is
// returned by value everywhere; the kernel core never uses Go's error
// interface as its primary channel for expected outcomes, only Result.
type Result uint32

// The closed set of result codes, numbered to align with the
// corresponding POSIX errno where one exists.
const (
	OK                 Result = 0
	ErrPerm            Result = 1  // EPERM
	ErrIntr            Result = 4  // EINTR
	ErrInval           Result = 22 // EINVAL
	ErrDeadlk          Result = 35 // EDEADLK
	ErrTimedOut        Result = 110
	ErrWouldBlock      Result = 11 // EAGAIN/EWOULDBLOCK
	ErrMsgSize         Result = 90 // EMSGSIZE
	ErrBadMsg          Result = 74 // EBADMSG
	ErrOwnerDead       Result = 130
	ErrNotRecoverable  Result = 131
	ErrOverflow        Result = 75
	ErrBusy            Result = 16
)

// String renders a Result as a short lower-case phrase, "unknown" for
// anything outside the closed set.
func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case ErrPerm:
		return "operation not permitted"
	case ErrIntr:
		return "interrupted"
	case ErrInval:
		return "invalid argument"
	case ErrDeadlk:
		return "resource deadlock would occur"
	case ErrTimedOut:
		return "timed out"
	case ErrWouldBlock:
		return "would block"
	case ErrMsgSize:
		return "message too large"
	case ErrBadMsg:
		return "bad message"
	case ErrOwnerDead:
		return "owner died"
	case ErrNotRecoverable:
		return "state not recoverable"
	case ErrOverflow:
		return "value would overflow"
	case ErrBusy:
		return "resource busy"
	default:
		return "unknown result"
	}
}

// Error implements the error interface so a Result composes with
// host-side tooling that expects one (e.g. errors.Is against a sentinel
// Result), without the kernel core itself ever allocating an error for
// control flow.
func (r Result) Error() string { return r.String() }

// Ok reports whether r is OK.
func (r Result) Ok() bool { return r == OK }

// WakeReason records why a parked thread was unparked, translated by
// each blocking primitive into the matching Result (glossary "wake
// reason").
type WakeReason uint8

const (
	// WakeNone marks a thread that has not yet been unparked.
	WakeNone WakeReason = iota
	// WakeNormal marks a thread woken by a normal post/signal/unlock.
	WakeNormal
	// WakeTimeout marks a thread removed by the tick engine at its
	// deadline.
	WakeTimeout
	// WakeInterrupted marks a thread woken out of a sleep by a signal
	// flag, by an explicit wakeup, or by a reset of the object it
	// waited on (Semaphore.Reset, Queue.Reset).
	WakeInterrupted
	// WakeOwnerDead marks a thread that acquired a robust mutex whose
	// previous owner terminated while holding it.
	WakeOwnerDead
)
