package kernel

import (
	"testing"
	"time"

	"rtoscore/port"
)

// newTestKernel builds a Kernel on the host port, initialises it, and
// starts the scheduler running on its own goroutine. Tests drive time
// by calling SystickHandler directly rather than a real tick source,
// keeping them deterministic.
func newTestKernel() *Kernel {
	k := New(port.NewHost())
	k.Initialize()
	go k.Run()
	return k
}

// spawn creates and starts a thread running fn, closing done when fn
// returns. Kernel operations are only valid from inside a real kernel
// thread, so every test that exercises blocking primitives runs its
// assertions through this helper rather than calling into the kernel
// directly from the test goroutine.
func spawn(k *Kernel, prio Priority, fn func(t *Thread)) (*Thread, chan struct{}) {
	done := make(chan struct{})
	th, res := k.NewThread(ThreadAttr{Priority: prio}, func(any) {
		defer close(done)
		fn(k.Current())
	}, nil)
	if res != OK {
		panic(res)
	}
	k.Start(th)
	return th, done
}

// waitForState polls th's state under the scheduler lock until it
// reaches want or one second elapses. Tests use this instead of a bare
// sleep to synchronise with a thread that must have already blocked
// inside the kernel before the test proceeds — e.g. confirming a
// contender is parked on a mutex before inspecting the owner's boosted
// priority.
func waitForState(t *testing.T, k *Kernel, th *Thread, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		k.mu.Lock()
		s := th.state
		k.mu.Unlock()
		if s == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("thread %s did not reach state %s (stuck at %s)", th.Name(), want, th.state)
}
