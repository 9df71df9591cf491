package kernel

import (
	"testing"
	"time"
)

// TestSemaphoreTimedWaitSucceedsBeforeDeadline checks a timeout race: a
// binary semaphore starts at 0, a thread times out waiting after 10
// ticks, but a post at tick 5 satisfies it first.
func TestSemaphoreTimedWaitSucceedsBeforeDeadline(t *testing.T) {
	k := newTestKernel()
	s, res := k.NewSemaphore(SemaphoreAttr{Name: "s", MaxCount: 1})
	if res != OK {
		t.Fatalf("NewSemaphore: %s", res)
	}

	var waitRes Result
	th, done := spawn(k, PriorityNormal, func(*Thread) {
		waitRes = s.TimedWait(10)
	})
	waitForState(t, k, th, StateWaiting)

	for i := 0; i < 5; i++ {
		k.SystickHandler()
	}
	if res := s.Post(); res != OK {
		t.Fatalf("Post: %s", res)
	}
	<-done

	if waitRes != OK {
		t.Fatalf("TimedWait result = %s, want %s (posted before deadline)", waitRes, OK)
	}
}

// TestSemaphoreTimedWaitExpires is the negative half of the same
// scenario: with no post, the wait must expire exactly at its deadline.
func TestSemaphoreTimedWaitExpires(t *testing.T) {
	k := newTestKernel()
	s, res := k.NewSemaphore(SemaphoreAttr{Name: "s", MaxCount: 1})
	if res != OK {
		t.Fatalf("NewSemaphore: %s", res)
	}

	var waitRes Result
	th, done := spawn(k, PriorityNormal, func(*Thread) {
		waitRes = s.TimedWait(10)
	})
	waitForState(t, k, th, StateWaiting)

	for i := 0; i < 10; i++ {
		k.SystickHandler()
	}
	<-done

	if waitRes != ErrTimedOut {
		t.Fatalf("TimedWait result = %s, want %s", waitRes, ErrTimedOut)
	}
}

// TestSemaphoreRoundTrip checks the round-trip invariant: N posts
// followed by N waits from a single thread return the count to its
// starting value without ever blocking.
func TestSemaphoreRoundTrip(t *testing.T) {
	k := newTestKernel()
	const initial = 3
	const n = 5
	s, res := k.NewSemaphore(SemaphoreAttr{Name: "s", InitialCount: initial, MaxCount: initial + n})
	if res != OK {
		t.Fatalf("NewSemaphore: %s", res)
	}

	var results [2 * n]Result
	_, done := spawn(k, PriorityNormal, func(*Thread) {
		for i := 0; i < n; i++ {
			results[i] = s.Post()
		}
		for i := 0; i < n; i++ {
			results[n+i] = s.TryWait()
		}
	})
	<-done

	for i, res := range results {
		if res != OK {
			t.Fatalf("op %d result = %s, want %s", i, res, OK)
		}
	}
	if got := s.Count(); got != initial {
		t.Fatalf("count after round trip = %d, want %d", got, initial)
	}
}

// TestSemaphoreMaxCountBoundary checks the count boundary:
// SemaphoreMaxCount (0x7FFF) is accepted, one past it is rejected.
func TestSemaphoreMaxCountBoundary(t *testing.T) {
	k := newTestKernel()
	if _, res := k.NewSemaphore(SemaphoreAttr{Name: "ok", MaxCount: SemaphoreMaxCount}); res != OK {
		t.Fatalf("NewSemaphore(max=0x7FFF) = %s, want %s", res, OK)
	}
	if _, res := k.NewSemaphore(SemaphoreAttr{Name: "bad", InitialCount: SemaphoreMaxCount + 1, MaxCount: SemaphoreMaxCount}); res != ErrInval {
		t.Fatalf("NewSemaphore(initial>max) = %s, want %s", res, ErrInval)
	}
}

// TestSemaphoreFIFOWakeupOrder checks the equal-priority wait-list
// invariant: N threads at the same priority block on the same wait list
// at distinct times; once all are
// parked, waking them one at a time wakes them in the order they
// arrived, and none re-blocks before every one has run.
func TestSemaphoreFIFOWakeupOrder(t *testing.T) {
	k := newTestKernel()
	s, res := k.NewSemaphore(SemaphoreAttr{Name: "s"})
	if res != OK {
		t.Fatalf("NewSemaphore: %s", res)
	}

	const n = 5
	order := make([]int, 0, n)
	dones := make([]chan struct{}, n)
	ths := make([]*Thread, n)
	for i := 0; i < n; i++ {
		i := i
		th, done := spawn(k, PriorityNormal, func(*Thread) {
			s.Wait()
			order = append(order, i)
		})
		ths[i] = th
		dones[i] = done
		waitForState(t, k, th, StateWaiting)
		time.Sleep(time.Millisecond) // keep arrival order distinct
	}

	for i := 0; i < n; i++ {
		if res := s.Post(); res != OK {
			t.Fatalf("Post %d: %s", i, res)
		}
		<-dones[i]
		if len(order) != i+1 {
			t.Fatalf("after post %d, len(order) = %d, want %d (a later waiter ran early)", i, len(order), i+1)
		}
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending 0..%d (FIFO arrival order)", order, n-1)
		}
	}
}
