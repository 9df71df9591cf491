package kernel

import (
	"testing"
	"time"
)

// TestSleepForExpiresAfterTicks checks SleepFor blocks for at least the
// requested ticks and reports normal expiry as ErrTimedOut, the expected
// outcome for a pure delay running to completion.
func TestSleepForExpiresAfterTicks(t *testing.T) {
	k := newTestKernel()
	var res Result
	th, done := spawn(k, PriorityNormal, func(*Thread) {
		res = k.SleepFor(5)
	})
	waitForState(t, k, th, StateWaiting)
	for i := 0; i < 4; i++ {
		k.SystickHandler()
	}
	select {
	case <-done:
		t.Fatalf("SleepFor returned before its deadline")
	default:
	}
	k.SystickHandler()
	<-done
	if res != ErrTimedOut {
		t.Fatalf("SleepFor result = %s, want %s", res, ErrTimedOut)
	}
}

// TestWaitForReturnsOKOnEarlyWakeup checks WaitFor's inverted success
// convention relative to SleepFor: an explicit Wakeup before the
// deadline is success, not interruption.
func TestWaitForReturnsOKOnEarlyWakeup(t *testing.T) {
	k := newTestKernel()
	var res Result
	th, done := spawn(k, PriorityNormal, func(*Thread) {
		res = k.WaitFor(100)
	})
	waitForState(t, k, th, StateWaiting)
	if r := k.Wakeup(th); r != OK {
		t.Fatalf("Wakeup: %s", r)
	}
	<-done
	if res != OK {
		t.Fatalf("WaitFor result after early Wakeup = %s, want %s", res, OK)
	}
}

// TestJoinBlocksUntilTermination checks that Join releases its caller
// only once the joined thread has terminated.
func TestJoinBlocksUntilTermination(t *testing.T) {
	k := newTestKernel()
	gate, _ := k.NewSemaphore(SemaphoreAttr{Name: "gate"})
	worker, workerDone := spawn(k, PriorityNormal, func(*Thread) {
		gate.Wait()
	})

	var joinRes Result
	_, joinerDone := spawn(k, PriorityNormal, func(*Thread) {
		joinRes = k.Join(worker)
	})
	waitForState(t, k, worker, StateWaiting)

	select {
	case <-joinerDone:
		t.Fatalf("Join returned before the joined thread terminated")
	default:
	}

	gate.Post()
	<-workerDone
	<-joinerDone

	if joinRes != OK {
		t.Fatalf("Join result = %s, want %s", joinRes, OK)
	}
	if worker.State() != StateTerminated {
		t.Fatalf("worker state after Join = %s, want %s", worker.State(), StateTerminated)
	}
}

// TestKillReleasesOwnedMutexAsOwnerDead checks that Kill forces
// termination and runs the same owner-death path a normal exit would,
// without ever running the rest of the thread's entry function.
func TestKillReleasesOwnedMutexAsOwnerDead(t *testing.T) {
	k := newTestKernel()
	m, _ := k.NewMutex(MutexAttr{Name: "m", Robustness: RobustnessRobust})
	gate, _ := k.NewSemaphore(SemaphoreAttr{Name: "gate"})

	ranPastGate := false
	victim, victimDone := spawn(k, PriorityNormal, func(*Thread) {
		m.Lock()
		gate.Wait()
		ranPastGate = true
	})
	waitForState(t, k, victim, StateWaiting)

	if res := k.Kill(victim); res != OK {
		t.Fatalf("Kill: %s", res)
	}
	<-victimDone

	if ranPastGate {
		t.Fatalf("killed thread's entry function kept running past its blocking call")
	}
	if victim.State() != StateTerminated {
		t.Fatalf("victim state after Kill = %s, want %s", victim.State(), StateTerminated)
	}

	var lockRes Result
	_, done := spawn(k, PriorityNormal, func(*Thread) {
		lockRes = m.Lock()
	})
	<-done
	if lockRes != ErrOwnerDead {
		t.Fatalf("lock after Kill of owner = %s, want %s", lockRes, ErrOwnerDead)
	}
}

// TestKillCurrentThreadDispatchesReplacement checks that killing the
// running thread, with no joiners waiting on it, still leaves the
// scheduler able to dispatch its next ready thread. The only ready
// thread is created and started by the victim itself immediately
// before self-killing, so nothing but Kill's own bookkeeping can be
// responsible for the eventual switch.
func TestKillCurrentThreadDispatchesReplacement(t *testing.T) {
	k := newTestKernel()
	watcherDone := make(chan struct{})

	spawn(k, PriorityNormal, func(self *Thread) {
		watcher, res := k.NewThread(ThreadAttr{Priority: PriorityLow}, func(any) {
			close(watcherDone)
		}, nil)
		if res != OK {
			panic(res)
		}
		k.Start(watcher)
		k.Kill(self)
	})

	select {
	case <-watcherDone:
	case <-time.After(time.Second):
		t.Fatalf("no replacement thread was dispatched after killing the running thread")
	}
}

// TestDestroyRefusesLiveThread checks Destroy's busy contract for
// threads that have not yet terminated.
func TestDestroyRefusesLiveThread(t *testing.T) {
	k := newTestKernel()
	gate, _ := k.NewSemaphore(SemaphoreAttr{Name: "gate"})
	th, done := spawn(k, PriorityNormal, func(*Thread) {
		gate.Wait()
	})
	waitForState(t, k, th, StateWaiting)

	if res := k.Destroy(th); res != ErrBusy {
		t.Fatalf("Destroy(live thread) = %s, want %s", res, ErrBusy)
	}

	gate.Post()
	<-done
	if res := k.Destroy(th); res != OK {
		t.Fatalf("Destroy(terminated thread) = %s, want %s", res, OK)
	}
	if th.State() != StateDestroyed {
		t.Fatalf("state after Destroy = %s, want %s", th.State(), StateDestroyed)
	}
}
