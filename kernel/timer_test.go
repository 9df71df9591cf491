package kernel

import "testing"

// TestTimerOnceFiresOnceAtDeadline checks that a one-shot timer fires
// exactly once, at its deadline, and disarms itself.
func TestTimerOnceFiresOnceAtDeadline(t *testing.T) {
	k := newTestKernel()
	fires := 0
	tm := k.NewTimer("once", TimerOnce, 5, func(any) { fires++ }, nil)
	if res := tm.Start(); res != OK {
		t.Fatalf("Start: %s", res)
	}
	for i := 0; i < 4; i++ {
		k.SystickHandler()
	}
	if fires != 0 {
		t.Fatalf("fires before deadline = %d, want 0", fires)
	}
	k.SystickHandler()
	if fires != 1 {
		t.Fatalf("fires at deadline = %d, want 1", fires)
	}
	for i := 0; i < 10; i++ {
		k.SystickHandler()
	}
	if fires != 1 {
		t.Fatalf("fires well past deadline = %d, want 1 (one-shot must not re-arm)", fires)
	}
}

// TestTimerPeriodicReArms checks that a periodic timer fires every
// period ticks indefinitely until Stop.
func TestTimerPeriodicReArms(t *testing.T) {
	k := newTestKernel()
	fires := 0
	tm := k.NewTimer("periodic", TimerPeriodic, 3, func(any) { fires++ }, nil)
	tm.Start()
	for i := 0; i < 9; i++ {
		k.SystickHandler()
	}
	if fires != 3 {
		t.Fatalf("fires after 9 ticks of period 3 = %d, want 3", fires)
	}
	tm.Stop()
	for i := 0; i < 9; i++ {
		k.SystickHandler()
	}
	if fires != 3 {
		t.Fatalf("fires after Stop = %d, want 3 (unchanged)", fires)
	}
}

// TestTimerStopIsIdempotent checks that Stop is idempotent, whether or
// not the timer was ever started.
func TestTimerStopIsIdempotent(t *testing.T) {
	k := newTestKernel()
	tm := k.NewTimer("t", TimerOnce, 10, func(any) {}, nil)
	if res := tm.Stop(); res != OK {
		t.Fatalf("Stop on never-started timer = %s, want %s", res, OK)
	}
	tm.Start()
	if res := tm.Stop(); res != OK {
		t.Fatalf("first Stop = %s, want %s", res, OK)
	}
	if res := tm.Stop(); res != OK {
		t.Fatalf("second Stop = %s, want %s", res, OK)
	}
}

// TestTimerRestartWhileArmedRearms checks that restarting an already
// armed timer re-arms it to the new deadline rather than stacking timers.
func TestTimerRestartWhileArmedRearms(t *testing.T) {
	k := newTestKernel()
	fires := 0
	tm := k.NewTimer("t", TimerOnce, 10, func(any) { fires++ }, nil)
	tm.Start()
	for i := 0; i < 5; i++ {
		k.SystickHandler()
	}
	tm.Start() // re-arm 10 ticks from tick 5, i.e. fires at tick 15
	for i := 0; i < 9; i++ {
		k.SystickHandler()
	}
	if fires != 0 {
		t.Fatalf("fires before re-armed deadline = %d, want 0", fires)
	}
	k.SystickHandler()
	if fires != 1 {
		t.Fatalf("fires at re-armed deadline = %d, want 1", fires)
	}
}

// TestTimerDestroyRefusesWhileArmed checks Destroy's busy contract.
func TestTimerDestroyRefusesWhileArmed(t *testing.T) {
	k := newTestKernel()
	tm := k.NewTimer("t", TimerOnce, 10, func(any) {}, nil)
	tm.Start()
	if res := tm.Destroy(); res != ErrBusy {
		t.Fatalf("Destroy while armed = %s, want %s", res, ErrBusy)
	}
	tm.Stop()
	if res := tm.Destroy(); res != OK {
		t.Fatalf("Destroy after stop = %s, want %s", res, OK)
	}
}
