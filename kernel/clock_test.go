package kernel

import "testing"

// TestTicksCastBoundary checks TicksCast's boundary cases: 0 maps to 0
// and 1 maps to 1 at any tick frequency, and the general case is a
// ceiling division.
func TestTicksCastBoundary(t *testing.T) {
	if got := TicksCast(0); got != 0 {
		t.Fatalf("TicksCast(0) = %d, want 0", got)
	}
	if got := TicksCast(1); got != 1 {
		t.Fatalf("TicksCast(1) = %d, want 1", got)
	}

	// At TickFrequencyHz == 1000, one tick is 1000us; anything in
	// (0, 1000]us must round up to exactly 1 tick.
	if got := TicksCast(999); got != 1 {
		t.Fatalf("TicksCast(999) = %d, want 1", got)
	}
	if got := TicksCast(1000); got != 1 {
		t.Fatalf("TicksCast(1000) = %d, want 1", got)
	}
	if got := TicksCast(1001); got != 2 {
		t.Fatalf("TicksCast(1001) = %d, want 2", got)
	}
	if got := TicksCast(5000); got != 5 {
		t.Fatalf("TicksCast(5000) = %d, want 5", got)
	}
}

// TestSystickHandlerAdvancesClock checks that each SystickHandler call
// advances Now() by exactly one tick.
func TestSystickHandlerAdvancesClock(t *testing.T) {
	k := newTestKernel()
	if got := k.Now(); got != 0 {
		t.Fatalf("Now() before any tick = %d, want 0", got)
	}
	for i := 1; i <= 3; i++ {
		k.SystickHandler()
		if got := k.Now(); got != uint64(i) {
			t.Fatalf("Now() after %d ticks = %d, want %d", i, got, i)
		}
	}
}

// TestRtcHandlerAdvancesSeconds checks RTCNow advances independently of
// the tick clock.
func TestRtcHandlerAdvancesSeconds(t *testing.T) {
	k := newTestKernel()
	k.RtcHandler()
	k.RtcHandler()
	if got := k.RTCNow(); got != 2 {
		t.Fatalf("RTCNow() after two RTC ticks = %d, want 2", got)
	}
	if got := k.Now(); got != 0 {
		t.Fatalf("Now() after RTC-only ticks = %d, want 0", got)
	}
}
