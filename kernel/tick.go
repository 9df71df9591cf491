package kernel

// SystickHandler is invoked by the periodic tick interrupt at
// TickFrequencyHz. Each call increments the system clock, wakes any
// waiter whose deadline has passed, and expires due user timers. It
// never itself performs a
// context switch — it runs on its own (simulated-ISR) goroutine, not on
// the interrupted thread's, so all it can do is mark a switch pending
// and let the next kernel entry point made by a real thread realise it
// (see scheduler.go's dispatch machinery).
func (k *Kernel) SystickHandler() {
	k.mu.Lock()
	k.clock.ticks++
	now := k.clock.ticks
	k.wakeExpiredLocked(now)
	k.expireDueLocked(now)
	k.mu.Unlock()
}

// RtcHandler is invoked by the once-per-second real-time-clock
// interrupt.
func (k *Kernel) RtcHandler() {
	k.mu.Lock()
	k.rtc.seconds++
	k.mu.Unlock()
}

// wakeExpiredLocked unparks, with WakeTimeout, every thread whose
// deadline is now due. Must be called with k.mu held.
func (k *Kernel) wakeExpiredLocked(now uint64) {
	var due []*Thread
	for _, t := range k.deadlines {
		if t.deadline <= now {
			due = append(due, t)
		}
	}
	for _, t := range due {
		if t.waitingOn != nil {
			t.waitingOn.removeThread(t)
		}
		k.unparkLocked(t, WakeTimeout, 0)
	}
}
