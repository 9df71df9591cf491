package kernel

// TimerKind selects whether a Timer re-arms itself after firing.
type TimerKind uint8

const (
	TimerOnce TimerKind = iota
	TimerPeriodic
)

// Timer is a user software timer layered on the tick engine. Its
// callback runs in the privileged timer-dispatch context
// invoked from SystickHandler, with the scheduler already locked by the
// tick engine — never from a true interrupt handler.
type Timer struct {
	k        *Kernel
	name     string
	kind     TimerKind
	period   uint64 // ticks
	callback func(arg any)
	arg      any

	armed    bool
	deadline uint64
}

// NewTimer creates a stopped timer. period is in ticks; use TicksCast to
// convert from microseconds.
func (k *Kernel) NewTimer(name string, kind TimerKind, period uint64, callback func(arg any), arg any) *Timer {
	return &Timer{k: k, name: name, kind: kind, period: period, callback: callback, arg: arg}
}

func (t *Timer) Name() string {
	if t.name == "" {
		return "-"
	}
	return t.name
}

// Start arms the timer to fire period ticks from now. Restarting an
// already-armed timer re-arms it to the new deadline.
func (t *Timer) Start() Result {
	if t.period == 0 {
		return ErrInval
	}
	k := t.k
	k.mu.Lock()
	defer k.mu.Unlock()
	t.deadline = k.clock.ticks + t.period
	if !t.armed {
		t.armed = true
		k.timers.entries = append(k.timers.entries, t)
	}
	return OK
}

// Stop disarms the timer. Idempotent.
func (t *Timer) Stop() Result {
	k := t.k
	k.mu.Lock()
	defer k.mu.Unlock()
	if !t.armed {
		return OK
	}
	t.armed = false
	k.timers.remove(t)
	return OK
}

// Destroy releases t, refusing with ErrBusy while it is still armed; it
// does not stop the timer.
func (t *Timer) Destroy() Result {
	k := t.k
	k.mu.Lock()
	defer k.mu.Unlock()
	if t.armed {
		return ErrBusy
	}
	return OK
}

// timerWheel holds every currently armed Timer. A plain slice scan is
// used rather than a bucketed wheel: the core targets microcontroller
// thread counts, not thousands of concurrent timers, and a slice keeps
// the tick handler free of an intrusive-list aliasing hazard.
type timerWheel struct {
	entries []*Timer
}

func (w *timerWheel) remove(t *Timer) {
	for i, e := range w.entries {
		if e == t {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			return
		}
	}
}

// expireDueLocked fires every timer whose deadline has passed and
// re-arms periodic ones. Must be called with k.mu held; callbacks run
// with the lock still held.
func (k *Kernel) expireDueLocked(now uint64) {
	var fired []*Timer
	for _, t := range k.timers.entries {
		if t.armed && t.deadline <= now {
			fired = append(fired, t)
		}
	}
	for _, t := range fired {
		if t.kind == TimerPeriodic {
			t.deadline = now + t.period
		} else {
			t.armed = false
			k.timers.remove(t)
		}
		if t.callback != nil {
			t.callback(t.arg)
		}
	}
}
