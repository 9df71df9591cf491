package kernel

// Clock is the monotonic system clock: a 64-bit tick counter advanced
// by the periodic tick interrupt. It is not wall-clock time;
// RealTimeClock covers that.
type Clock struct {
	ticks uint64
}

// HighResTime is a coarse high-resolution timestamp: a tick count plus
// the sub-tick position needed to interpolate between two ticks.
type HighResTime struct {
	Ticks      uint64
	Cycles     uint32
	Divisor    uint32
	CoreFreqHz uint32
}

// RealTimeClock counts seconds since epoch. It is not steady: it exists
// only to service wall-time sleeps.
type RealTimeClock struct {
	seconds uint64
}

// Now returns the current system-clock tick count.
func (k *Kernel) Now() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.clock.ticks
}

// NowDetails returns the high-resolution timestamp. CoreFreqHz and
// Divisor are fixed at TickFrequencyHz/1 on the host port, which has no
// sub-tick counter of its own; a baremetal port with access to a
// hardware cycle counter would populate Cycles/Divisor from it.
func (k *Kernel) NowDetails() HighResTime {
	k.mu.Lock()
	defer k.mu.Unlock()
	return HighResTime{
		Ticks:      k.clock.ticks,
		Cycles:     0,
		Divisor:    1,
		CoreFreqHz: TickFrequencyHz,
	}
}

// RTCNow returns the real-time clock's seconds-since-epoch value.
func (k *Kernel) RTCNow() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.rtc.seconds
}

// SetRTC sets the real-time clock, e.g. after synchronising with an
// external time source.
func (k *Kernel) SetRTC(seconds uint64) {
	k.mu.Lock()
	k.rtc.seconds = seconds
	k.mu.Unlock()
}

// TicksCast rounds a microsecond duration up to the nearest whole tick
// at TickFrequencyHz: ticks_cast(0)=0, ticks_cast(1)=1 at any
// frequency, general case ceil(µs*F_Hz/1_000_000). There is no
// nanosecond-precision entry point.
func TicksCast(us uint64) uint64 {
	if us == 0 {
		return 0
	}
	const usPerSec = 1_000_000
	return (us*TickFrequencyHz + usPerSec - 1) / usPerSec
}
