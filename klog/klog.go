// Package klog provides the kernel's minimal logging sink.
//
// A leveled or structured logging library (zap, zerolog, logrus) pulls in
// reflection and heap-heavy formatting machinery that has no place inside a
// preemptible kernel core meant to also build for a freestanding
// microcontroller target, so klog keeps to a plain two-method interface a
// UART or a host stdout stream can both satisfy directly.
package klog

// Logger is the sink the kernel writes structural events to: a recovered
// panic in a thread entry function, or a robust-mutex owner-death
// transition. It intentionally carries no level, no formatting verbs,
// and no allocation-heavy interface beyond the two calls a UART or a
// host stdout stream can both satisfy directly.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Discard is a Logger that drops everything written to it. It is the
// default logger for kernel objects that are not given one explicitly.
var Discard Logger = discard{}

type discard struct{}

func (discard) WriteLineString(string) {}
func (discard) WriteLineBytes([]byte)  {}
