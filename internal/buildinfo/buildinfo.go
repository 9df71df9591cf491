// Package buildinfo reports the version this binary was built at
// together with the kernel's compile-time configuration, so `-version`
// output is enough to tell which tick rate and priority layout a given
// rtosdemo binary was built against without also passing it -hz.
package buildinfo

import (
	"fmt"

	"rtoscore/kernel"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Short returns a compact build identifier for UI/logging.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// Full returns Short alongside the kernel's compile-time tick rate and
// priority-level shift, since those two constants determine the timing
// and the number of priority levels a binary actually runs with.
func Full() string {
	return fmt.Sprintf("%s (tick=%dHz priority-shift=%d)", Short(), kernel.TickFrequencyHz, kernel.PriorityShift)
}
