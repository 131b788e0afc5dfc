// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger so tests and CLIs can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Timed logs how long a step took when the returned func is called:
//
//	defer monitoring.Timed("transfer")()
func Timed(step string) func() {
	start := time.Now()
	return func() {
		Logf("%s took %s", step, time.Since(start).Round(time.Microsecond))
	}
}
