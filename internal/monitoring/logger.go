// Package monitoring provides the pipeline's diagnostic logger: a
// package-level printf hook the processing stages report through, which
// callers can redirect or mute.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to
// log.Printf; replace it with SetLogger to redirect stage diagnostics.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a
// no-op logger, muting all stage diagnostics.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}
