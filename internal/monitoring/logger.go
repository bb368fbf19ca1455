// Package monitoring holds the package-level diagnostic loggers used by the
// stream builder, checkpoints and the CLI.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...any) = log.Printf

var verbose bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// SetVerbose enables Debugf output.
func SetVerbose(v bool) {
	verbose = v
}

// Debugf logs through Logf only when verbose output is enabled.
func Debugf(format string, v ...any) {
	if verbose {
		Logf(format, v...)
	}
}
