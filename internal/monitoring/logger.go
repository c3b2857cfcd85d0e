package monitoring

import "log"

// Logf is the package-level diagnostic logger used by the analytics
// pipeline for non-fatal notes (excluded routes, dropped parameters,
// cache invalidations). It defaults to log.Printf but may be replaced by
// SetLogger. Tests or embedding applications can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Silence mutes the package logger and returns a function restoring the
// previous one. Intended for tests:
//
//	defer monitoring.Silence()()
func Silence() func() {
	prev := Logf
	Logf = func(string, ...interface{}) {}
	return func() { Logf = prev }
}
