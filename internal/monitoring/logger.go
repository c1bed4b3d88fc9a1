// Package monitoring holds the diagnostic logger shared by the planner
// packages.
package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. The optimisation core reports empty clusters,
// search caps and restart summaries through it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose routes diagnostics to w with the given prefix when verbose is
// true, and mutes them otherwise.
func SetVerbose(verbose bool, w io.Writer, prefix string) {
	if !verbose {
		SetLogger(nil)
		return
	}
	SetLogger(log.New(w, prefix, log.LstdFlags|log.Lmicroseconds).Printf)
}
