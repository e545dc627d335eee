// Package logging holds the single package-level *slog.Logger shared by
// every bsvideo component. The corpus's stream-capture code calls
// log/slog's package-level functions directly; bsvideo needs one level of
// indirection so a host can redirect all of a library's logging to its
// own handler, per this library's "caller sets library-global log policy
// before constructing any engine" design note.
package logging

import (
	"log/slog"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

// Set installs l as the logger used by every bsvideo component. Passing
// nil restores the default (slog.Default()).
func Set(l *slog.Logger) {
	current.Store(l)
}

// Get returns the currently installed logger, or slog.Default() if none
// was set.
func Get() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return slog.Default()
}
