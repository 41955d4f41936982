package debug

import (
	"io"
	"sync/atomic"

	"golang.org/x/exp/slog"
)

var root atomic.Pointer[slog.Logger]

// SetLogger replaces the logger all component loggers are derived from.
// Loggers returned by Logger before the call keep using the previous one.
func SetLogger(l *slog.Logger) {
	root.Store(l)
}

// Logger returns a logger for a driver component.
func Logger(component string) *slog.Logger {
	l := root.Load()
	if l == nil {
		l = slog.Default()
	}
	return l.With(slog.String("component", component))
}

// Discard returns a logger dropping all records.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
