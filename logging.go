package sst

import (
	"fmt"
	"log"
)

// Logger is the ambient logging seam used by SstBuilder and SstMultiBuilder
// to report block flushes, file rotations, and filter sizing decisions.
// Scaled down from the teacher's five-level logger to the one level this
// core's write path actually narrates.
type Logger interface {
	Debugf(format string, args ...any)
}

// DiscardLogger drops every message; it is the default when no Logger is
// supplied.
type DiscardLogger struct{}

// Debugf implements Logger by discarding the message.
func (DiscardLogger) Debugf(string, ...any) {}

// StdLogger adapts the standard library's *log.Logger to the Logger
// interface.
type StdLogger struct {
	L *log.Logger
}

// Debugf implements Logger.
func (s StdLogger) Debugf(format string, args ...any) {
	s.L.Output(2, fmt.Sprintf("DEBUG "+format, args...))
}
