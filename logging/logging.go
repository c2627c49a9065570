// Package logging wraps the standard log package with per-subsystem
// prefixes and a verbosity gate, the way the teacher logs exclusively
// through log.SetPrefix/log.SetOutput (cmd/main.go, worker/run.go)
// rather than a structured logging library.
package logging

import (
	"io"
	"log"
	"os"
)

// Level is a coarse verbosity tier, ordered least to most noisy.
type Level int

const (
	LevelWarn Level = iota
	LevelInfo
	LevelDebug
)

// verbosity is process-global, set once from the -v/--verbose CLI flag
// at startup, the same way the teacher's config.LogOutput is read once
// and never changed for the life of the process.
var verbosity = LevelInfo

// SetVerbosity controls which Logger.Debugf/Infof calls actually print.
// Warnf/Errorf always print, matching original_source/src/server.rs's
// treatment of warn!/error! as always-on regardless of its own -v flag.
func SetVerbosity(l Level) { verbosity = l }

// SetOutput redirects every Logger's destination, mirroring the
// teacher's config.LogOutput-driven log.SetOutput call.
func SetOutput(w io.Writer) { std.SetOutput(w) }

var std = log.New(os.Stderr, "", log.LstdFlags)

// Logger tags every line with a subsystem target, following
// original_source/src/server.rs's target: "lazymc::monitor"-style tags
// rather than inventing a different tagging scheme.
type Logger struct {
	subsystem string
}

// New returns a Logger tagged with subsystem, e.g. "lazyvolet::monitor".
func New(subsystem string) *Logger {
	return &Logger{subsystem: subsystem}
}

func (l *Logger) Debugf(format string, args ...any) {
	if verbosity >= LevelDebug {
		l.printf("DEBUG", format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	if verbosity >= LevelInfo {
		l.printf("INFO", format, args...)
	}
}

func (l *Logger) Warnf(format string, args ...any) {
	l.printf("WARN", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.printf("ERROR", format, args...)
}

func (l *Logger) printf(level, format string, args ...any) {
	std.Printf("[%s] %s: "+format, append([]any{level, l.subsystem}, args...)...)
}

// Logf adapts Logger.Infof to the server.Logf / proxy.Logf shapes that
// expect a bare func(string, ...any) callback.
func (l *Logger) Logf(format string, args ...any) {
	l.Infof(format, args...)
}
