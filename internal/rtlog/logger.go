// Package rtlog is the logging sink the reconciliation engine writes to.
//
// It is a minimal, dependency-free leveled logger: the engine never needs
// structured fields or sinks beyond stdout/stderr, so we keep the same
// hand-rolled shape the daemon this package was distilled from already used,
// rather than reaching for a logging framework the ambient stack doesn't
// otherwise need.
package rtlog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
)

var (
	mu          sync.Mutex
	verbose     = false
	disableLogs = false
	useColor    = true
	out         io.Writer = os.Stdout
	errOut      io.Writer = os.Stderr

	logPrefixes = map[int]string{
		levelTrace: "\033[90m[TRC]\033[0m", // Gray
		levelDebug: "\033[37m[DBG]\033[0m", // White
		levelInfo:  "\033[36m[INF]\033[0m", // Cyan
		levelWarn:  "\033[33m[WRN]\033[0m", // Yellow
		levelError: "\033[31m[ERR]\033[0m", // Red
	}
	plainPrefixes = map[int]string{
		levelTrace: "[TRC]",
		levelDebug: "[DBG]",
		levelInfo:  "[INF]",
		levelWarn:  "[WRN]",
		levelError: "[ERR]",
	}
)

// SetVerbose sets the logging verbosity. If true, debug and trace messages
// are emitted.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose logging is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// DisableLogs silences all output. Used by tests that exercise the engine
// without wanting its log chatter in the test binary's output.
func DisableLogs() {
	mu.Lock()
	defer mu.Unlock()
	disableLogs = true
}

// SetColor toggles ANSI color prefixes. Disable when logging to a file.
func SetColor(c bool) {
	mu.Lock()
	defer mu.Unlock()
	useColor = c
}

// SetOutput redirects the non-error log stream (debug/trace/info).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetErrorOutput redirects the warn/error stream.
func SetErrorOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	errOut = w
}

// Tracef logs a trace message, shown only when verbose is true (the same
// switch that gates Debugf). No package in this module calls it.
func Tracef(format string, args ...interface{}) {
	if IsVerbose() {
		logMessage(levelTrace, format, args...)
	}
}

// Debugf logs a debug message, shown only when verbose is true.
func Debugf(format string, args ...interface{}) {
	if IsVerbose() {
		logMessage(levelDebug, format, args...)
	}
}

// Infof logs an info message.
func Infof(format string, args ...interface{}) {
	logMessage(levelInfo, format, args...)
}

// Warnf logs a warning message.
func Warnf(format string, args ...interface{}) {
	logMessage(levelWarn, format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	logMessage(levelError, format, args...)
}

// Fatalf logs an error message and exits the process with status 1.
func Fatalf(format string, args ...interface{}) {
	logMessage(levelError, format, args...)
	os.Exit(1)
}

func logMessage(level int, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if disableLogs {
		return
	}

	var prefix string
	if useColor {
		prefix = logPrefixes[level]
	} else {
		prefix = plainPrefixes[level]
	}
	message := fmt.Sprintf(format, args...)
	line := prefix + " " + message + "\n"

	if level >= levelWarn {
		_, _ = errOut.Write([]byte(line))
	} else {
		_, _ = out.Write([]byte(line))
	}
}
