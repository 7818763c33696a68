// Package logger provides verbose logging for regsync.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help operators follow a reconciliation run.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// emit writes a levelled line. Gated levels are dropped unless verbose
// mode is on.
func emit(level string, gated bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit("DEBUG", true, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit("INFO", true, format, args...)
}

// Warn prints a warning message. Warnings are not gated on verbose
// mode: failed runs and retry exhaustion must reach the operator.
func Warn(format string, args ...any) {
	emit("WARN", false, format, args...)
}
