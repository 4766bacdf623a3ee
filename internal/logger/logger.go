// Package logger provides leveled logging for the MusicTruth CLI.
// Debug and info messages are printed to stderr only when verbose mode is
// enabled via the --verbose flag; warnings are always printed.
//
// The backend is zerolog. Named returns a child logger for structured fields.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	root              = build(os.Stderr, false)
)

// Logger is the project-wide logging type.
type Logger = zerolog.Logger

// build creates the root logger for the given writer and verbosity.
func build(w io.Writer, v bool) zerolog.Logger {
	lvl := zerolog.WarnLevel
	if v {
		lvl = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	root = build(output, verbose)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	root = build(output, verbose)
}

// SetLevel overrides the level chosen by the verbose flag.
// Unknown names leave the level unchanged.
func SetLevel(name string) {
	lvl, ok := parseLevel(name)
	if !ok {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	root = root.Level(lvl)
}

// Named returns a child logger with a component field.
func Named(component string) *Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := root.With().Str("component", component).Logger()
	return &l
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	root.Debug().Msgf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	root.Debug().Msgf("=== %s ===", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	root.Info().Msgf(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	root.Warn().Msgf(format, args...)
}

// parseLevel supports string-only levels.
func parseLevel(s string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off":
		return zerolog.Disabled, true
	default:
		return zerolog.NoLevel, false
	}
}
