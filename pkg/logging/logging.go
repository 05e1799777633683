// Package logging provides structured logging for bootaudit, backed
// by zap. Diagnostics go to stderr so they never mix with report
// output on stdout.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	global = zap.NewNop().Sugar()
)

// Init configures the global logger. Verbose enables debug-level
// console output; otherwise only warnings and errors are emitted so
// normal command output stays clean.
func Init(verbose bool) {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		// Leave the previous logger in place.
		return
	}
	global = base.Sugar()
}

// Set replaces the global logger. Intended for tests.
func Set(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// L returns the global logger.
func L() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return global
}

// With returns a child logger with the given key-value pairs attached.
func With(args ...any) *zap.SugaredLogger {
	return L().With(args...)
}

// Debugw logs a debug message with key-value pairs.
func Debugw(msg string, keysAndValues ...any) {
	L().Debugw(msg, keysAndValues...)
}

// Infow logs an info message with key-value pairs.
func Infow(msg string, keysAndValues ...any) {
	L().Infow(msg, keysAndValues...)
}

// Warnw logs a warning message with key-value pairs.
func Warnw(msg string, keysAndValues ...any) {
	L().Warnw(msg, keysAndValues...)
}

// Errorw logs an error message with key-value pairs.
func Errorw(msg string, keysAndValues ...any) {
	L().Errorw(msg, keysAndValues...)
}

// Sync flushes buffered log entries. Safe to call at process exit.
func Sync() {
	_ = L().Sync()
}
