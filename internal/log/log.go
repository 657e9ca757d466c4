// Package log provides the small leveled logger used throughout gesturesd.
package log

import (
	"fmt"
	"sync/atomic"
	"time"
)

var debugEnabled atomic.Bool

// SetDebug toggles whether Debug-level messages are printed.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// Debug logs a debug-level message. Suppressed unless SetDebug(true) was called.
func Debug(format string, args ...any) {
	if !debugEnabled.Load() {
		return
	}
	printf("\x1b[36m%s [DEBUG] %s\x1b[0m\n", format, args...)
}

// Info logs an info-level message.
func Info(format string, args ...any) {
	printf("\x1b[32m%s [INFO] %s\x1b[0m\n", format, args...)
}

// Warn logs a warning-level message.
func Warn(format string, args ...any) {
	printf("\x1b[33m%s [WARNING] %s\x1b[0m\n", format, args...)
}

// Error logs an error-level message.
func Error(format string, args ...any) {
	printf("\x1b[31m%s [ERROR] %s\x1b[0m\n", format, args...)
}

func printf(wrapper, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Printf(wrapper, time.Now().Format("15:04:05"), msg)
}
