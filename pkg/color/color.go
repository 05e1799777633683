// Package color provides terminal color output for bootaudit.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"sync"

	fcolor "github.com/fatih/color"
)

var (
	initOnce sync.Once
	disabled bool
)

// Init initializes the color system based on environment and flags.
// fatih/color already detects non-TTY output and NO_COLOR; Init adds
// the explicit --no-color flag and dumb terminals on top.
func Init(noColorFlag bool) {
	initOnce.Do(func() {
		if _, exists := os.LookupEnv("NO_COLOR"); exists {
			disabled = true
		}
		if term := os.Getenv("TERM"); term == "dumb" {
			disabled = true
		}
		if noColorFlag {
			disabled = true
		}
		if disabled {
			fcolor.NoColor = true
		}
	})
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	Init(false)
	return !fcolor.NoColor
}

// Disable turns off color output.
func Disable() {
	disabled = true
	fcolor.NoColor = true
}

// Enable turns on color output.
func Enable() {
	disabled = false
	fcolor.NoColor = false
}

var (
	greenf  = fcolor.New(fcolor.FgGreen).SprintFunc()
	redf    = fcolor.New(fcolor.FgRed).SprintFunc()
	yellowf = fcolor.New(fcolor.FgYellow).SprintFunc()
	cyanf   = fcolor.New(fcolor.FgCyan).SprintFunc()
	bluef   = fcolor.New(fcolor.FgBlue).SprintFunc()
	boldf   = fcolor.New(fcolor.Bold).SprintFunc()
	dimf    = fcolor.New(fcolor.Faint).SprintFunc()
	codef   = fcolor.New(fcolor.Bold, fcolor.Faint).SprintFunc()
)

// Success formats a success message in green.
func Success(s string) string {
	Init(false)
	return greenf(s)
}

// Successf formats a success message with printf-style arguments.
func Successf(format string, args ...any) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error formats an error message in red.
func Error(s string) string {
	Init(false)
	return redf(s)
}

// Errorf formats an error message with printf-style arguments.
func Errorf(format string, args ...any) string {
	return Error(fmt.Sprintf(format, args...))
}

// Warning formats a warning message in yellow.
func Warning(s string) string {
	Init(false)
	return yellowf(s)
}

// Warningf formats a warning message with printf-style arguments.
func Warningf(format string, args ...any) string {
	return Warning(fmt.Sprintf(format, args...))
}

// Info formats an informational message in cyan.
func Info(s string) string {
	Init(false)
	return cyanf(s)
}

// Infof formats an informational message with printf-style arguments.
func Infof(format string, args ...any) string {
	return Info(fmt.Sprintf(format, args...))
}

// SnapshotID formats a snapshot ID in cyan (for visibility).
func SnapshotID(s string) string {
	Init(false)
	return cyanf(s)
}

// Section formats a section label like [ESP] in blue.
func Section(s string) string {
	Init(false)
	return bluef(s)
}

// Header formats a header in bold.
func Header(s string) string {
	Init(false)
	return boldf(s)
}

// Dim formats dimmed text (for secondary information).
func Dim(s string) string {
	Init(false)
	return dimf(s)
}

// Highlight highlights important text in yellow.
func Highlight(s string) string {
	Init(false)
	return yellowf(s)
}

// Code formats code/command strings in a distinct style.
func Code(s string) string {
	Init(false)
	return codef(s)
}
