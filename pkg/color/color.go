// Package color provides terminal color output for the hostdash CLI.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

var state struct {
	once    sync.Once
	enabled atomic.Bool
}

// Init decides whether color is used. The first call wins; later calls are
// no-ops so commands can call it freely.
func Init(noColorFlag bool) {
	state.once.Do(func() {
		_, noColor := os.LookupEnv("NO_COLOR")
		dumb := os.Getenv("TERM") == "dumb"
		state.enabled.Store(!noColor && !dumb && !noColorFlag)
	})
}

// Enabled reports whether color output is on.
func Enabled() bool {
	Init(false)
	return state.enabled.Load()
}

// Disable turns off color output.
func Disable() {
	Init(false)
	state.enabled.Store(false)
}

// Enable turns on color output.
func Enable() {
	Init(false)
	state.enabled.Store(true)
}

// ANSI codes
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	DimCode = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Cyan    = "\033[36m"
)

func wrap(code, s string) string {
	if !Enabled() {
		return s
	}
	return code + s + Reset
}

// Success formats a success message in green.
func Success(s string) string { return wrap(Green, s) }

// Successf formats a success message with printf-style arguments.
func Successf(format string, args ...any) string { return Success(fmt.Sprintf(format, args...)) }

// Error formats an error message in red.
func Error(s string) string { return wrap(Red, s) }

// Warning formats a warning message in yellow.
func Warning(s string) string { return wrap(Yellow, s) }

// Info formats an informational message in cyan.
func Info(s string) string { return wrap(Cyan, s) }

// Header formats a header in bold.
func Header(s string) string { return wrap(Bold, s) }

// Dim formats secondary information.
func Dim(s string) string { return wrap(DimCode, s) }

// Path formats a file path or directory name in blue.
func Path(s string) string { return wrap(Blue, s) }

// Severity colors a doctor severity label.
func Severity(sev string) string {
	switch sev {
	case "critical", "error":
		return Error(sev)
	case "warning":
		return Warning(sev)
	default:
		return Dim(sev)
	}
}

// Code formats a command string in bold dim.
func Code(s string) string { return wrap(Bold+DimCode, s) }
