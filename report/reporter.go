package report

import (
	"fmt"
	"sync"
)

// Reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during compilation.  The reporter respects the set log
// level and is synchronized: its methods can be safely called from multiple
// goroutines.
type Reporter struct {
	// The mutex used to synchonize different reporting calls.
	m sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The number of fatal errors reported so far.
	errorCount int

	// The number of warnings reported so far.
	warnCount int
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages to the user (default).
)

// LogLevelFromName converts a log level name into one of the enumerated log
// levels.  Everything else (including invalid names) defaults to verbose.
func LogLevelFromName(name string) int {
	switch name {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "warn", "warning":
		return LogLevelWarn
	default:
		return LogLevelVerbose
	}
}

// NewReporter creates a new reporter with the given log level.
func NewReporter(logLevel int) *Reporter {
	return &Reporter{logLevel: logLevel}
}

// rep is the global reporter instance.
var (
	rep     = NewReporter(LogLevelSilent)
	repOnce sync.Once
)

// InitReporter initializes the global error reporter to the given log level. If
// the reporter has already been initialized, this function does nothing.
func InitReporter(logLevel int) {
	repOnce.Do(func() {
		rep = NewReporter(logLevel)
	})
}

// Global returns the global reporter.
func Global() *Reporter {
	return rep
}

// -----------------------------------------------------------------------------

// ReportCompileError reports an error produced by the compiler core.  Errors
// that are not fatal (parse error nodes) are displayed as warnings.
func (r *Reporter) ReportCompileError(err error) {
	if err == nil {
		return
	}

	if el, ok := err.(ErrorList); ok {
		for _, e := range el {
			r.ReportCompileError(e)
		}

		return
	}

	r.m.Lock()
	defer r.m.Unlock()

	fatal := IsFatal(err)
	if fatal {
		r.errorCount++
	} else {
		r.warnCount++
	}

	if fatal && r.logLevel > LogLevelSilent || !fatal && r.logLevel > LogLevelError {
		if ce, ok := AsCompileError(err); ok {
			displayCompileMessage(ce, fatal)
		} else {
			displayStdError(err)
		}
	}
}

// ReportPhase reports the start or completion of a compilation phase.  Only
// displayed at the verbose log level.
func (r *Reporter) ReportPhase(phase string, format string, args ...interface{}) {
	if r.logLevel == LogLevelVerbose {
		r.m.Lock()
		defer r.m.Unlock()

		displayPhase(phase, fmt.Sprintf(format, args...))
	}
}

// ReportICE reports an internal compiler error.  These are errors that
// specifically result from a bug or unexpected condition occurring within the
// compiler: they are not intended to ever happen.  They are always displayed
// and abort the current goroutine.
func (r *Reporter) ReportICE(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	r.m.Lock()
	displayICE(msg)
	r.m.Unlock()

	panic("internal compiler error: " + msg)
}

// AnyErrors returns whether or not any fatal errors were reported.
func (r *Reporter) AnyErrors() bool {
	r.m.Lock()
	defer r.m.Unlock()

	return r.errorCount > 0
}

// ErrorCount returns the number of fatal errors reported.
func (r *Reporter) ErrorCount() int {
	r.m.Lock()
	defer r.m.Unlock()

	return r.errorCount
}

// WarningCount returns the number of non-fatal diagnostics reported.
func (r *Reporter) WarningCount() int {
	r.m.Lock()
	defer r.m.Unlock()

	return r.warnCount
}
