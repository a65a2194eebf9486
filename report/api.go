package report

// -----------------------------------------------------------------------------
// NOTE: These functions forward to the global reporter.  All report functions
// will only display if the appropriate log level is set.

// ReportCompileError reports a compile error to the global reporter.
func ReportCompileError(err error) {
	rep.ReportCompileError(err)
}

// ReportPhase reports a compilation phase to the global reporter.
func ReportPhase(phase, format string, args ...interface{}) {
	rep.ReportPhase(phase, format, args...)
}

// ReportICE reports an internal compiler error to the global reporter.
func ReportICE(format string, args ...interface{}) {
	rep.ReportICE(format, args...)
}

// AnyErrors returns whether the global reporter has seen any fatal errors.
func AnyErrors() bool {
	return rep.AnyErrors()
}

// -----------------------------------------------------------------------------

// thrown wraps an error raised with Throw so that CatchErrors can tell it apart
// from genuine panics.
type thrown struct {
	err error
}

// Throw aborts the current unit of work with err.  It must only be called
// beneath a deferred CatchErrors.
func Throw(err error) {
	panic(thrown{err: err})
}

// CatchErrors catches any errors thrown by Throw during a unit of work and
// stores them into errp.  Any other panic continues unwinding.
// NB: This function must ALWAYS be deferred.
func CatchErrors(errp *error) {
	if x := recover(); x != nil {
		if t, ok := x.(thrown); ok {
			*errp = t.err
			return
		}

		panic(x)
	}
}
