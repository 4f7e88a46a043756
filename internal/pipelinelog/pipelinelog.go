// Package pipelinelog wraps github.com/tliron/commonlog to give
// components a named, leveled logger. The pipeline uses it to report
// pass errors; validator warnings are returned in its Report, not
// logged here.
package pipelinelog

import "github.com/tliron/commonlog"

// Configure sets the global commonlog verbosity level. level follows
// commonlog's convention: 0 is quietest, higher numbers are more
// verbose.
func Configure(level int) {
	commonlog.Configure(level, nil)
}

// Logger is the narrow surface the pipeline and passes need: a warning
// for validator-style non-fatal findings, an error for
// InvariantViolations the pipeline aborts the current routine over.
type Logger interface {
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ForComponent returns a logger named after the calling component
// (e.g. a pass's Name()), so log lines can be filtered/attributed per
// stage of the pipeline.
func ForComponent(name string) Logger {
	return commonlog.GetLogger("vtilcore." + name)
}
