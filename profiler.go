package kquery

// QueryEvent is the event name used for profiling SQL queries
const QueryEvent = "sql:query"

// SQL is the compiled form of a query builder
type SQL struct {
	Query    string
	Bindings []interface{}

	// ReturnsRows is set when the statement yields rows back,
	// e.g. an insert with a RETURNING clause.
	ReturnsRows bool
}

// Profiler is an instrumentation sink that can be attached to
// a Client in order to trace every query it executes.
//
// See the kprofiler package for zap and prometheus implementations.
type Profiler interface {
	Profile(event string, payload ProfilerPayload) ProfilerAction
}

// ProfilerAction represents an in-flight span started by a Profiler.
//
// End must be called exactly once, err is nil when the
// traced operation succeeded.
type ProfilerAction interface {
	End(err error)
}

// ProfilerPayload describes the query being traced
type ProfilerPayload struct {
	SQL

	Connection    string
	InTransaction bool
}

// ProfilerFunc adapts a function into a Profiler
type ProfilerFunc func(event string, payload ProfilerPayload) ProfilerAction

// Profile implements the Profiler interface
func (fn ProfilerFunc) Profile(event string, payload ProfilerPayload) ProfilerAction {
	return fn(event, payload)
}

// ActionFunc adapts a function into a ProfilerAction
type ActionFunc func(err error)

// End implements the ProfilerAction interface
func (fn ActionFunc) End(err error) {
	fn(err)
}
