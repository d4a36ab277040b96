package kquery

import (
	"context"
	"encoding/json"
	"fmt"
)

// This variable is only used during tests:
var logPrinter = fmt.Println

var _ LoggerFn = ErrorLogger

// ErrorLogger is a builtin logger that can be passed to
// kquery.InjectLogger() to only log when an error occurs.
//
// Note that only errors that happen after kquery sends the
// query to the backend adapter will be logged.
// Any errors that happen before that will not be logged.
func ErrorLogger(ctx context.Context, values LogValues) {
	if values.Err == nil {
		return
	}

	Logger(ctx, values)
}

var _ LoggerFn = Logger

// Logger is a builtin logger that can be passed to
// kquery.InjectLogger() to log every query and query errors.
func Logger(ctx context.Context, values LogValues) {
	b, _ := json.Marshal(values)
	logPrinter(string(b))
}

type loggerKey struct{}

// LogValues is the argument type of kquery.LoggerFn which contains
// the data available for logging whenever a query is executed.
type LogValues struct {
	Query  string
	Params []interface{}
	Err    error
}

func (l LogValues) MarshalJSON() ([]byte, error) {
	var out struct {
		Query  string        `json:"query"`
		Params []interface{} `json:"params"`
		Err    string        `json:"error,omitempty"`
	}

	out.Query = l.Query

	out.Params = l.Params

	// Force it to print Params: [], instead of Params: null
	if out.Params == nil {
		out.Params = []interface{}{}
	}

	if l.Err != nil {
		out.Err = l.Err.Error()
	}
	return json.Marshal(out)
}

// LoggerFn is a the type of function received as
// argument of the kquery.InjectLogger function.
type LoggerFn func(ctx context.Context, values LogValues)

// InjectLogger is a debugging tool that allows the user to force
// kquery to log the query, query params and error response whenever
// a query is executed.
//
// Example Usage:
//
//	// After injecting a logger into `ctx` all subsequent queries
//	// that use this context will be logged.
//	ctx = kquery.InjectLogger(ctx, kquery.Logger)
//
//	_, err := client.Table("users").
//		Insert(map[string]interface{}{"name": "Ann"}).
//		Exec(ctx)
func InjectLogger(
	ctx context.Context,
	logFn LoggerFn,
) context.Context {
	return context.WithValue(ctx, loggerKey{}, logFn)
}

func ctxLog(ctx context.Context, query string, params []interface{}, err *error) {
	l, _ := ctx.Value(loggerKey{}).(LoggerFn)
	if l == nil {
		return
	}

	l(ctx, LogValues{
		Query:  query,
		Params: params,
		Err:    *err,
	})
}
