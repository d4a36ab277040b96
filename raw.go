package kquery

import (
	"context"
	"strings"
	"unicode"
)

var _ Executable = &RawQueryBuilder{}

// RawQueryBuilder runs a hand written SQL statement through the
// same execution path used by the other query builders.
//
// Placeholders must be written in the syntax of the client's dialect.
type RawQueryBuilder struct {
	query    string
	bindings []interface{}
	client   QueryClient
}

// NewRawQuery instantiates a raw query builder bound to the input client
func NewRawQuery(client QueryClient, query string, bindings ...interface{}) *RawQueryBuilder {
	return &RawQueryBuilder{
		query:    query,
		bindings: bindings,
		client:   client,
	}
}

// QueryClient returns the read client for SELECT statements
// and the write client for anything else.
func (r *RawQueryBuilder) QueryClient() DBAdapter {
	if strings.EqualFold(getFirstToken(r.query), "SELECT") {
		return r.client.ReadClient()
	}
	return r.client.WriteClient()
}

// ProfilerAction starts a profiling span for this query,
// it returns nil if the client has no profiler.
func (r *RawQueryBuilder) ProfilerAction() ProfilerAction {
	profiler := r.client.Profiler()
	if profiler == nil {
		return nil
	}

	compiled, _ := r.ToSQL()
	return profiler.Profile(QueryEvent, ProfilerPayload{
		SQL:           compiled,
		Connection:    r.client.ConnectionName(),
		InTransaction: r.client.IsTransaction(),
	})
}

// ToSQL implements the Executable interface
func (r *RawQueryBuilder) ToSQL() (SQL, error) {
	return SQL{
		Query:       r.query,
		Bindings:    r.bindings,
		ReturnsRows: strings.EqualFold(getFirstToken(r.query), "SELECT"),
	}, nil
}

// Exec is a shortcut for kquery.Exec(ctx, r)
func (r *RawQueryBuilder) Exec(ctx context.Context) (ExecResult, error) {
	return Exec(ctx, r)
}

// Query is a shortcut for kquery.Query(ctx, r)
func (r *RawQueryBuilder) Query(ctx context.Context) ([]map[string]interface{}, error) {
	return Query(ctx, r)
}

// We implemented this function instead of using
// a regex or strings.Fields because we wanted
// to preserve the performance of the package.
func getFirstToken(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	var token strings.Builder
	for _, c := range s {
		if unicode.IsSpace(c) || c == '(' {
			break
		}
		token.WriteRune(c)
	}
	return token.String()
}
