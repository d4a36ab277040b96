package kquery

import (
	"context"

	"github.com/vingarcia/kquery/kbuilder"
)

var _ Executable = &InsertQueryBuilder{}

// InsertQueryBuilder exposes the API for performing SQL inserts.
//
// All its setters mutate the builder and return it so
// calls can be chained:
//
//	result, err := kquery.NewInsertQuery(client).
//		Table("users").
//		Insert(map[string]interface{}{"name": "Ann"}).
//		Returning("id").
//		Exec(ctx)
//
// A builder should be used for a single insert and
// must not be shared between goroutines.
type InsertQueryBuilder struct {
	stmt   *kbuilder.Insert
	client QueryClient
}

// NewInsertQuery instantiates an insert query builder bound to the input client
func NewInsertQuery(client QueryClient) *InsertQueryBuilder {
	return &InsertQueryBuilder{
		stmt:   &kbuilder.Insert{},
		client: client,
	}
}

// QueryClient returns the handle used to run the query.
//
// Inserts always run on the write client, even when the
// client routes reads to a replica.
func (q *InsertQueryBuilder) QueryClient() DBAdapter {
	return q.client.WriteClient()
}

// ProfilerAction starts a profiling span for this query,
// it returns nil if the client has no profiler.
func (q *InsertQueryBuilder) ProfilerAction() ProfilerAction {
	profiler := q.client.Profiler()
	if profiler == nil {
		return nil
	}

	// Compilation errors are reported by ToSQL() before
	// the executor ever starts a span:
	compiled, _ := q.ToSQL()

	return profiler.Profile(QueryEvent, ProfilerPayload{
		SQL:           compiled,
		Connection:    q.client.ConnectionName(),
		InTransaction: q.client.IsTransaction(),
	})
}

// Table defines the table for performing the insert query
func (q *InsertQueryBuilder) Table(table string) *InsertQueryBuilder {
	q.stmt.Into = table
	return q
}

// Returning defines the columns returned by the insert query.
//
// It is a no-op on dialects that suppress RETURNING (MySQL and SQLite),
// on these dialects use ExecResult.LastInsertID instead.
func (q *InsertQueryBuilder) Returning(columns ...string) *InsertQueryBuilder {
	if q.client.Dialect().Name().SuppressesReturning() {
		return q
	}

	q.stmt.Returning = append(q.stmt.Returning, columns...)
	return q
}

// Insert defines the row(s) to insert, it expects either a
// map[string]interface{}, a struct tagged with `kquery` tags,
// or a slice of any of these.
func (q *InsertQueryBuilder) Insert(rows interface{}) *InsertQueryBuilder {
	q.stmt.Data = rows
	return q
}

// MultiInsert inserts multiple rows in a single query,
// it works exactly as Insert()
func (q *InsertQueryBuilder) MultiInsert(rows interface{}) *InsertQueryBuilder {
	return q.Insert(rows)
}

// ToSQL compiles the query for the dialect of the client
func (q *InsertQueryBuilder) ToSQL() (SQL, error) {
	query, params, err := q.stmt.BuildQuery(q.client.Dialect())
	if err != nil {
		return SQL{}, err
	}

	return SQL{
		Query:       query,
		Bindings:    params,
		ReturnsRows: len(q.stmt.Returning) > 0,
	}, nil
}

// ToQuery compiles the query with all bindings written inline,
// which is useful for debugging and logging.
func (q *InsertQueryBuilder) ToQuery() (string, error) {
	return q.stmt.BuildLiteral(q.client.Dialect())
}

// Exec is a shortcut for kquery.Exec(ctx, q)
func (q *InsertQueryBuilder) Exec(ctx context.Context) (ExecResult, error) {
	return Exec(ctx, q)
}

// Query is a shortcut for kquery.Query(ctx, q)
func (q *InsertQueryBuilder) Query(ctx context.Context) ([]map[string]interface{}, error) {
	return Query(ctx, q)
}
