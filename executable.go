package kquery

import (
	"context"
	"fmt"
)

// Executable is implemented by every query builder that can be
// sent to the database by Exec() and Query().
type Executable interface {
	// QueryClient returns the handle the query must run on
	QueryClient() DBAdapter

	// ProfilerAction starts a profiling span for the query or
	// returns nil when profiling is disabled.
	ProfilerAction() ProfilerAction

	ToSQL() (SQL, error)
}

// ExecResult stores the outcome of Exec()
type ExecResult struct {
	// Rows is only filled for statements that return rows,
	// e.g. inserts with a RETURNING clause.
	Rows []map[string]interface{} `json:"rows,omitempty"`

	RowsAffected int64 `json:"rows_affected"`

	// LastInsertID is only filled when the driver supports it,
	// e.g. on MySQL and SQLite.
	LastInsertID int64 `json:"last_insert_id"`
}

// Exec compiles the query, sends it to the handle chosen by the builder
// and reports the outcome to the builder's profiler.
//
// Statements with a returning clause are sent with QueryContext and their
// rows are available on ExecResult.Rows, other statements are sent with
// ExecContext.
//
// Errors returned by the statement compiler or by the database
// are returned unchanged.
func Exec(ctx context.Context, q Executable) (result ExecResult, err error) {
	compiled, err := q.ToSQL()
	if err != nil {
		return ExecResult{}, err
	}

	db := q.QueryClient()
	defer endProfilerAction(q.ProfilerAction(), &err)
	defer ctxLog(ctx, compiled.Query, compiled.Bindings, &err)

	if compiled.ReturnsRows {
		rows, err := db.QueryContext(ctx, compiled.Query, compiled.Bindings...)
		if err != nil {
			return ExecResult{}, err
		}

		result.Rows, err = scanAll(rows)
		if err != nil {
			return ExecResult{}, err
		}
		result.RowsAffected = int64(len(result.Rows))
		return result, nil
	}

	res, err := db.ExecContext(ctx, compiled.Query, compiled.Bindings...)
	if err != nil {
		return ExecResult{}, err
	}

	// Both values are optional on most drivers, so
	// errors reading them are not reported:
	if n, err := res.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		result.LastInsertID = id
	}

	return result, nil
}

// Query works as Exec() but always reads the rows
// produced by the statement.
func Query(ctx context.Context, q Executable) (records []map[string]interface{}, err error) {
	compiled, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	db := q.QueryClient()
	defer endProfilerAction(q.ProfilerAction(), &err)
	defer ctxLog(ctx, compiled.Query, compiled.Bindings, &err)

	rows, err := db.QueryContext(ctx, compiled.Query, compiled.Bindings...)
	if err != nil {
		return nil, err
	}

	return scanAll(rows)
}

// endProfilerAction must be called with defer so it can
// also end the span when the execution panics.
func endProfilerAction(action ProfilerAction, err *error) {
	if action == nil {
		return
	}

	if r := recover(); r != nil {
		action.End(fmt.Errorf("kquery: panic while executing query: %v", r))
		panic(r)
	}

	action.End(*err)
}

func scanAll(rows Rows) (records []map[string]interface{}, err error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records = []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}

		record := make(map[string]interface{}, len(columns))
		for i, name := range columns {
			value := values[i]
			// Some drivers return text columns as []byte:
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			record[name] = value
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
