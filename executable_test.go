package kquery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vingarcia/kquery"
	tt "github.com/vingarcia/kquery/internal/testtools"
)

type spanRecorder struct {
	started []kquery.ProfilerPayload
	ended   []error
}

func (s *spanRecorder) Profile(event string, payload kquery.ProfilerPayload) kquery.ProfilerAction {
	s.started = append(s.started, payload)
	return kquery.ActionFunc(func(err error) {
		s.ended = append(s.ended, err)
	})
}

func TestExec(t *testing.T) {
	ctx := context.Background()

	t.Run("should use ExecContext when nothing is returned", func(t *testing.T) {
		var capturedQuery string
		var capturedArgs []interface{}
		db := kquery.MockDBAdapter{
			ExecContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Result, error) {
				capturedQuery = query
				capturedArgs = args
				return kquery.MockResult{
					LastInsertIdFn: func() (int64, error) { return 42, nil },
					RowsAffectedFn: func() (int64, error) { return 1, nil },
				}, nil
			},
		}

		result, err := kquery.Exec(ctx, newClient(t, "sqlite3", db).
			Table("users").
			Insert(&User{Name: "Ann"}).
			Returning("id"),
		)
		tt.AssertNoErr(t, err)

		tt.AssertEqual(t, capturedQuery, "INSERT INTO `users` (`id`, `name`) VALUES (?, ?)")
		tt.AssertEqual(t, capturedArgs, []interface{}{0, "Ann"})
		tt.AssertEqual(t, result, kquery.ExecResult{
			RowsAffected: 1,
			LastInsertID: 42,
		})
	})

	t.Run("should ignore drivers that can't report the last insert id", func(t *testing.T) {
		db := kquery.MockDBAdapter{
			ExecContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Result, error) {
				return kquery.MockResult{
					LastInsertIdFn: func() (int64, error) { return 0, errors.New("not supported") },
					RowsAffectedFn: func() (int64, error) { return 1, nil },
				}, nil
			},
		}

		result, err := newClient(t, "pg", db).
			Table("users").
			Insert(map[string]interface{}{"name": "Ann"}).
			Exec(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, result, kquery.ExecResult{RowsAffected: 1})
	})

	t.Run("should use QueryContext when the insert returns rows", func(t *testing.T) {
		var capturedQuery string
		db := kquery.MockDBAdapter{
			QueryContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Rows, error) {
				capturedQuery = query
				return &kquery.MockRows{
					Cols: []string{"id", "name"},
					Records: []map[string]interface{}{
						{"id": int64(1), "name": []byte("A")},
						{"id": int64(2), "name": "B"},
					},
				}, nil
			},
		}

		result, err := newClient(t, "pg", db).
			Table("users").
			MultiInsert([]map[string]interface{}{{"name": "A"}, {"name": "B"}}).
			Returning("id", "name").
			Exec(ctx)
		tt.AssertNoErr(t, err)

		tt.AssertEqual(t, capturedQuery, `INSERT INTO "users" ("name") VALUES ($1), ($2) RETURNING "id", "name"`)
		tt.AssertEqual(t, result, kquery.ExecResult{
			Rows: []map[string]interface{}{
				{"id": int64(1), "name": "A"},
				{"id": int64(2), "name": "B"},
			},
			RowsAffected: 2,
		})
	})

	t.Run("should return driver errors unchanged", func(t *testing.T) {
		driverErr := errors.New("fakeErrMsg: duplicate key value violates unique constraint")
		db := kquery.MockDBAdapter{
			ExecContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Result, error) {
				return nil, driverErr
			},
			QueryContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Rows, error) {
				return nil, driverErr
			},
		}

		c := newClient(t, "pg", db)

		_, err := c.Table("users").Insert(map[string]interface{}{"name": "Ann"}).Exec(ctx)
		tt.AssertEqual(t, err == driverErr, true)

		_, err = c.Table("users").Insert(map[string]interface{}{"name": "Ann"}).Returning("id").Exec(ctx)
		tt.AssertEqual(t, err == driverErr, true)
	})

	t.Run("should return scan errors unchanged", func(t *testing.T) {
		scanErr := errors.New("fakeScanErr")
		db := kquery.MockDBAdapter{
			QueryContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Rows, error) {
				return &kquery.MockRows{
					Cols:    []string{"id"},
					Records: []map[string]interface{}{{"id": 1}},
					ScanFn: func(...interface{}) error {
						return scanErr
					},
				}, nil
			},
		}

		_, err := newClient(t, "pg", db).
			Table("users").
			Insert(map[string]interface{}{"name": "Ann"}).
			Returning("id").
			Exec(ctx)
		tt.AssertEqual(t, err == scanErr, true)
	})

	t.Run("should not send anything to the database if the query doesn't compile", func(t *testing.T) {
		recorder := &spanRecorder{}
		db := kquery.MockDBAdapter{}

		_, err := newClient(t, "pg", db, kquery.WithProfiler(recorder)).InsertQuery().
			Insert(map[string]interface{}{"name": "Ann"}).
			Exec(ctx)
		tt.AssertErrContains(t, err, "Into attr")
		tt.AssertEqual(t, len(recorder.started), 0)
	})

	t.Run("profiler spans", func(t *testing.T) {
		t.Run("should end the span with nil on success", func(t *testing.T) {
			recorder := &spanRecorder{}
			db := kquery.MockDBAdapter{
				ExecContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Result, error) {
					return kquery.MockResult{}, nil
				},
			}

			_, err := newClient(t, "pg", db, kquery.WithProfiler(recorder)).
				Table("users").
				Insert(map[string]interface{}{"name": "Ann"}).
				Exec(ctx)
			tt.AssertNoErr(t, err)

			tt.AssertEqual(t, len(recorder.started), 1)
			tt.AssertEqual(t, recorder.ended, []error{nil})
		})

		t.Run("should end the span with the error on failure", func(t *testing.T) {
			recorder := &spanRecorder{}
			driverErr := errors.New("fakeErrMsg")
			db := kquery.MockDBAdapter{
				ExecContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Result, error) {
					return nil, driverErr
				},
			}

			_, err := newClient(t, "pg", db, kquery.WithProfiler(recorder)).
				Table("users").
				Insert(map[string]interface{}{"name": "Ann"}).
				Exec(ctx)
			tt.AssertEqual(t, err == driverErr, true)

			tt.AssertEqual(t, len(recorder.ended), 1)
			tt.AssertEqual(t, recorder.ended[0] == driverErr, true)
		})

		t.Run("should end the span when the adapter panics", func(t *testing.T) {
			recorder := &spanRecorder{}
			db := kquery.MockDBAdapter{
				ExecContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Result, error) {
					panic("fakePanicPayload")
				},
			}

			panicPayload := tt.PanicHandler(func() {
				newClient(t, "pg", db, kquery.WithProfiler(recorder)).
					Table("users").
					Insert(map[string]interface{}{"name": "Ann"}).
					Exec(ctx)
			})
			tt.AssertEqual(t, panicPayload, "fakePanicPayload")

			tt.AssertEqual(t, len(recorder.ended), 1)
			tt.AssertErrContains(t, recorder.ended[0], "panic", "fakePanicPayload")
		})
	})

	t.Run("should log the query through the context logger", func(t *testing.T) {
		var logged []kquery.LogValues
		ctx := kquery.InjectLogger(ctx, func(ctx context.Context, values kquery.LogValues) {
			logged = append(logged, values)
		})

		driverErr := errors.New("fakeErrMsg")
		db := kquery.MockDBAdapter{
			ExecContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Result, error) {
				return nil, driverErr
			},
		}

		_, err := newClient(t, "pg", db).
			Table("users").
			Insert(map[string]interface{}{"name": "Ann"}).
			Exec(ctx)
		tt.AssertEqual(t, err == driverErr, true)

		tt.AssertEqual(t, logged, []kquery.LogValues{
			{
				Query:  `INSERT INTO "users" ("name") VALUES ($1)`,
				Params: []interface{}{"Ann"},
				Err:    driverErr,
			},
		})
	})
}

func TestQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("should read the rows even without a returning clause", func(t *testing.T) {
		db := kquery.MockDBAdapter{
			QueryContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Rows, error) {
				return &kquery.MockRows{}, nil
			},
		}

		rows, err := newClient(t, "mysql", db).
			Table("users").
			Insert(map[string]interface{}{"name": "Ann"}).
			Query(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, rows, []map[string]interface{}{})
	})

	t.Run("should report the rows errors", func(t *testing.T) {
		rowsErr := errors.New("fakeRowsErr")
		db := kquery.MockDBAdapter{
			QueryContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Rows, error) {
				return &kquery.MockRows{
					ErrFn: func() error { return rowsErr },
				}, nil
			},
		}

		_, err := newClient(t, "pg", db).RawQuery("SELECT 1").Query(ctx)
		tt.AssertEqual(t, err == rowsErr, true)
	})
}
