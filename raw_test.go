package kquery_test

import (
	"context"
	"testing"

	"github.com/vingarcia/kquery"
	tt "github.com/vingarcia/kquery/internal/testtools"
)

func TestRawQueryBuilder(t *testing.T) {
	write := &namedAdapter{name: "write"}
	replica := &namedAdapter{name: "replica"}
	c := newClient(t, "pg", write, kquery.WithReadReplicas(replica))

	t.Run("should route select statements to the read client", func(t *testing.T) {
		for _, query := range []string{
			"SELECT * FROM users",
			"  select id FROM users",
			"\nSelect(1)",
		} {
			tt.AssertEqual(t, c.RawQuery(query).QueryClient().(*namedAdapter).name, "replica")
		}
	})

	t.Run("should route everything else to the write client", func(t *testing.T) {
		for _, query := range []string{
			"INSERT INTO users (name) VALUES ($1)",
			"UPDATE users SET name = $1",
			"WITH x AS (SELECT 1) DELETE FROM users",
			"SELECTED",
		} {
			tt.AssertEqual(t, c.RawQuery(query).QueryClient().(*namedAdapter).name, "write")
		}
	})

	t.Run("should compile to the input query and bindings", func(t *testing.T) {
		compiled, err := c.RawQuery("SELECT * FROM users WHERE id = $1", 42).ToSQL()
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, compiled, kquery.SQL{
			Query:       "SELECT * FROM users WHERE id = $1",
			Bindings:    []interface{}{42},
			ReturnsRows: true,
		})
	})

	t.Run("should read rows through the executor", func(t *testing.T) {
		db := kquery.MockDBAdapter{
			QueryContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Rows, error) {
				return &kquery.MockRows{
					Cols:    []string{"count"},
					Records: []map[string]interface{}{{"count": int64(3)}},
				}, nil
			},
		}

		var payloads []kquery.ProfilerPayload
		profiler := kquery.ProfilerFunc(func(event string, payload kquery.ProfilerPayload) kquery.ProfilerAction {
			payloads = append(payloads, payload)
			return kquery.ActionFunc(func(err error) {})
		})

		rows, err := newClient(t, "sqlite3", db, kquery.WithProfiler(profiler)).
			RawQuery("SELECT count(*) AS count FROM users").
			Query(context.Background())
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, rows, []map[string]interface{}{{"count": int64(3)}})
		tt.AssertEqual(t, len(payloads), 1)
		tt.AssertEqual(t, payloads[0].Query, "SELECT count(*) AS count FROM users")
	})
}
