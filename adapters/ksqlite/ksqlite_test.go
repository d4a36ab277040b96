package ksqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/vingarcia/kquery"
	tt "github.com/vingarcia/kquery/internal/testtools"
	"github.com/vingarcia/kquery/sqldialect"
)

func TestAdapter(t *testing.T) {
	kquery.RunTestsForAdapter(t, "ksqlite", sqldialect.Sqlite3Dialect{}, func(t *testing.T) (kquery.DBAdapter, io.Closer) {
		db, err := New(context.Background(), filepath.Join(t.TempDir(), "kquery.db"), kquery.Config{})
		if err != nil {
			t.Fatal(err.Error())
		}
		return db, db
	})
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	info, err := kquery.LookupAdapter(AdapterName)
	tt.AssertNoErr(t, err)
	tt.AssertEqual(t, info.Dialect, sqldialect.SQLite3)

	db, err := kquery.OpenAdapter(ctx, AdapterName, filepath.Join(t.TempDir(), "kquery.db"), kquery.Config{})
	tt.AssertNoErr(t, err)

	c := kquery.NewClient("test", info.Dialect.Provider(), db)
	defer c.Close()

	_, err = c.RawQuery(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`).Exec(ctx)
	tt.AssertNoErr(t, err)

	result, err := c.Table("users").
		MultiInsert([]map[string]interface{}{{"name": "Ann"}, {"name": "Bob"}}).
		Returning("id").
		Exec(ctx)
	tt.AssertNoErr(t, err)
	tt.AssertEqual(t, result.RowsAffected, int64(2))
	tt.AssertEqual(t, result.LastInsertID, int64(2))
	tt.AssertEqual(t, len(result.Rows), 0)
}
