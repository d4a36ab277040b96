package kquery

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"testing"

	tt "github.com/vingarcia/kquery/internal/testtools"
	"github.com/vingarcia/kquery/sqldialect"
)

type user struct {
	Name string `kquery:"name"`
	Age  int    `kquery:"age"`

	Address address `kquery:"address,json"`

	// This attr has no kquery tag, thus, it should be ignored:
	AttrThatShouldBeIgnored string
}

type address struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

// RunTestsForAdapter will run all necessary tests for making sure
// a given adapter is working as expected.
//
// Optionally it is also possible to run each of these tests
// separatedly, which might be useful during the development
// of a new adapter.
func RunTestsForAdapter(
	t *testing.T,
	adapterName string,
	dialect sqldialect.Provider,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	t.Run(adapterName, func(t *testing.T) {
		t.Run(dialect.DriverName(), func(t *testing.T) {
			InsertTest(t, dialect, newDBAdapter)
			MultiInsertTest(t, dialect, newDBAdapter)
			ReturningTest(t, dialect, newDBAdapter)
			TransactionTest(t, dialect, newDBAdapter)
		})
	})
}

// InsertTest runs all tests for making sure single row inserts
// are working for a given adapter and dialect.
func InsertTest(
	t *testing.T,
	dialect sqldialect.Provider,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	ctx := context.Background()

	t.Run("Insert", func(t *testing.T) {
		t.Run("should insert a map", func(t *testing.T) {
			db, closer := newDBAdapter(t)
			defer closer.Close()

			err := createTables(ctx, db, dialect)
			if err != nil {
				t.Fatal("could not create test table!, reason:", err.Error())
			}

			c := NewClient("test", dialect, db)

			result, err := c.Table("users").
				Insert(map[string]interface{}{"name": "Ann", "age": 22}).
				Exec(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, result.RowsAffected, int64(1))

			rows := selectUsers(t, c)
			tt.AssertEqual(t, len(rows), 1)
			tt.AssertEqual(t, rows[0]["name"], "Ann")
			tt.AssertEqual(t, asInt64(t, rows[0]["age"]), int64(22))
		})

		t.Run("should insert a struct ignoring untagged attributes", func(t *testing.T) {
			db, closer := newDBAdapter(t)
			defer closer.Close()

			err := createTables(ctx, db, dialect)
			if err != nil {
				t.Fatal("could not create test table!, reason:", err.Error())
			}

			c := NewClient("test", dialect, db)

			_, err = c.Table("users").
				Insert(&user{
					Name:    "Ann",
					Age:     22,
					Address: address{Street: "Main St", City: "Springfield"},

					AttrThatShouldBeIgnored: "ignored",
				}).
				Exec(ctx)
			tt.AssertNoErr(t, err)

			rows := selectUsers(t, c)
			tt.AssertEqual(t, len(rows), 1)
			tt.AssertEqual(t, rows[0]["name"], "Ann")
			tt.AssertEqual(t, asInt64(t, rows[0]["age"]), int64(22))
			tt.AssertContains(t, fmt.Sprint(rows[0]["address"]), `"street":"Main St"`, `"city":"Springfield"`)
		})

		t.Run("should report errors from the database", func(t *testing.T) {
			db, closer := newDBAdapter(t)
			defer closer.Close()

			err := createTables(ctx, db, dialect)
			if err != nil {
				t.Fatal("could not create test table!, reason:", err.Error())
			}

			c := NewClient("test", dialect, db)

			_, err = c.Table("non_existing_table").
				Insert(map[string]interface{}{"name": "Ann"}).
				Exec(ctx)
			tt.AssertNotEqual(t, err, nil)
		})
	})
}

// MultiInsertTest runs all tests for making sure multi row inserts
// are working for a given adapter and dialect.
func MultiInsertTest(
	t *testing.T,
	dialect sqldialect.Provider,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	ctx := context.Background()

	t.Run("MultiInsert", func(t *testing.T) {
		t.Run("should insert all rows in a single query", func(t *testing.T) {
			db, closer := newDBAdapter(t)
			defer closer.Close()

			err := createTables(ctx, db, dialect)
			if err != nil {
				t.Fatal("could not create test table!, reason:", err.Error())
			}

			var queries int
			c := NewClient("test", dialect, db, WithProfiler(ProfilerFunc(
				func(event string, payload ProfilerPayload) ProfilerAction {
					queries++
					return nil
				},
			)))

			result, err := c.Table("users").
				MultiInsert([]user{
					{Name: "User1", Age: 1},
					{Name: "User2", Age: 2},
					{Name: "User3", Age: 3},
				}).
				Exec(ctx)
			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, queries, 1)
			tt.AssertEqual(t, result.RowsAffected, int64(3))

			rows := selectUsers(t, NewClient("test", dialect, db))
			tt.AssertEqual(t, len(rows), 3)
			for i, row := range rows {
				tt.AssertEqual(t, row["name"], "User"+strconv.Itoa(i+1))
				tt.AssertEqual(t, asInt64(t, row["age"]), int64(i+1))
			}
		})

		t.Run("should fill the missing columns with their default values", func(t *testing.T) {
			db, closer := newDBAdapter(t)
			defer closer.Close()

			err := createTables(ctx, db, dialect)
			if err != nil {
				t.Fatal("could not create test table!, reason:", err.Error())
			}

			c := NewClient("test", dialect, db)

			_, err = c.Table("users").
				MultiInsert([]map[string]interface{}{
					{"name": "User1", "nullable_field": "set"},
					{"name": "User2"},
				}).
				Exec(ctx)
			tt.AssertNoErr(t, err)

			rows := selectUsers(t, c)
			tt.AssertEqual(t, len(rows), 2)
			tt.AssertEqual(t, rows[0]["nullable_field"], "set")

			// SQLite has no DEFAULT keyword inside VALUES lists:
			if dialect.Name() == sqldialect.SQLite3 {
				tt.AssertEqual(t, rows[1]["nullable_field"], nil)
			} else {
				tt.AssertEqual(t, rows[1]["nullable_field"], "not_null")
			}
		})
	})
}

// ReturningTest checks that the returning clause is honored by
// the dialects that support it and ignored by the others.
func ReturningTest(
	t *testing.T,
	dialect sqldialect.Provider,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	ctx := context.Background()

	t.Run("Returning", func(t *testing.T) {
		db, closer := newDBAdapter(t)
		defer closer.Close()

		err := createTables(ctx, db, dialect)
		if err != nil {
			t.Fatal("could not create test table!, reason:", err.Error())
		}

		c := NewClient("test", dialect, db)

		result, err := c.Table("users").
			Insert(map[string]interface{}{"name": "Ann"}).
			Returning("id").
			Exec(ctx)
		tt.AssertNoErr(t, err)

		if dialect.Name().SuppressesReturning() {
			tt.AssertEqual(t, len(result.Rows), 0)
			tt.AssertNotEqual(t, result.LastInsertID, int64(0))
			return
		}

		tt.AssertEqual(t, len(result.Rows), 1)
		tt.AssertNotEqual(t, asInt64(t, result.Rows[0]["id"]), int64(0))

		rows, err := c.Table("users").
			MultiInsert([]map[string]interface{}{{"name": "Bob"}, {"name": "Cid"}}).
			Returning("id", "name").
			Query(ctx)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, len(rows), 2)
		tt.AssertEqual(t, rows[0]["name"], "Bob")
		tt.AssertEqual(t, rows[1]["name"], "Cid")
	})
}

// TransactionTest runs all tests for making sure the Transaction
// method is working for a given adapter and dialect.
func TransactionTest(
	t *testing.T,
	dialect sqldialect.Provider,
	newDBAdapter func(t *testing.T) (DBAdapter, io.Closer),
) {
	ctx := context.Background()

	t.Run("Transaction", func(t *testing.T) {
		t.Run("should commit inserts made inside the transaction", func(t *testing.T) {
			db, closer := newDBAdapter(t)
			defer closer.Close()

			err := createTables(ctx, db, dialect)
			if err != nil {
				t.Fatal("could not create test table!, reason:", err.Error())
			}

			c := NewClient("test", dialect, db)

			err = c.Transaction(ctx, func(tx *Client) error {
				_, err := tx.Table("users").Insert(map[string]interface{}{"name": "User1"}).Exec(ctx)
				if err != nil {
					return err
				}

				return tx.Transaction(ctx, func(tx *Client) error {
					_, err := tx.Table("users").Insert(map[string]interface{}{"name": "User2"}).Exec(ctx)
					return err
				})
			})
			tt.AssertNoErr(t, err)

			rows := selectUsers(t, c)
			tt.AssertEqual(t, len(rows), 2)
		})

		t.Run("should rollback when the callback fails", func(t *testing.T) {
			db, closer := newDBAdapter(t)
			defer closer.Close()

			err := createTables(ctx, db, dialect)
			if err != nil {
				t.Fatal("could not create test table!, reason:", err.Error())
			}

			c := NewClient("test", dialect, db)

			err = c.Transaction(ctx, func(tx *Client) error {
				_, err := tx.Table("users").Insert(map[string]interface{}{"name": "User1"}).Exec(ctx)
				if err != nil {
					return err
				}

				return fmt.Errorf("fakeErrMsg")
			})
			tt.AssertErrContains(t, err, "fakeErrMsg")

			rows := selectUsers(t, c)
			tt.AssertEqual(t, len(rows), 0)
		})
	})
}

func selectUsers(t *testing.T, c *Client) []map[string]interface{} {
	rows, err := c.RawQuery(`SELECT name, age, address, nullable_field FROM users ORDER BY id ASC`).
		Query(context.Background())
	tt.AssertNoErr(t, err)
	return rows
}

func asInt64(t *testing.T, v interface{}) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		tt.AssertNoErr(t, err)
		return i
	}

	t.Fatalf("expected an integer but got %T(%v)", v, v)
	return 0
}

func createTables(ctx context.Context, db DBAdapter, dialect sqldialect.Provider) (err error) {
	_, _ = db.ExecContext(ctx, `DROP TABLE users`)

	switch dialect.Name() {
	case sqldialect.SQLite3:
		_, err = db.ExecContext(ctx, `CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			age INTEGER,
			name TEXT,
			address TEXT,
			nullable_field TEXT DEFAULT 'not_null'
		)`)
	case sqldialect.Postgres:
		_, err = db.ExecContext(ctx, `CREATE TABLE users (
			id serial PRIMARY KEY,
			age INT,
			name VARCHAR(50),
			address TEXT,
			nullable_field VARCHAR(50) DEFAULT 'not_null'
		)`)
	case sqldialect.MySQL:
		_, err = db.ExecContext(ctx, `CREATE TABLE users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			age INT,
			name VARCHAR(50),
			address TEXT,
			nullable_field VARCHAR(50) DEFAULT 'not_null'
		)`)
	case sqldialect.SQLServer:
		_, err = db.ExecContext(ctx, `CREATE TABLE users (
			id INT IDENTITY(1,1) PRIMARY KEY,
			age INT,
			name VARCHAR(50),
			address NVARCHAR(4000),
			nullable_field VARCHAR(50) DEFAULT 'not_null'
		)`)
	}
	if err != nil {
		return fmt.Errorf("failed to create new users table: %s", err.Error())
	}

	return nil
}
