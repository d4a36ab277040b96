// Package ksqlite3 provides a kquery adapter backed by the mattn/go-sqlite3 driver.
//
// Importing it registers the adapter under the name "sqlite3".
package ksqlite3

import (
	"context"
	"database/sql"

	"github.com/vingarcia/kquery"
	"github.com/vingarcia/kquery/sqldialect"

	// This is imported here so the user don't
	// have to worry about it when he uses it.
	_ "github.com/mattn/go-sqlite3"
)

// AdapterName is the name used to register this adapter
const AdapterName = "sqlite3"

func init() {
	kquery.RegisterAdapter(AdapterName, sqldialect.SQLite3, func(ctx context.Context, connectionString string, config kquery.Config) (kquery.DBAdapter, error) {
		db, err := New(ctx, connectionString, config)
		if err != nil {
			return nil, err
		}
		return db, nil
	})
}

// NewFromSQLDB wraps a *sql.DB instance opened with the "sqlite3" driver
func NewFromSQLDB(db *sql.DB) kquery.SQLAdapter {
	return kquery.SQLAdapter{DB: db}
}

// New opens a connection pool using the "sqlite3" driver,
// connectionString is usually the path to the database file.
func New(
	ctx context.Context,
	connectionString string,
	config kquery.Config,
) (kquery.SQLAdapter, error) {
	return kquery.OpenSQLAdapter(ctx, "sqlite3", connectionString, config)
}
