// Package kpostgres provides a kquery adapter backed by the lib/pq driver.
//
// Importing it registers the adapter under the name "postgres".
package kpostgres

import (
	"context"
	"database/sql"

	"github.com/vingarcia/kquery"
	"github.com/vingarcia/kquery/sqldialect"

	// This is imported here so the user don't
	// have to worry about it when he uses it.
	_ "github.com/lib/pq"
)

// AdapterName is the name used to register this adapter
const AdapterName = "postgres"

func init() {
	kquery.RegisterAdapter(AdapterName, sqldialect.Postgres, func(ctx context.Context, connectionString string, config kquery.Config) (kquery.DBAdapter, error) {
		db, err := New(ctx, connectionString, config)
		if err != nil {
			return nil, err
		}
		return db, nil
	})
}

// NewFromSQLDB wraps a *sql.DB instance opened with the "postgres" driver
func NewFromSQLDB(db *sql.DB) kquery.SQLAdapter {
	return kquery.SQLAdapter{DB: db}
}

// New opens a connection pool using the "postgres" driver
func New(
	ctx context.Context,
	connectionString string,
	config kquery.Config,
) (kquery.SQLAdapter, error) {
	return kquery.OpenSQLAdapter(ctx, "postgres", connectionString, config)
}
