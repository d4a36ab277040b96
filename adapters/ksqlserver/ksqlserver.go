// Package ksqlserver provides a kquery adapter backed by the go-mssqldb driver.
//
// Importing it registers the adapter under the name "sqlserver".
package ksqlserver

import (
	"context"
	"database/sql"

	"github.com/vingarcia/kquery"
	"github.com/vingarcia/kquery/sqldialect"

	// This is imported here so the user don't
	// have to worry about it when he uses it.
	_ "github.com/denisenkom/go-mssqldb"
)

// AdapterName is the name used to register this adapter
const AdapterName = "sqlserver"

func init() {
	kquery.RegisterAdapter(AdapterName, sqldialect.SQLServer, func(ctx context.Context, connectionString string, config kquery.Config) (kquery.DBAdapter, error) {
		db, err := New(ctx, connectionString, config)
		if err != nil {
			return nil, err
		}
		return db, nil
	})
}

// NewFromSQLDB wraps a *sql.DB instance opened with the "sqlserver" driver
func NewFromSQLDB(db *sql.DB) kquery.SQLAdapter {
	return kquery.SQLAdapter{DB: db}
}

// New opens a connection pool using the "sqlserver" driver
func New(
	ctx context.Context,
	connectionString string,
	config kquery.Config,
) (kquery.SQLAdapter, error) {
	return kquery.OpenSQLAdapter(ctx, "sqlserver", connectionString, config)
}
