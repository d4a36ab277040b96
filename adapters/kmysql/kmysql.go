// Package kmysql provides a kquery adapter backed by the go-sql-driver/mysql driver.
//
// Importing it registers the adapter under the name "mysql".
package kmysql

import (
	"context"
	"database/sql"

	"github.com/vingarcia/kquery"
	"github.com/vingarcia/kquery/sqldialect"

	// This is imported here so the user don't
	// have to worry about it when he uses it.
	_ "github.com/go-sql-driver/mysql"
)

// AdapterName is the name used to register this adapter
const AdapterName = "mysql"

func init() {
	kquery.RegisterAdapter(AdapterName, sqldialect.MySQL, func(ctx context.Context, connectionString string, config kquery.Config) (kquery.DBAdapter, error) {
		db, err := New(ctx, connectionString, config)
		if err != nil {
			return nil, err
		}
		return db, nil
	})
}

// NewFromSQLDB wraps a *sql.DB instance opened with the "mysql" driver
func NewFromSQLDB(db *sql.DB) kquery.SQLAdapter {
	return kquery.SQLAdapter{DB: db}
}

// New opens a connection pool using the "mysql" driver
func New(
	ctx context.Context,
	connectionString string,
	config kquery.Config,
) (kquery.SQLAdapter, error) {
	return kquery.OpenSQLAdapter(ctx, "mysql", connectionString, config)
}
