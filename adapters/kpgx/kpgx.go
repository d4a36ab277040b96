// Package kpgx provides a kquery adapter backed by pgx v4 connection pools.
//
// Importing it registers the adapter under the name "pgx":
//
//	import _ "github.com/vingarcia/kquery/adapters/kpgx"
package kpgx

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/vingarcia/kquery"
	"github.com/vingarcia/kquery/sqldialect"
)

// AdapterName is the name used to register this adapter
const AdapterName = "pgx"

func init() {
	kquery.RegisterAdapter(AdapterName, sqldialect.Postgres, func(ctx context.Context, connectionString string, config kquery.Config) (kquery.DBAdapter, error) {
		db, err := New(ctx, connectionString, config)
		if err != nil {
			return nil, err
		}
		return db, nil
	})
}

// New instantiates a new pgx connection pool and wraps it in a PGXAdapter
func New(
	ctx context.Context,
	connectionString string,
	config kquery.Config,
) (PGXAdapter, error) {
	config.SetDefaultValues()

	pgxConf, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return PGXAdapter{}, err
	}

	pgxConf.MaxConns = int32(config.MaxOpenConns)
	if config.TLSConfig != nil {
		pgxConf.ConnConfig.TLSConfig = config.TLSConfig
	}

	pool, err := pgxpool.ConnectConfig(ctx, pgxConf)
	if err != nil {
		return PGXAdapter{}, err
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return PGXAdapter{}, err
	}

	return NewPGXAdapter(pool), nil
}
