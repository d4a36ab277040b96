// Package kpgx5 provides a kquery adapter backed by pgx v5 connection pools.
//
// Importing it registers the adapter under the name "pgx5".
package kpgx5

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vingarcia/kquery"
	"github.com/vingarcia/kquery/sqldialect"
)

// AdapterName is the name used to register this adapter
const AdapterName = "pgx5"

func init() {
	kquery.RegisterAdapter(AdapterName, sqldialect.Postgres, func(ctx context.Context, connectionString string, config kquery.Config) (kquery.DBAdapter, error) {
		db, err := New(ctx, connectionString, config)
		if err != nil {
			return nil, err
		}
		return db, nil
	})
}

// NewFromPgxPool wraps an existing *pgxpool.Pool instance
func NewFromPgxPool(pool *pgxpool.Pool) PGXAdapter {
	return NewPGXAdapter(pool)
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

	pool, err := pgxpool.NewWithConfig(ctx, pgxConf)
	if err != nil {
		return PGXAdapter{}, err
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return PGXAdapter{}, err
	}

	return NewPGXAdapter(pool), nil
}
