// Package testdb starts disposable database containers for the adapter tests.
package testdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	// Used to check when the containers are ready:
	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Container describes a running database container
type Container struct {
	URL string

	pool     *dockertest.Pool
	resource *dockertest.Resource
}

// Close removes the container
func (c Container) Close() error {
	return c.pool.Purge(c.resource)
}

// StartPostgres starts a postgres container and waits until it accepts connections.
//
// It returns an error when docker is not reachable so
// the caller can decide to skip the tests.
func StartPostgres(dbName string) (Container, error) {
	return start(
		&dockertest.RunOptions{
			Repository: "postgres",
			Tag:        "14.0",
			Env: []string{
				"POSTGRES_PASSWORD=postgres",
				"POSTGRES_USER=postgres",
				"POSTGRES_DB=" + dbName,
				"listen_addresses = '*'",
			},
		},
		"5432/tcp",
		"postgres",
		func(hostAndPort string) string {
			return fmt.Sprintf("postgres://postgres:postgres@%s/%s?sslmode=disable", hostAndPort, dbName)
		},
	)
}

// StartMySQL starts a mariadb container and waits until it accepts connections
func StartMySQL(dbName string) (Container, error) {
	return start(
		&dockertest.RunOptions{
			Repository: "mariadb",
			Tag:        "10.8",
			Env: []string{
				"MARIADB_ROOT_PASSWORD=mysql",
				"MARIADB_DATABASE=" + dbName,
			},
		},
		"3306/tcp",
		"mysql",
		func(hostAndPort string) string {
			return fmt.Sprintf("root:mysql@(%s)/%s?timeout=30s", hostAndPort, dbName)
		},
	)
}

// StartSQLServer starts a sqlserver container and waits until it accepts
// connections, the tests run on the master database.
func StartSQLServer() (Container, error) {
	return start(
		&dockertest.RunOptions{
			Repository: "mcr.microsoft.com/mssql/server",
			Tag:        "2017-latest",
			Env: []string{
				"SA_PASSWORD=Sqls3rv3r",
				"ACCEPT_EULA=Y",
			},
		},
		"1433/tcp",
		"sqlserver",
		func(hostAndPort string) string {
			return fmt.Sprintf("sqlserver://sa:Sqls3rv3r@%s?database=master", hostAndPort)
		},
	)
}

func start(
	opts *dockertest.RunOptions,
	port string,
	driverName string,
	buildURL func(hostAndPort string) string,
) (Container, error) {
	startTime := time.Now()

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	pool, err := dockertest.NewPool("")
	if err != nil {
		return Container{}, fmt.Errorf("could not connect to docker: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return Container{}, fmt.Errorf("could not connect to docker: %w", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return Container{}, fmt.Errorf("could not start resource: %w", err)
	}

	databaseURL := buildURL(resource.GetHostPort(port))

	_ = resource.Expire(120) // Tell docker to hard kill the container in 120 seconds

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		db, err := sql.Open(driverName, databaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		return db.Ping()
	})
	if err != nil {
		_ = pool.Purge(resource)
		return Container{}, fmt.Errorf("could not connect to %s after %v: %w", opts.Repository, time.Since(startTime), err)
	}

	return Container{
		URL:      databaseURL,
		pool:     pool,
		resource: resource,
	}, nil
}
