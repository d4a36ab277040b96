package kquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/vingarcia/kquery/sqldialect"
)

// ErrNoTxSupport is returned by Client.Transaction when the write
// adapter is not able to start transactions.
var ErrNoTxSupport = errors.New("kquery: can't start transaction: the DBAdapter doesn't implement the TxBeginner interface")

// QueryClient describes the connection the query builders run against.
//
// The builders never own a QueryClient, they only read from it.
type QueryClient interface {
	// WriteClient returns the handle used for mutating statements.
	WriteClient() DBAdapter

	// ReadClient returns the handle used for read only statements,
	// which might be a read replica.
	ReadClient() DBAdapter

	Dialect() sqldialect.Provider

	// Profiler returns nil when profiling is disabled.
	Profiler() Profiler

	ConnectionName() string
	IsTransaction() bool
}

var _ QueryClient = &Client{}

// Client is the default QueryClient implementation, it binds
// one write handle and optionally several read replicas
// to a single named connection.
//
// A Client is safe for concurrent use, the query builders it
// creates are not.
type Client struct {
	name     string
	dialect  sqldialect.Provider
	write    DBAdapter
	reads    []DBAdapter
	profiler Profiler
	inTx     bool

	nextRead *atomic.Uint64
}

// ClientOption configures optional attributes of a Client
type ClientOption func(c *Client)

// WithReadReplicas sets the handles used by ReadClient()
// in a round-robin fashion.
func WithReadReplicas(replicas ...DBAdapter) ClientOption {
	return func(c *Client) {
		c.reads = append(c.reads, replicas...)
	}
}

// WithProfiler enables profiling of every query executed through the client
func WithProfiler(profiler Profiler) ClientOption {
	return func(c *Client) {
		c.profiler = profiler
	}
}

// NewClient instantiates a new Client for the connection named `name`
func NewClient(
	name string,
	dialect sqldialect.Provider,
	write DBAdapter,
	opts ...ClientOption,
) *Client {
	c := &Client{
		name:     name,
		dialect:  dialect,
		write:    write,
		nextRead: &atomic.Uint64{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WriteClient implements the QueryClient interface
func (c *Client) WriteClient() DBAdapter {
	return c.write
}

// ReadClient implements the QueryClient interface
//
// Inside transactions and when no replicas are configured
// it returns the write handle.
func (c *Client) ReadClient() DBAdapter {
	if c.inTx || len(c.reads) == 0 {
		return c.write
	}

	idx := (c.nextRead.Add(1) - 1) % uint64(len(c.reads))
	return c.reads[idx]
}

// Dialect implements the QueryClient interface
func (c *Client) Dialect() sqldialect.Provider {
	return c.dialect
}

// Profiler implements the QueryClient interface
func (c *Client) Profiler() Profiler {
	return c.profiler
}

// ConnectionName implements the QueryClient interface
func (c *Client) ConnectionName() string {
	return c.name
}

// IsTransaction implements the QueryClient interface
func (c *Client) IsTransaction() bool {
	return c.inTx
}

// InsertQuery returns a new insert query builder bound to this client
func (c *Client) InsertQuery() *InsertQueryBuilder {
	return NewInsertQuery(c)
}

// Table is a shortcut for c.InsertQuery().Table(table)
func (c *Client) Table(table string) *InsertQueryBuilder {
	return NewInsertQuery(c).Table(table)
}

// RawQuery returns a new raw query builder bound to this client
func (c *Client) RawQuery(query string, bindings ...interface{}) *RawQueryBuilder {
	return NewRawQuery(c, query, bindings...)
}

// Transaction encapsulates several queries into a single transaction.
// All these queries should be made inside the input callback `fn`
// and they should use the input *Client.
//
// If the callback returns any errors the transaction will be rolled back,
// otherwise the transaction will be committed.
//
// If it happens that a second transaction is started inside a transaction
// callback the same transaction will be reused with no errors.
func (c *Client) Transaction(ctx context.Context, fn func(*Client) error) error {
	if c.inTx {
		return fn(c)
	}

	txBeginner, ok := c.write.(TxBeginner)
	if !ok {
		return ErrNoTxSupport
	}

	tx, err := txBeginner.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("kquery: error starting transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil {
				r = fmt.Errorf(
					"kquery: unable to rollback after panic with value: %v, rollback error: %w",
					r, rollbackErr,
				)
			}
			panic(r)
		}
	}()

	txClient := &Client{
		name:     c.name,
		dialect:  c.dialect,
		write:    tx,
		profiler: c.profiler,
		inTx:     true,
		nextRead: &atomic.Uint64{},
	}

	err = fn(txClient)
	if err != nil {
		rollbackErr := tx.Rollback(ctx)
		if rollbackErr != nil {
			err = fmt.Errorf(
				"kquery: unable to rollback after error: %s, rollback error: %w",
				err, rollbackErr,
			)
		}
		return err
	}

	return tx.Commit(ctx)
}

// Close implements the io.Closer interface, it closes the write
// handle and every read replica that implements io.Closer.
func (c *Client) Close() error {
	if c.inTx {
		return nil
	}

	var errs []error
	for _, db := range append([]DBAdapter{c.write}, c.reads...) {
		closer, ok := db.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
