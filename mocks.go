package kquery

import (
	"context"
	"fmt"
)

var _ DBAdapter = MockDBAdapter{}
var _ TxBeginner = MockDBAdapter{}

// MockDBAdapter implements the DBAdapter and TxBeginner interfaces
// in order to allow users to test code that executes query builders
// without a database.
//
// To mock a particular method, e.g. ExecContext, you just need to overwrite
// the corresponding function attribute whose name is ExecContextFn().
//
// For capturing input values use a closure as in the example:
//
//	var capturedQuery string
//	db := kquery.MockDBAdapter{
//		ExecContextFn: func(ctx context.Context, query string, args ...interface{}) (kquery.Result, error) {
//			capturedQuery = query
//			return kquery.MockResult{}, nil
//		},
//	}
type MockDBAdapter struct {
	ExecContextFn  func(ctx context.Context, query string, args ...interface{}) (Result, error)
	QueryContextFn func(ctx context.Context, query string, args ...interface{}) (Rows, error)
	BeginTxFn      func(ctx context.Context) (Tx, error)
}

// ExecContext mocks the behavior of the DBAdapter interface
func (m MockDBAdapter) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if m.ExecContextFn == nil {
		panic(fmt.Errorf("MockDBAdapter.ExecContext(ctx, %q, %v) called but the MockDBAdapter.ExecContextFn() is not set", query, args))
	}
	return m.ExecContextFn(ctx, query, args...)
}

// QueryContext mocks the behavior of the DBAdapter interface
func (m MockDBAdapter) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	if m.QueryContextFn == nil {
		panic(fmt.Errorf("MockDBAdapter.QueryContext(ctx, %q, %v) called but the MockDBAdapter.QueryContextFn() is not set", query, args))
	}
	return m.QueryContextFn(ctx, query, args...)
}

// BeginTx mocks the behavior of the TxBeginner interface
func (m MockDBAdapter) BeginTx(ctx context.Context) (Tx, error) {
	if m.BeginTxFn == nil {
		panic(fmt.Errorf("MockDBAdapter.BeginTx(ctx) called but the MockDBAdapter.BeginTxFn() is not set"))
	}
	return m.BeginTxFn(ctx)
}

var _ Tx = MockTx{}

// MockTx mocks the Tx interface
type MockTx struct {
	DBAdapter
	RollbackFn func(ctx context.Context) error
	CommitFn   func(ctx context.Context) error
}

// Rollback mocks the behavior of the Tx interface
func (m MockTx) Rollback(ctx context.Context) error {
	if m.RollbackFn == nil {
		return nil
	}
	return m.RollbackFn(ctx)
}

// Commit mocks the behavior of the Tx interface
func (m MockTx) Commit(ctx context.Context) error {
	if m.CommitFn == nil {
		return nil
	}
	return m.CommitFn(ctx)
}

var _ Rows = &MockRows{}

// MockRows mocks the Rows interface, if ColumnsFn, NextFn and ScanFn
// are not set it will iterate over the Records attribute instead.
type MockRows struct {
	Records []map[string]interface{}
	Cols    []string

	ScanFn    func(...interface{}) error
	CloseFn   func() error
	NextFn    func() bool
	ErrFn     func() error
	ColumnsFn func() ([]string, error)

	current int
}

// Scan mocks the behavior of the Rows interface
func (m *MockRows) Scan(values ...interface{}) error {
	if m.ScanFn != nil {
		return m.ScanFn(values...)
	}

	record := m.Records[m.current-1]
	for i, name := range m.Cols {
		ptr, ok := values[i].(*interface{})
		if !ok {
			return fmt.Errorf("MockRows.Scan: expected *interface{} but got %T", values[i])
		}
		*ptr = record[name]
	}
	return nil
}

// Close mocks the behavior of the Rows interface
func (m *MockRows) Close() error {
	if m.CloseFn == nil {
		return nil
	}
	return m.CloseFn()
}

// Next mocks the behavior of the Rows interface
func (m *MockRows) Next() bool {
	if m.NextFn != nil {
		return m.NextFn()
	}

	if m.current >= len(m.Records) {
		return false
	}
	m.current++
	return true
}

// Err mocks the behavior of the Rows interface
func (m *MockRows) Err() error {
	if m.ErrFn == nil {
		return nil
	}
	return m.ErrFn()
}

// Columns mocks the behavior of the Rows interface
func (m *MockRows) Columns() ([]string, error) {
	if m.ColumnsFn != nil {
		return m.ColumnsFn()
	}
	return m.Cols, nil
}

var _ Result = MockResult{}

// MockResult mocks the Result interface
type MockResult struct {
	LastInsertIdFn func() (int64, error)
	RowsAffectedFn func() (int64, error)
}

// LastInsertId mocks the behavior of the Result interface
func (m MockResult) LastInsertId() (int64, error) {
	if m.LastInsertIdFn != nil {
		return m.LastInsertIdFn()
	}
	return 0, nil
}

// RowsAffected mocks the behavior of the Result interface
func (m MockResult) RowsAffected() (int64, error) {
	if m.RowsAffectedFn != nil {
		return m.RowsAffectedFn()
	}
	return 0, nil
}
