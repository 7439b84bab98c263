// Package dialect provides the database abstraction the lingua engines run
// against. It defines the Driver, Tx and ExecQuerier interfaces and the
// dialect name constants for the supported backends.
//
// The interfaces deliberately mirror the shape of database/sql so that any
// *sql.DB can be adapted with the dialect/sql sub-package:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect

import "context"

// Dialect names for the supported backends.
const (
	// MySQL is the MySQL/MariaDB dialect.
	MySQL = "mysql"
	// SQLite is the SQLite dialect.
	SQLite = "sqlite"
	// Postgres is the PostgreSQL dialect.
	Postgres = "postgres"
)

// ExecQuerier wraps the two standard database operations. Both Driver and
// Tx implement it, so engine code can run inside or outside a transaction.
type ExecQuerier interface {
	// Exec executes a query that does not return rows. For example, in SQL,
	// INSERT, UPDATE or DDL. It scans the result into v when v is non-nil.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT.
	// It scans the result into v.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface the engines operate on.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(ctx context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx is a transaction-scoped ExecQuerier with commit/rollback control.
type Tx interface {
	ExecQuerier
	// Commit commits the transaction.
	Commit() error
	// Rollback discards the transaction.
	Rollback() error
}
