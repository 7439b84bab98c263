package schema

import (
	"context"
	"fmt"

	"github.com/syssam/lingua/dialect"
	"github.com/syssam/lingua/dialect/sql"
)

// Inspector reads the live schema: table existence, column lists and the
// set of translation tables. Missing tables yield empty results rather
// than errors, so that callers degrade to no-ops.
type Inspector struct {
	drv dialect.Driver
}

// NewInspector returns an Inspector over the given driver.
func NewInspector(drv dialect.Driver) *Inspector {
	return &Inspector{drv: drv}
}

// TableExists reports whether the given table exists.
func (i *Inspector) TableExists(ctx context.Context, name string) (bool, error) {
	var (
		query string
		args  []any
	)
	switch d := i.drv.Dialect(); d {
	case dialect.SQLite:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
		args = []any{name}
	case dialect.MySQL:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = (SELECT DATABASE()) AND table_name = ?"
		args = []any{name}
	case dialect.Postgres:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name = $1"
		args = []any{name}
	default:
		return false, fmt.Errorf("lingua/schema: unsupported dialect %q", d)
	}
	rows := &sql.Rows{}
	if err := i.drv.Query(ctx, query, args, rows); err != nil {
		return false, err
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, err
		}
	}
	return n > 0, rows.Err()
}

// Columns returns the column names of the given table in definition
// order. A missing table yields an empty list.
func (i *Inspector) Columns(ctx context.Context, table string) ([]string, error) {
	var (
		query string
		args  []any
	)
	switch d := i.drv.Dialect(); d {
	case dialect.SQLite:
		query = "SELECT name FROM pragma_table_info(?) ORDER BY cid"
		args = []any{table}
	case dialect.MySQL:
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = (SELECT DATABASE()) AND table_name = ? ORDER BY ordinal_position"
		args = []any{table}
	case dialect.Postgres:
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = CURRENT_SCHEMA() AND table_name = $1 ORDER BY ordinal_position"
		args = []any{table}
	default:
		return nil, fmt.Errorf("lingua/schema: unsupported dialect %q", d)
	}
	return i.queryNames(ctx, query, args)
}

// Tables returns the names of all tables ending in the given suffix.
func (i *Inspector) Tables(ctx context.Context, suffix string) ([]string, error) {
	var (
		query string
		args  = []any{"%" + suffix}
	)
	switch d := i.drv.Dialect(); d {
	case dialect.SQLite:
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ? ORDER BY name"
	case dialect.MySQL:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = (SELECT DATABASE()) AND table_name LIKE ? ORDER BY table_name"
	case dialect.Postgres:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name LIKE $1 ORDER BY table_name"
	default:
		return nil, fmt.Errorf("lingua/schema: unsupported dialect %q", d)
	}
	return i.queryNames(ctx, query, args)
}

func (i *Inspector) queryNames(ctx context.Context, query string, args []any) ([]string, error) {
	rows := &sql.Rows{}
	if err := i.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
