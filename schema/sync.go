package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/syssam/lingua/dialect"
	"github.com/syssam/lingua/dialect/sql"
)

// localeSize bounds the locale column on translation tables.
const localeSize = 16

// Sync creates and alters the physical tables behind a table
// specification: the main table stripped of translatable columns, and the
// shadow translation table holding one row per (entity, locale).
//
// Sync operations are expected to run during a migration window; no
// guards exist against concurrent schema alterations.
type Sync struct {
	drv       dialect.Driver
	inspector *Inspector
	suffix    string
	afterSync []func(context.Context) error
}

// SyncOption configures a Sync.
type SyncOption func(*Sync)

// WithTableSuffix overrides the translation table suffix used when
// deriving names from a bare table name (Drop, DropIfExists).
func WithTableSuffix(suffix string) SyncOption {
	return func(s *Sync) {
		if suffix != "" {
			s.suffix = suffix
		}
	}
}

// WithAfterSync registers a hook that runs after every successful Create
// or Alter, used for example to regenerate the attribute snapshot.
func WithAfterSync(fn func(context.Context) error) SyncOption {
	return func(s *Sync) {
		s.afterSync = append(s.afterSync, fn)
	}
}

// NewSync returns a Sync engine over the given driver.
func NewSync(drv dialect.Driver, opts ...SyncOption) *Sync {
	s := &Sync{drv: drv, inspector: NewInspector(drv), suffix: DefaultSuffix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create materializes the main table from the non-translatable columns
// and, if the specification has translatable columns, the translation
// table with its cascade foreign key and (foreign key, locale) uniqueness.
//
// The main table is created first; if it fails, the translation table is
// not attempted, so no partial state is left behind.
func (s *Sync) Create(ctx context.Context, t *Table) error {
	translatable := t.AllTranslatableColumns()
	hasTranslations := t.HasTranslatableColumns()
	t.StripTranslatableColumns()
	if err := s.exec(ctx, s.createTableSQL(t.Name, withIDColumn(t.Columns), nil)); err != nil {
		return fmt.Errorf("lingua/schema: create table %q: %w", t.Name, err)
	}
	if !hasTranslations || len(translatable) == 0 {
		return s.runAfterSync(ctx)
	}
	if err := s.createTranslationTable(ctx, t, translatable); err != nil {
		return err
	}
	return s.runAfterSync(ctx)
}

// Alter applies alterations: non-translatable columns against the main
// table, translatable additions/changes/drops against the translation
// table. Translation-table changes are diffed against the live column
// list first, so re-running an alter is a no-op rather than an error.
func (s *Sync) Alter(ctx context.Context, t *Table) error {
	added := t.TranslatableColumns()
	changed := t.ChangedTranslatableColumns()
	dropped := t.DroppedTranslatable()
	hasTranslations := t.HasTranslatableColumns()
	tt := t.TranslationTable()
	t.StripTranslatableColumns()

	for _, c := range t.Columns {
		var stmt string
		if c.IsChange {
			var err error
			if stmt, err = s.modifyColumnSQL(t.Name, c); err != nil {
				return err
			}
		} else {
			stmt = s.addColumnSQL(t.Name, c)
		}
		if err := s.exec(ctx, stmt); err != nil {
			return fmt.Errorf("lingua/schema: alter table %q: %w", t.Name, err)
		}
	}
	if !hasTranslations {
		return s.runAfterSync(ctx)
	}

	exists, err := s.inspector.TableExists(ctx, tt)
	if err != nil {
		return err
	}
	if !exists {
		// Nothing to drop or change on a table that was never created;
		// new columns get a fresh translation table.
		if len(added) > 0 {
			if err := s.createTranslationTable(ctx, t, added); err != nil {
				return err
			}
		}
		return s.runAfterSync(ctx)
	}

	live, err := s.inspector.Columns(ctx, tt)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(live))
	for _, name := range live {
		present[name] = true
	}
	for _, name := range dropped {
		if !present[name] {
			continue // dropping a column that was never added is a no-op
		}
		stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", s.ident(tt), s.ident(name))
		if err := s.exec(ctx, stmt); err != nil {
			return fmt.Errorf("lingua/schema: drop column %q.%q: %w", tt, name, err)
		}
	}
	for _, c := range changed {
		if !present[c.Name] {
			continue
		}
		stmt, err := s.modifyColumnSQL(tt, c)
		if err != nil {
			return err
		}
		if err := s.exec(ctx, stmt); err != nil {
			return fmt.Errorf("lingua/schema: change column %q.%q: %w", tt, c.Name, err)
		}
	}
	for _, c := range added {
		if present[c.Name] {
			continue // already present, skipped for idempotent re-runs
		}
		if err := s.exec(ctx, s.addColumnSQL(tt, c)); err != nil {
			return fmt.Errorf("lingua/schema: add column %q.%q: %w", tt, c.Name, err)
		}
	}
	return s.runAfterSync(ctx)
}

// Drop removes the main table and its translation table. The translation
// table goes first since it holds the dependent foreign key.
func (s *Sync) Drop(ctx context.Context, mainTable string) error {
	tt := TranslationTableName(mainTable, s.suffix)
	for _, name := range []string{tt, mainTable} {
		if err := s.exec(ctx, "DROP TABLE "+s.ident(name)); err != nil {
			return fmt.Errorf("lingua/schema: drop table %q: %w", name, err)
		}
	}
	return nil
}

// DropIfExists is Drop, tolerating the absence of either table.
func (s *Sync) DropIfExists(ctx context.Context, mainTable string) error {
	tt := TranslationTableName(mainTable, s.suffix)
	for _, name := range []string{tt, mainTable} {
		if err := s.exec(ctx, "DROP TABLE IF EXISTS "+s.ident(name)); err != nil {
			return fmt.Errorf("lingua/schema: drop table %q: %w", name, err)
		}
	}
	return nil
}

func (s *Sync) createTranslationTable(ctx context.Context, t *Table, translatable []*Column) error {
	tt, fk := t.TranslationTable(), t.ForeignKey()
	cols := make([]*Column, 0, len(translatable)+3)
	cols = append(cols,
		&Column{Name: "id", Type: TypeInt64},
		&Column{Name: fk, Type: TypeInt64},
		&Column{Name: "locale", Type: TypeString, Size: localeSize},
	)
	cols = append(cols, translatable...)
	fkClause := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE CASCADE",
		s.ident(tt+"_"+fk), s.ident(fk), s.ident(t.Name), s.ident("id"))
	if err := s.exec(ctx, s.createTableSQL(tt, cols, []string{fkClause})); err != nil {
		return fmt.Errorf("lingua/schema: create table %q: %w", tt, err)
	}
	unique := fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s, %s)",
		s.ident(tt+"_"+fk+"_locale"), s.ident(tt), s.ident(fk), s.ident("locale"))
	if err := s.exec(ctx, unique); err != nil {
		return fmt.Errorf("lingua/schema: index table %q: %w", tt, err)
	}
	locale := fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		s.ident(tt+"_locale"), s.ident(tt), s.ident("locale"))
	if err := s.exec(ctx, locale); err != nil {
		return fmt.Errorf("lingua/schema: index table %q: %w", tt, err)
	}
	return nil
}

func (s *Sync) createTableSQL(name string, cols []*Column, constraints []string) string {
	var clauses []string
	for _, c := range cols {
		clauses = append(clauses, s.columnClause(c))
	}
	clauses = append(clauses, constraints...)
	return fmt.Sprintf("CREATE TABLE %s (%s)", s.ident(name), strings.Join(clauses, ", "))
}

func (s *Sync) addColumnSQL(table string, c *Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", s.ident(table), s.columnClause(c))
}

func (s *Sync) modifyColumnSQL(table string, c *Column) (string, error) {
	switch d := s.drv.Dialect(); d {
	case dialect.MySQL:
		return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", s.ident(table), s.columnClause(c)), nil
	case dialect.Postgres:
		null := "SET NOT NULL"
		if c.Nullable {
			null = "DROP NOT NULL"
		}
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s, ALTER COLUMN %s %s",
			s.ident(table), s.ident(c.Name), s.columnType(c), s.ident(c.Name), null), nil
	case dialect.SQLite:
		return "", fmt.Errorf("lingua/schema: sqlite does not support modifying column %q", c.Name)
	default:
		return "", fmt.Errorf("lingua/schema: unsupported dialect %q", d)
	}
}

// columnClause renders "name type [NOT NULL] [DEFAULT v]" or the primary
// key clause for the id column.
func (s *Sync) columnClause(c *Column) string {
	if c.Name == "id" {
		return s.ident("id") + " " + s.pkType()
	}
	var b strings.Builder
	b.WriteString(s.ident(c.Name))
	b.WriteByte(' ')
	b.WriteString(s.columnType(c))
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	} else {
		b.WriteString(" NULL")
	}
	if c.DefaultValue != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(defaultLiteral(c.DefaultValue))
	}
	return b.String()
}

func (s *Sync) pkType() string {
	switch s.drv.Dialect() {
	case dialect.MySQL:
		return "bigint NOT NULL AUTO_INCREMENT PRIMARY KEY"
	case dialect.Postgres:
		return "bigint GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
	default:
		return "integer NOT NULL PRIMARY KEY AUTOINCREMENT"
	}
}

func (s *Sync) columnType(c *Column) string {
	d := s.drv.Dialect()
	switch c.Type {
	case TypeBool:
		return "boolean"
	case TypeInt:
		return "integer"
	case TypeInt64:
		if d == dialect.SQLite {
			return "integer"
		}
		return "bigint"
	case TypeFloat64:
		switch d {
		case dialect.MySQL:
			return "double"
		case dialect.Postgres:
			return "double precision"
		default:
			return "real"
		}
	case TypeDecimal:
		return fmt.Sprintf("decimal(%d, %d)", c.Precision, c.Scale)
	case TypeString:
		size := c.Size
		if size == 0 {
			size = 255
		}
		return fmt.Sprintf("varchar(%d)", size)
	case TypeText:
		if d == dialect.MySQL {
			return "longtext"
		}
		return "text"
	case TypeTime:
		switch d {
		case dialect.MySQL:
			return "timestamp"
		case dialect.Postgres:
			return "timestamp with time zone"
		default:
			return "datetime"
		}
	case TypeJSON:
		if d == dialect.Postgres {
			return "jsonb"
		}
		return "json"
	case TypeBytes:
		switch d {
		case dialect.MySQL:
			return "blob"
		case dialect.Postgres:
			return "bytea"
		default:
			return "blob"
		}
	case TypeUUID:
		if d == dialect.Postgres {
			return "uuid"
		}
		return "char(36)"
	}
	return "text"
}

func (s *Sync) ident(name string) string {
	return sql.NewBuilder(s.drv.Dialect()).Ident(name).String()
}

func (s *Sync) exec(ctx context.Context, query string) error {
	return s.drv.Exec(ctx, query, []any{}, nil)
}

func (s *Sync) runAfterSync(ctx context.Context) error {
	for _, fn := range s.afterSync {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func defaultLiteral(v any) string {
	switch v := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case uuid.UUID:
		return "'" + v.String() + "'"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(v)
	}
}

// withIDColumn prepends an auto-increment primary key when the definition
// does not declare one.
func withIDColumn(cols []*Column) []*Column {
	for _, c := range cols {
		if c.Name == "id" {
			return cols
		}
	}
	return append([]*Column{{Name: "id", Type: TypeInt64}}, cols...)
}
