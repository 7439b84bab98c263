package schema

import (
	"github.com/go-openapi/inflect"
)

// DefaultSuffix is appended to the singularized main table name to derive
// the translation table name.
const DefaultSuffix = "_translations"

// Table accumulates column specifications for one table-definition
// operation. It is built incrementally during a schema-definition call,
// consumed once by the sync engine and then discarded.
type Table struct {
	// Name is the main table name.
	Name string
	// Columns is the ordered column list. A name appears at most once
	// among non-dropped columns.
	Columns []*Column

	dropped []string // translatable columns requested for removal
	suffix  string
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithSuffix overrides the translation table suffix.
func WithSuffix(suffix string) TableOption {
	return func(t *Table) {
		if suffix != "" {
			t.suffix = suffix
		}
	}
}

// NewTable returns a new table specification for the given main table.
func NewTable(name string, opts ...TableOption) *Table {
	t := &Table{Name: name, suffix: DefaultSuffix}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddColumn appends a column to the table. A column with the same name
// replaces the previous one, keeping its position.
func (t *Table) AddColumn(c *Column) *Table {
	for i, cur := range t.Columns {
		if cur.Name == c.Name {
			t.Columns[i] = c
			return t
		}
	}
	t.Columns = append(t.Columns, c)
	return t
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// HasColumn reports whether a column with the given name was added.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// MarkTranslatable flags an already-added column as translatable.
// Unknown names are ignored.
func (t *Table) MarkTranslatable(name string) *Table {
	if c, ok := t.Column(name); ok {
		c.IsTranslatable = true
	}
	return t
}

// DropTranslatable requests removal of translatable columns from the
// translation table. Dropping a column that was never added is a no-op at
// sync time, not an error.
func (t *Table) DropTranslatable(names ...string) *Table {
	t.dropped = append(t.dropped, names...)
	return t
}

// DroppedTranslatable returns the columns requested for removal.
func (t *Table) DroppedTranslatable() []string {
	return append([]string(nil), t.dropped...)
}

// TranslatableColumns returns the new (non-change) translatable columns.
func (t *Table) TranslatableColumns() []*Column {
	var cols []*Column
	for _, c := range t.Columns {
		if c.IsTranslatable && !c.IsChange {
			cols = append(cols, c)
		}
	}
	return cols
}

// ChangedTranslatableColumns returns the columns marked both translatable
// and change.
func (t *Table) ChangedTranslatableColumns() []*Column {
	var cols []*Column
	for _, c := range t.Columns {
		if c.IsTranslatable && c.IsChange {
			cols = append(cols, c)
		}
	}
	return cols
}

// AllTranslatableColumns returns the union of new and changed translatable
// columns.
func (t *Table) AllTranslatableColumns() []*Column {
	var cols []*Column
	for _, c := range t.Columns {
		if c.IsTranslatable {
			cols = append(cols, c)
		}
	}
	return cols
}

// HasTranslatableColumns reports whether the definition touches the
// translation table at all, through added, changed or dropped columns.
func (t *Table) HasTranslatableColumns() bool {
	return len(t.AllTranslatableColumns()) > 0 || len(t.dropped) > 0
}

// StripTranslatableColumns removes all non-dropped translatable columns
// from the main-table column list, leaving only the locale-invariant ones.
// It is idempotent and is called exactly once before the main table is
// materialized.
func (t *Table) StripTranslatableColumns() *Table {
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if !c.IsTranslatable {
			kept = append(kept, c)
		}
	}
	t.Columns = kept
	return t
}

// TranslationTable returns the derived translation table name. The
// derivation singularizes the main table name and appends the suffix;
// irregular plurals are a known limitation of the rule, compensated only
// by overriding the suffix.
func (t *Table) TranslationTable() string {
	return TranslationTableName(t.Name, t.suffix)
}

// ForeignKey returns the derived foreign key column name referencing the
// main table.
func (t *Table) ForeignKey() string {
	return ForeignKeyName(t.Name)
}

// Suffix returns the translation table suffix in effect.
func (t *Table) Suffix() string { return t.suffix }

// TranslationTableName derives the translation table name for a main
// table: singularize(main) + suffix.
func TranslationTableName(mainTable, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return inflect.Singularize(mainTable) + suffix
}

// ForeignKeyName derives the foreign key column referencing the main
// table: singularize(main) + "_id".
func ForeignKeyName(mainTable string) string {
	return inflect.Singularize(mainTable) + "_id"
}
