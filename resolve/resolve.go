// Package resolve rewrites entity queries so that translated attribute
// values for a requested locale appear as regular columns of the result
// set. Callers keep writing queries against the logical entity; the
// resolver injects the translation table joins, the select list and the
// column requalification the chosen strategy requires.
package resolve

import (
	"context"
	"strings"

	"github.com/syssam/lingua"
	"github.com/syssam/lingua/cache"
	"github.com/syssam/lingua/dialect/sql"
	"github.com/syssam/lingua/entity"
	"github.com/syssam/lingua/schema"
)

// Aliases under which the translation table is joined. Predicates and
// select lists produced by the resolver reference these.
const (
	CurrentAlias  = "t"
	FallbackAlias = "t_fallback"
)

// Query carries everything one rewrite needs. Zero translatable columns
// makes the rewrite a no-op.
type Query struct {
	// Strategy selects how rows missing a translation are handled.
	Strategy lingua.Strategy
	// Locale is the requested locale.
	Locale string
	// FallbackLocale is consulted only by the fallback strategy.
	FallbackLocale string
	// Columns is the translatable column set of the entity.
	Columns []string
	// MainTable is the main table name. When empty, the Selector's FROM
	// table is used.
	MainTable string
	// TranslationTable is the translation table name.
	TranslationTable string
	// ForeignKey is the translation table column referencing the main row.
	ForeignKey string
}

// FromEntity assembles a Query from an entity's storage contract and the
// runtime configuration.
func FromEntity(e entity.Translatable, cfg lingua.Config, locale string) Query {
	return Query{
		Strategy:         cfg.Strategy,
		Locale:           locale,
		FallbackLocale:   cfg.FallbackLocale,
		Columns:          e.TranslatableAttributes(),
		TranslationTable: e.TranslationTable(),
		ForeignKey:       e.TranslationForeignKey(),
	}
}

// FromCache assembles a Query for a main table, deriving the translation
// table layout by convention and reading the column set from the cache.
func FromCache(ctx context.Context, a *cache.Attributes, mainTable string, cfg lingua.Config, locale string) (Query, error) {
	tt := schema.TranslationTableName(mainTable, cfg.TableSuffix)
	cols, err := a.Get(ctx, tt)
	if err != nil {
		return Query{}, err
	}
	return Query{
		Strategy:         cfg.Strategy,
		Locale:           locale,
		FallbackLocale:   cfg.FallbackLocale,
		Columns:          cols,
		MainTable:        mainTable,
		TranslationTable: tt,
		ForeignKey:       schema.ForeignKeyName(mainTable),
	}, nil
}

// Apply rewrites the Selector in place according to the Query and returns
// it. The rewrite joins the translation table, replaces the select list
// with the main table's columns plus the translated ones, and requalifies
// bare column references in the WHERE tree: "id" binds to the main table
// and translatable columns bind to the joined translation rows. Already
// qualified references and ordering terms are left untouched.
func Apply(s *sql.Selector, q Query) *sql.Selector {
	if len(q.Columns) == 0 {
		return s
	}
	main := q.MainTable
	if main == "" {
		main = s.TableName()
	}
	strategy := q.Strategy
	// Requesting the fallback locale itself leaves nothing to fall back
	// to, so a single nullable-style join suffices.
	if strategy == lingua.Fallback && q.Locale == q.FallbackLocale {
		strategy = lingua.Nullable
	}
	switch strategy {
	case lingua.Strict:
		s.Join(sql.Table(q.TranslationTable).As(CurrentAlias)).
			OnP(joinOn(main, q.ForeignKey, CurrentAlias, q.Locale))
		s.SetSelect(selectList(main, CurrentAlias, q.Columns)...)
	case lingua.Fallback:
		s.LeftJoin(sql.Table(q.TranslationTable).As(CurrentAlias)).
			OnP(joinOn(main, q.ForeignKey, CurrentAlias, q.Locale))
		s.LeftJoin(sql.Table(q.TranslationTable).As(FallbackAlias)).
			OnP(joinOn(main, q.ForeignKey, FallbackAlias, q.FallbackLocale))
		cols := make([]string, 0, len(q.Columns)+1)
		cols = append(cols, main+".*")
		for _, c := range q.Columns {
			cols = append(cols, sql.Coalesce(c, CurrentAlias+"."+c, FallbackAlias+"."+c))
		}
		s.SetSelect(cols...)
	default: // nullable
		s.LeftJoin(sql.Table(q.TranslationTable).As(CurrentAlias)).
			OnP(joinOn(main, q.ForeignKey, CurrentAlias, q.Locale))
		s.SetSelect(selectList(main, CurrentAlias, q.Columns)...)
	}
	requalify(s, main, q.Columns)
	return s
}

// joinOn builds the translation join condition: the foreign key match
// ANDed with the locale filter, locale carried as a bound argument.
func joinOn(main, fk, alias, locale string) *sql.Predicate {
	return sql.And(
		sql.ColumnsEQ(main+".id", alias+"."+fk),
		sql.EQ(alias+".locale", locale),
	)
}

func selectList(main, alias string, columns []string) []string {
	cols := make([]string, 0, len(columns)+1)
	cols = append(cols, main+".*")
	for _, c := range columns {
		cols = append(cols, alias+"."+c)
	}
	return cols
}

func requalify(s *sql.Selector, main string, columns []string) {
	translatable := make(map[string]bool, len(columns))
	for _, c := range columns {
		translatable[c] = true
	}
	s.P().RewriteColumns(func(col string) string {
		if strings.Contains(col, ".") {
			return col
		}
		if col == "id" {
			return main + ".id"
		}
		if translatable[col] {
			return CurrentAlias + "." + col
		}
		return col
	})
}
