package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/lingua/dialect"
)

// Builder is the low-level SQL string builder. It handles dialect-aware
// identifier quoting and argument placeholders ($n for postgres, ? for the
// rest).
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
}

// NewBuilder returns a Builder for the given dialect.
func NewBuilder(dialect string) *Builder {
	return &Builder{dialect: dialect}
}

// WriteString appends the given string to the query buffer.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Quote quotes the given identifier according to the dialect.
func (b *Builder) Quote(ident string) string {
	quote := "`"
	if b.dialect == dialect.Postgres {
		quote = `"`
	}
	return quote + ident + quote
}

// Ident appends the given identifier, quoting each qualified part.
// Raw expressions (anything containing parentheses or spaces) and the
// star selector pass through unquoted.
func (b *Builder) Ident(s string) *Builder {
	switch {
	case s == "*" || strings.ContainsAny(s, "( "):
		b.sb.WriteString(s)
	case strings.Contains(s, "."):
		parts := strings.Split(s, ".")
		for i, p := range parts {
			if i > 0 {
				b.sb.WriteByte('.')
			}
			if p == "*" {
				b.sb.WriteByte('*')
			} else {
				b.sb.WriteString(b.Quote(p))
			}
		}
	default:
		b.sb.WriteString(b.Quote(s))
	}
	return b
}

// Arg appends an argument placeholder and records the value.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.sb.WriteByte('$')
		b.sb.WriteString(strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// String returns the accumulated query string.
func (b *Builder) String() string { return b.sb.String() }

// Args returns the accumulated query arguments.
func (b *Builder) Args() []any { return b.args }

// Op is the predicate operator.
type Op uint8

// Predicate operators.
const (
	OpAnd Op = iota // AND group
	OpOr            // OR group
	OpNot           // negation
	OpEQ            // =
	OpNEQ           // <>
	OpGT            // >
	OpGTE           // >=
	OpLT            // <
	OpLTE           // <=
	OpIn            // IN
	OpNotIn         // NOT IN
	OpLike          // LIKE
	OpIsNull        // IS NULL
	OpNotNull       // IS NOT NULL
	OpColEQ         // column = column
)

// Predicate is a WHERE/ON condition kept as a tree so that rewrites can
// recurse into nested groups.
type Predicate struct {
	op   Op
	col  string
	ref  string // right-hand column for OpColEQ
	args []any
	kids []*Predicate
}

// EQ returns a column = value predicate.
func EQ(col string, v any) *Predicate { return &Predicate{op: OpEQ, col: col, args: []any{v}} }

// NEQ returns a column <> value predicate.
func NEQ(col string, v any) *Predicate { return &Predicate{op: OpNEQ, col: col, args: []any{v}} }

// GT returns a column > value predicate.
func GT(col string, v any) *Predicate { return &Predicate{op: OpGT, col: col, args: []any{v}} }

// GTE returns a column >= value predicate.
func GTE(col string, v any) *Predicate { return &Predicate{op: OpGTE, col: col, args: []any{v}} }

// LT returns a column < value predicate.
func LT(col string, v any) *Predicate { return &Predicate{op: OpLT, col: col, args: []any{v}} }

// LTE returns a column <= value predicate.
func LTE(col string, v any) *Predicate { return &Predicate{op: OpLTE, col: col, args: []any{v}} }

// In returns a column IN (values...) predicate.
func In(col string, vs ...any) *Predicate { return &Predicate{op: OpIn, col: col, args: vs} }

// NotIn returns a column NOT IN (values...) predicate.
func NotIn(col string, vs ...any) *Predicate { return &Predicate{op: OpNotIn, col: col, args: vs} }

// Like returns a column LIKE value predicate.
func Like(col string, v any) *Predicate { return &Predicate{op: OpLike, col: col, args: []any{v}} }

// IsNull returns a column IS NULL predicate.
func IsNull(col string) *Predicate { return &Predicate{op: OpIsNull, col: col} }

// NotNull returns a column IS NOT NULL predicate.
func NotNull(col string) *Predicate { return &Predicate{op: OpNotNull, col: col} }

// ColumnsEQ returns a column = column predicate, used in join conditions.
func ColumnsEQ(col, ref string) *Predicate { return &Predicate{op: OpColEQ, col: col, ref: ref} }

// And groups predicates with AND.
func And(preds ...*Predicate) *Predicate { return &Predicate{op: OpAnd, kids: preds} }

// Or groups predicates with OR.
func Or(preds ...*Predicate) *Predicate { return &Predicate{op: OpOr, kids: preds} }

// Not negates a predicate.
func Not(p *Predicate) *Predicate { return &Predicate{op: OpNot, kids: []*Predicate{p}} }

// RewriteColumns applies fn to every column reference in the tree,
// including the right-hand side of column comparisons. It is how the
// locale resolver requalifies bare columns after joining.
func (p *Predicate) RewriteColumns(fn func(string) string) {
	if p == nil {
		return
	}
	if p.col != "" {
		p.col = fn(p.col)
	}
	if p.ref != "" {
		p.ref = fn(p.ref)
	}
	for _, k := range p.kids {
		k.RewriteColumns(fn)
	}
}

// Columns returns every column referenced by the tree, in render order.
func (p *Predicate) Columns() []string {
	if p == nil {
		return nil
	}
	var cols []string
	if p.col != "" {
		cols = append(cols, p.col)
	}
	if p.ref != "" {
		cols = append(cols, p.ref)
	}
	for _, k := range p.kids {
		cols = append(cols, k.Columns()...)
	}
	return cols
}

func (p *Predicate) query(b *Builder) {
	switch p.op {
	case OpAnd, OpOr:
		sep := " AND "
		if p.op == OpOr {
			sep = " OR "
		}
		for i, k := range p.kids {
			if i > 0 {
				b.WriteString(sep)
			}
			if k.op == OpAnd || k.op == OpOr {
				b.WriteString("(")
				k.query(b)
				b.WriteString(")")
			} else {
				k.query(b)
			}
		}
	case OpNot:
		b.WriteString("NOT (")
		p.kids[0].query(b)
		b.WriteString(")")
	case OpColEQ:
		b.Ident(p.col).WriteString(" = ").Ident(p.ref)
	case OpIsNull:
		b.Ident(p.col).WriteString(" IS NULL")
	case OpNotNull:
		b.Ident(p.col).WriteString(" IS NOT NULL")
	case OpIn, OpNotIn:
		b.Ident(p.col)
		if p.op == OpNotIn {
			b.WriteString(" NOT")
		}
		b.WriteString(" IN (")
		for i, v := range p.args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Arg(v)
		}
		b.WriteString(")")
	default:
		b.Ident(p.col).WriteString(" " + p.op.symbol() + " ").Arg(p.args[0])
	}
}

func (o Op) symbol() string {
	switch o {
	case OpEQ:
		return "="
	case OpNEQ:
		return "<>"
	case OpGT:
		return ">"
	case OpGTE:
		return ">="
	case OpLT:
		return "<"
	case OpLTE:
		return "<="
	case OpLike:
		return "LIKE"
	}
	return ""
}

// SelectTable is a table (optionally aliased) a Selector reads from or
// joins against.
type SelectTable struct {
	name string
	as   string
}

// Table returns a new table view with the given name.
func Table(name string) *SelectTable {
	return &SelectTable{name: name}
}

// As sets the table alias.
func (t *SelectTable) As(alias string) *SelectTable {
	t.as = alias
	return t
}

// C returns the given column qualified by the table alias (or name).
func (t *SelectTable) C(column string) string {
	if t.as != "" {
		return t.as + "." + column
	}
	return t.name + "." + column
}

func (t *SelectTable) ref(b *Builder) {
	b.Ident(t.name)
	if t.as != "" {
		b.WriteString(" AS ").Ident(t.as)
	}
}

type join struct {
	kind  string // "JOIN" or "LEFT JOIN"
	table *SelectTable
	on    *Predicate
}

// Selector builds a SELECT statement.
type Selector struct {
	dialect  string
	columns  []string
	from     *SelectTable
	joins    []join
	where    *Predicate
	orders   []string
	limit    *int
	offset   *int
	distinct bool
}

// Select returns a Selector with the given select list. An empty list
// defaults to "*".
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// Dialect sets the dialect used for quoting and placeholders.
func (s *Selector) Dialect(name string) *Selector {
	s.dialect = name
	return s
}

// From sets the table the Selector reads from.
func (s *Selector) From(t *SelectTable) *Selector {
	s.from = t
	return s
}

// TableName returns the name of the FROM table.
func (s *Selector) TableName() string {
	if s.from == nil {
		return ""
	}
	return s.from.name
}

// SetSelect replaces the select list.
func (s *Selector) SetSelect(columns ...string) *Selector {
	s.columns = columns
	return s
}

// AppendSelect appends columns (or raw expressions) to the select list.
func (s *Selector) AppendSelect(columns ...string) *Selector {
	s.columns = append(s.columns, columns...)
	return s
}

// SelectedColumns returns the current select list.
func (s *Selector) SelectedColumns() []string {
	return append([]string(nil), s.columns...)
}

// Distinct sets the DISTINCT flag.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// Join adds an inner join on the given table. The condition is attached
// with OnP.
func (s *Selector) Join(t *SelectTable) *Selector {
	s.joins = append(s.joins, join{kind: "JOIN", table: t})
	return s
}

// LeftJoin adds a left join on the given table.
func (s *Selector) LeftJoin(t *SelectTable) *Selector {
	s.joins = append(s.joins, join{kind: "LEFT JOIN", table: t})
	return s
}

// OnP attaches the condition to the most recently added join.
func (s *Selector) OnP(p *Predicate) *Selector {
	if len(s.joins) > 0 {
		s.joins[len(s.joins)-1].on = p
	}
	return s
}

// JoinCount returns the number of joins added to the Selector.
func (s *Selector) JoinCount() int { return len(s.joins) }

// Where ANDs the given predicate with any existing one.
func (s *Selector) Where(p *Predicate) *Selector {
	switch {
	case p == nil:
	case s.where == nil:
		s.where = p
	default:
		s.where = And(s.where, p)
	}
	return s
}

// P returns the root of the WHERE predicate tree, or nil.
func (s *Selector) P() *Predicate { return s.where }

// OrderBy appends ordering terms. Terms are rendered as identifiers, with
// an optional " DESC"/" ASC" suffix passed through.
func (s *Selector) OrderBy(columns ...string) *Selector {
	s.orders = append(s.orders, columns...)
	return s
}

// Limit sets the LIMIT clause.
func (s *Selector) Limit(n int) *Selector {
	s.limit = &n
	return s
}

// Offset sets the OFFSET clause.
func (s *Selector) Offset(n int) *Selector {
	s.offset = &n
	return s
}

// Query returns the SQL statement and its arguments.
func (s *Selector) Query() (string, []any) {
	b := NewBuilder(s.dialect)
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(s.columns) == 0 {
		b.WriteString("*")
	}
	for i, c := range s.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c)
	}
	b.WriteString(" FROM ")
	s.from.ref(b)
	for _, j := range s.joins {
		b.WriteString(" " + j.kind + " ")
		j.table.ref(b)
		if j.on != nil {
			b.WriteString(" ON ")
			j.on.query(b)
		}
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.query(b)
	}
	for i, o := range s.orders {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		term, dir := o, ""
		for _, suffix := range []string{" DESC", " ASC", " desc", " asc"} {
			if strings.HasSuffix(o, suffix) {
				term = strings.TrimSuffix(o, suffix)
				dir = strings.ToUpper(suffix)
				break
			}
		}
		b.Ident(term).WriteString(dir)
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*s.offset))
	}
	return b.String(), b.Args()
}

// InsertBuilder builds an INSERT statement.
type InsertBuilder struct {
	dialect string
	table   string
	columns []string
	values  []any
}

// Insert returns an InsertBuilder for the given table.
func Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// Dialect sets the dialect used for quoting and placeholders.
func (i *InsertBuilder) Dialect(name string) *InsertBuilder {
	i.dialect = name
	return i
}

// Columns sets the insert column list.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append(i.columns, columns...)
	return i
}

// Values appends the row values, positionally matching Columns.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values...)
	return i
}

// Set adds a column/value pair.
func (i *InsertBuilder) Set(column string, v any) *InsertBuilder {
	i.columns = append(i.columns, column)
	i.values = append(i.values, v)
	return i
}

// Query returns the SQL statement and its arguments.
func (i *InsertBuilder) Query() (string, []any) {
	b := NewBuilder(i.dialect)
	b.WriteString("INSERT INTO ").Ident(i.table).WriteString(" (")
	for j, c := range i.columns {
		if j > 0 {
			b.WriteString(", ")
		}
		b.Ident(c)
	}
	b.WriteString(") VALUES (")
	for j, v := range i.values {
		if j > 0 {
			b.WriteString(", ")
		}
		b.Arg(v)
	}
	b.WriteString(")")
	return b.String(), b.Args()
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder struct {
	dialect string
	table   string
	columns []string
	values  []any
	where   *Predicate
}

// Update returns an UpdateBuilder for the given table.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Dialect sets the dialect used for quoting and placeholders.
func (u *UpdateBuilder) Dialect(name string) *UpdateBuilder {
	u.dialect = name
	return u
}

// Set adds a column = value assignment.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// Where ANDs the given predicate with any existing one.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if u.where == nil {
		u.where = p
	} else if p != nil {
		u.where = And(u.where, p)
	}
	return u
}

// Empty reports whether the builder has no assignments.
func (u *UpdateBuilder) Empty() bool { return len(u.columns) == 0 }

// Query returns the SQL statement and its arguments.
func (u *UpdateBuilder) Query() (string, []any) {
	b := NewBuilder(u.dialect)
	b.WriteString("UPDATE ").Ident(u.table).WriteString(" SET ")
	for j, c := range u.columns {
		if j > 0 {
			b.WriteString(", ")
		}
		b.Ident(c).WriteString(" = ").Arg(u.values[j])
	}
	if u.where != nil {
		b.WriteString(" WHERE ")
		u.where.query(b)
	}
	return b.String(), b.Args()
}

// DeleteBuilder builds a DELETE statement.
type DeleteBuilder struct {
	dialect string
	table   string
	where   *Predicate
}

// Delete returns a DeleteBuilder for the given table.
func Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

// Dialect sets the dialect used for quoting and placeholders.
func (d *DeleteBuilder) Dialect(name string) *DeleteBuilder {
	d.dialect = name
	return d
}

// Where ANDs the given predicate with any existing one.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if d.where == nil {
		d.where = p
	} else if p != nil {
		d.where = And(d.where, p)
	}
	return d
}

// Query returns the SQL statement and its arguments.
func (d *DeleteBuilder) Query() (string, []any) {
	b := NewBuilder(d.dialect)
	b.WriteString("DELETE FROM ").Ident(d.table)
	if d.where != nil {
		b.WriteString(" WHERE ")
		d.where.query(b)
	}
	return b.String(), b.Args()
}

// Coalesce returns a COALESCE expression aliased to the given name. The
// inputs are qualified column references.
func Coalesce(as string, columns ...string) string {
	return fmt.Sprintf("COALESCE(%s) AS %s", strings.Join(columns, ", "), as)
}
