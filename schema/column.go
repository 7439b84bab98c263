// Package schema holds the column and table specifications used to define
// translatable entities, and the sync engine that keeps a main table and
// its shadow translation table structurally aligned.
package schema

import "fmt"

// A Type is a column SQL type. Together with the parameters on Column
// (size, precision, scale) it forms a fixed specification decoupled from
// any particular schema-grammar object.
type Type uint8

// Column types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeInt64
	TypeFloat64
	TypeDecimal
	TypeString
	TypeText
	TypeTime
	TypeJSON
	TypeBytes
	TypeUUID
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
	TypeDecimal: "decimal",
	TypeString:  "string",
	TypeText:    "text",
	TypeTime:    "time",
	TypeJSON:    "json",
	TypeBytes:   "bytes",
	TypeUUID:    "uuid",
}

// String returns the string representation of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return fmt.Sprintf("invalid(%d)", t)
}

// Valid reports whether t is a usable column type.
func (t Type) Valid() bool { return t > TypeInvalid && t < endTypes }

// Column describes one column of a table definition, including its
// translatability and change flags. It is immutable once the defining
// operation completes.
type Column struct {
	Name         string
	Type         Type
	Size         int // maximum length for TypeString
	Precision    int // for TypeDecimal
	Scale        int // for TypeDecimal
	Nullable     bool
	DefaultValue any // nil means no default

	// IsTranslatable moves the column to the translation table.
	IsTranslatable bool
	// IsChange distinguishes "alter existing column" from "add new
	// column". A column may be both a change and translatable.
	IsChange bool
}

// String returns a new string column with the default size of 255.
func String(name string) *Column {
	return &Column{Name: name, Type: TypeString, Size: 255}
}

// Text returns a new unbounded text column.
func Text(name string) *Column {
	return &Column{Name: name, Type: TypeText}
}

// Int returns a new integer column.
func Int(name string) *Column {
	return &Column{Name: name, Type: TypeInt}
}

// Int64 returns a new 64-bit integer column.
func Int64(name string) *Column {
	return &Column{Name: name, Type: TypeInt64}
}

// Float returns a new double-precision column.
func Float(name string) *Column {
	return &Column{Name: name, Type: TypeFloat64}
}

// Decimal returns a new fixed-precision column.
func Decimal(name string, precision, scale int) *Column {
	return &Column{Name: name, Type: TypeDecimal, Precision: precision, Scale: scale}
}

// Bool returns a new boolean column.
func Bool(name string) *Column {
	return &Column{Name: name, Type: TypeBool}
}

// Time returns a new timestamp column.
func Time(name string) *Column {
	return &Column{Name: name, Type: TypeTime}
}

// JSON returns a new JSON column.
func JSON(name string) *Column {
	return &Column{Name: name, Type: TypeJSON}
}

// Bytes returns a new binary column.
func Bytes(name string) *Column {
	return &Column{Name: name, Type: TypeBytes}
}

// UUID returns a new UUID column. It is stored natively on postgres and
// as a char(36) column elsewhere. Values from github.com/google/uuid can
// be used as defaults.
func UUID(name string) *Column {
	return &Column{Name: name, Type: TypeUUID}
}

// MaxLen sets the maximum length of a string column.
func (c *Column) MaxLen(n int) *Column {
	c.Size = n
	return c
}

// Optional makes the column nullable.
func (c *Column) Optional() *Column {
	c.Nullable = true
	return c
}

// Default sets the column default value.
func (c *Column) Default(v any) *Column {
	c.DefaultValue = v
	return c
}

// Translatable marks the column as locale-varying: it is stripped from the
// main table and materialized on the translation table instead.
func (c *Column) Translatable() *Column {
	c.IsTranslatable = true
	return c
}

// Change marks the column as an alteration of an existing column rather
// than an addition.
func (c *Column) Change() *Column {
	c.IsChange = true
	return c
}
