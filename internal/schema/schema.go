// Package schema declares the table descriptors the reconciliation
// pipeline validates against. Descriptors are immutable: they are
// defined once, before any run, and consumed read-only by the loader,
// validator and writer.
package schema

import "regexp"

// ColumnType is the declared data type for a CSV column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInteger
	TypeFloat
	TypeTimestamp
)

// String returns a human-readable name for the column type.
func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Column describes a single declared column. Names are matched
// case-insensitively against CSV headers (headers are lowercased on
// load, so Name must be lowercase).
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	Unique   bool

	// Pattern is an optional format constraint on the raw cell value.
	// Checked during bulk dataset validation only.
	Pattern *regexp.Regexp
}

// Check reports whether a non-empty raw cell value conforms to the
// column's declared type. Empty cells are nulls and are judged by the
// caller against Nullable instead.
func (c Column) Check(raw string) bool {
	switch c.Type {
	case TypeInteger:
		return toInt8(raw).Valid
	case TypeFloat:
		return toFloat8(raw).Valid
	case TypeTimestamp:
		return checkTimestamp(raw, c.Pattern)
	default:
		return true
	}
}

// Table describes one entity: its canonical table name, ordered
// columns, and the CSV file it is reconciled from.
type Table struct {
	Name    string
	Columns []Column

	// Source overrides the CSV file name for this entity.
	// Defaults to "<name>.csv" when empty.
	Source string
}

// File returns the CSV file name for the entity.
func (t Table) File() string {
	if t.Source != "" {
		return t.Source
	}
	return t.Name + ".csv"
}

// Column looks up a declared column by its lowercase name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the declared column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the column the canonical upsert conflicts on:
// the first column declared unique.
func (t Table) PrimaryKey() Column {
	for _, c := range t.Columns {
		if c.Unique {
			return c
		}
	}
	// Descriptors are declared with at least one unique column;
	// fall back to the leading column rather than panic.
	return t.Columns[0]
}
