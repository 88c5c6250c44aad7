// Package data provides immutable tabular data views, their schemas, and
// loaders from delimited text files and in-memory records.
package data

import (
	"fmt"
	"strings"
)

// Kind is the semantic type of a column.
type Kind int

// Column kinds.
const (
	KindText Kind = iota + 1
	KindBool
	KindFloat
	// KindKey holds 1-based indices into Column.KeyValues; 0 means missing.
	KindKey
	// KindVector holds sparse numeric vectors.
	KindVector
	// KindFloats holds dense numeric vectors.
	KindFloats
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindFloat:
		return "float"
	case KindKey:
		return "key"
	case KindVector:
		return "vector"
	case KindFloats:
		return "floats"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column describes one column of a view.
type Column struct {
	Name string
	// KeyValues maps key k to KeyValues[k-1] for key columns.
	KeyValues []string
	Kind      Kind
	// Index is the source position in a delimited file, or -1 for
	// columns produced by a transform.
	Index int
	// Size is the vector length of vector and floats columns.
	Size int
}

// Schema is an ordered list of columns. Names are unique.
type Schema struct {
	Columns []Column
}

// NewSchema creates a schema from the given columns. A later column replaces
// an earlier one with the same name.
func NewSchema(cols ...Column) Schema {
	var s Schema
	for _, c := range cols {
		s = s.With(c)
	}
	return s
}

// Lookup returns the column with the given name.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// With returns a copy of s where col replaces the column of the same name,
// or is appended when no such column exists.
func (s Schema) With(col Column) Schema {
	cols := make([]Column, 0, len(s.Columns)+1)
	replaced := false
	for _, c := range s.Columns {
		if c.Name == col.Name {
			cols = append(cols, col)
			replaced = true
			continue
		}
		cols = append(cols, c)
	}
	if !replaced {
		cols = append(cols, col)
	}
	return Schema{Columns: cols}
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func (s Schema) String() string {
	parts := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		parts[i] = fmt.Sprintf("%s:%s", c.Name, c.Kind)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
