package data

import (
	"fmt"

	"github.com/Veraticus/textclass/internal/common"
)

// columnData holds the values of one column. Exactly one slice is set,
// matching the column kind.
type columnData struct {
	texts   []string
	bools   []bool
	floats  []float64
	keys    []uint32
	vectors []Vector
	dense   [][]float64
}

// View is an immutable column-oriented table. Adding a column returns a new
// View that shares the storage of the existing columns, so slices returned
// by the accessors must not be modified.
type View struct {
	cols   map[string]columnData
	schema Schema
	rows   int
}

// NewView returns an empty view with the given number of rows.
func NewView(rows int) *View {
	return &View{
		cols: make(map[string]columnData),
		rows: rows,
	}
}

// Rows returns the number of rows.
func (v *View) Rows() int {
	return v.rows
}

// Schema returns the view's schema.
func (v *View) Schema() Schema {
	return v.schema
}

// With returns a new view with col added, or replaced when a column of the
// same name exists. values must be a slice matching col.Kind:
// []string, []bool, []float64, []uint32, []Vector or [][]float64.
func (v *View) With(col Column, values any) (*View, error) {
	var (
		d columnData
		n int
	)
	switch vals := values.(type) {
	case []string:
		d.texts, n = vals, len(vals)
		if err := expectKind(col, KindText); err != nil {
			return nil, err
		}
	case []bool:
		d.bools, n = vals, len(vals)
		if err := expectKind(col, KindBool); err != nil {
			return nil, err
		}
	case []float64:
		d.floats, n = vals, len(vals)
		if err := expectKind(col, KindFloat); err != nil {
			return nil, err
		}
	case []uint32:
		d.keys, n = vals, len(vals)
		if err := expectKind(col, KindKey); err != nil {
			return nil, err
		}
	case []Vector:
		d.vectors, n = vals, len(vals)
		if err := expectKind(col, KindVector); err != nil {
			return nil, err
		}
	case [][]float64:
		d.dense, n = vals, len(vals)
		if err := expectKind(col, KindFloats); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported values %T for column %q", common.ErrSchemaMismatch, values, col.Name)
	}

	if n != v.rows {
		return nil, fmt.Errorf("%w: column %q has %d values, view has %d rows",
			common.ErrSchemaMismatch, col.Name, n, v.rows)
	}

	cols := make(map[string]columnData, len(v.cols)+1)
	for name, c := range v.cols {
		cols[name] = c
	}
	cols[col.Name] = d

	return &View{
		cols:   cols,
		schema: v.schema.With(col),
		rows:   v.rows,
	}, nil
}

func expectKind(col Column, kind Kind) error {
	if col.Kind != kind {
		return fmt.Errorf("%w: column %q declared as %s but given %s values",
			common.ErrSchemaMismatch, col.Name, col.Kind, kind)
	}
	return nil
}

func (v *View) column(name string, kind Kind) (columnData, error) {
	col, ok := v.schema.Lookup(name)
	if !ok {
		return columnData{}, fmt.Errorf("%w: column %q not found in %s", common.ErrSchemaMismatch, name, v.schema)
	}
	if col.Kind != kind {
		return columnData{}, fmt.Errorf("%w: column %q is %s, expected %s", common.ErrSchemaMismatch, name, col.Kind, kind)
	}
	return v.cols[name], nil
}

// Texts returns the values of a text column.
func (v *View) Texts(name string) ([]string, error) {
	d, err := v.column(name, KindText)
	return d.texts, err
}

// Bools returns the values of a bool column.
func (v *View) Bools(name string) ([]bool, error) {
	d, err := v.column(name, KindBool)
	return d.bools, err
}

// Floats returns the values of a float column.
func (v *View) Floats(name string) ([]float64, error) {
	d, err := v.column(name, KindFloat)
	return d.floats, err
}

// Keys returns the values of a key column.
func (v *View) Keys(name string) ([]uint32, error) {
	d, err := v.column(name, KindKey)
	return d.keys, err
}

// Vectors returns the values of a sparse vector column.
func (v *View) Vectors(name string) ([]Vector, error) {
	d, err := v.column(name, KindVector)
	return d.vectors, err
}

// Dense returns the values of a dense vector column.
func (v *View) Dense(name string) ([][]float64, error) {
	d, err := v.column(name, KindFloats)
	return d.dense, err
}

// Select returns a new view holding the given rows, in the given order.
func (v *View) Select(rows []int) *View {
	cols := make(map[string]columnData, len(v.cols))
	for name, c := range v.cols {
		var d columnData
		switch {
		case c.texts != nil:
			d.texts = pick(c.texts, rows)
		case c.bools != nil:
			d.bools = pick(c.bools, rows)
		case c.floats != nil:
			d.floats = pick(c.floats, rows)
		case c.keys != nil:
			d.keys = pick(c.keys, rows)
		case c.vectors != nil:
			d.vectors = pick(c.vectors, rows)
		case c.dense != nil:
			d.dense = pick(c.dense, rows)
		}
		cols[name] = d
	}
	return &View{
		cols:   cols,
		schema: v.schema,
		rows:   len(rows),
	}
}

func pick[T any](values []T, rows []int) []T {
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = values[r]
	}
	return out
}
