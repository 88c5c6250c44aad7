package data

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/Veraticus/textclass/internal/common"
)

// Struct tags understood by RecordType:
//
//	load:"N"       source field index when reading delimited text
//	column:"Name"  column name, defaults to the field name; "-" skips the field
const (
	tagLoad   = "load"
	tagColumn = "column"
)

type recordField struct {
	typ   reflect.Type
	name  string
	index []int
	kind  Kind
	load  int
}

// RecordType maps between values of the struct type T and view rows.
type RecordType[T any] struct {
	schema Schema
	fields []recordField
}

// NewRecordType inspects T's exported fields. Supported field types are
// string, bool, float32, float64, uint32, []float32 and []float64.
func NewRecordType[T any]() (*RecordType[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: record type %s is not a struct", common.ErrSchemaMismatch, t)
	}

	rt := &RecordType[T]{}
	seen := make(map[string]bool)
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup(tagColumn); ok {
			if tag == "-" {
				continue
			}
			name = tag
		}

		kind, ok := kindOf(sf.Type)
		if !ok {
			if _, tagged := sf.Tag.Lookup(tagLoad); tagged {
				return nil, fmt.Errorf("%w: field %s.%s has unsupported type %s",
					common.ErrSchemaMismatch, t.Name(), sf.Name, sf.Type)
			}
			continue
		}

		load := -1
		if tag, tagged := sf.Tag.Lookup(tagLoad); tagged {
			n, err := strconv.Atoi(tag)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: field %s.%s has invalid load index %q",
					common.ErrSchemaMismatch, t.Name(), sf.Name, tag)
			}
			load = n
		}

		if seen[name] {
			return nil, fmt.Errorf("%w: record type %s declares column %q twice",
				common.ErrSchemaMismatch, t.Name(), name)
		}
		seen[name] = true

		rt.fields = append(rt.fields, recordField{
			typ:   sf.Type,
			name:  name,
			index: sf.Index,
			kind:  kind,
			load:  load,
		})
		rt.schema.Columns = append(rt.schema.Columns, Column{Name: name, Kind: kind, Index: load})
	}

	if len(rt.fields) == 0 {
		return nil, fmt.Errorf("%w: record type %s has no usable fields", common.ErrSchemaMismatch, t.Name())
	}
	return rt, nil
}

func kindOf(t reflect.Type) (Kind, bool) {
	switch t.Kind() {
	case reflect.String:
		return KindText, true
	case reflect.Bool:
		return KindBool, true
	case reflect.Float32, reflect.Float64:
		return KindFloat, true
	case reflect.Uint32:
		return KindKey, true
	case reflect.Slice:
		switch t.Elem().Kind() {
		case reflect.Float32, reflect.Float64:
			return KindFloats, true
		}
	}
	return 0, false
}

// Schema returns the columns T maps to.
func (rt *RecordType[T]) Schema() Schema {
	return rt.schema
}

// View builds a view holding one row per record.
func (rt *RecordType[T]) View(records []T) (*View, error) {
	v := NewView(len(records))
	for _, f := range rt.fields {
		col := Column{Name: f.name, Kind: f.kind, Index: f.load}
		var values any
		switch f.kind {
		case KindText:
			vals := make([]string, len(records))
			for i := range records {
				vals[i] = fieldOf(&records[i], f).String()
			}
			values = vals
		case KindBool:
			vals := make([]bool, len(records))
			for i := range records {
				vals[i] = fieldOf(&records[i], f).Bool()
			}
			values = vals
		case KindFloat:
			vals := make([]float64, len(records))
			for i := range records {
				vals[i] = fieldOf(&records[i], f).Float()
			}
			values = vals
		case KindKey:
			vals := make([]uint32, len(records))
			for i := range records {
				vals[i] = uint32(fieldOf(&records[i], f).Uint())
			}
			values = vals
		case KindFloats:
			vals := make([][]float64, len(records))
			for i := range records {
				fv := fieldOf(&records[i], f)
				row := make([]float64, fv.Len())
				for j := range row {
					row[j] = fv.Index(j).Float()
				}
				vals[i] = row
			}
			values = vals
		}

		var err error
		v, err = v.With(col, values)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Records maps every row of v back to a T. Fields whose column is absent
// from v keep their zero value. String fields accept text and key columns;
// key columns are mapped through their key values.
func (rt *RecordType[T]) Records(v *View) ([]T, error) {
	out := make([]T, v.Rows())
	for _, f := range rt.fields {
		col, ok := v.Schema().Lookup(f.name)
		if !ok {
			continue
		}
		if err := rt.fill(out, v, f, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (rt *RecordType[T]) fill(out []T, v *View, f recordField, col Column) error {
	mismatch := func() error {
		return fmt.Errorf("%w: column %q is %s and cannot fill field of type %s",
			common.ErrSchemaMismatch, col.Name, col.Kind, f.typ)
	}

	switch f.kind {
	case KindText:
		switch col.Kind {
		case KindText:
			vals, err := v.Texts(col.Name)
			if err != nil {
				return err
			}
			for i := range out {
				fieldOf(&out[i], f).SetString(vals[i])
			}
		case KindKey:
			keys, err := v.Keys(col.Name)
			if err != nil {
				return err
			}
			for i := range out {
				fieldOf(&out[i], f).SetString(KeyValue(col, keys[i]))
			}
		default:
			return mismatch()
		}
	case KindBool:
		if col.Kind != KindBool {
			return mismatch()
		}
		vals, err := v.Bools(col.Name)
		if err != nil {
			return err
		}
		for i := range out {
			fieldOf(&out[i], f).SetBool(vals[i])
		}
	case KindFloat:
		if col.Kind != KindFloat {
			return mismatch()
		}
		vals, err := v.Floats(col.Name)
		if err != nil {
			return err
		}
		for i := range out {
			fieldOf(&out[i], f).SetFloat(vals[i])
		}
	case KindKey:
		if col.Kind != KindKey {
			return mismatch()
		}
		vals, err := v.Keys(col.Name)
		if err != nil {
			return err
		}
		for i := range out {
			fieldOf(&out[i], f).SetUint(uint64(vals[i]))
		}
	case KindFloats:
		if col.Kind != KindFloats {
			return mismatch()
		}
		vals, err := v.Dense(col.Name)
		if err != nil {
			return err
		}
		for i := range out {
			fv := fieldOf(&out[i], f)
			slice := reflect.MakeSlice(f.typ, len(vals[i]), len(vals[i]))
			for j, x := range vals[i] {
				slice.Index(j).SetFloat(x)
			}
			fv.Set(slice)
		}
	}
	return nil
}

func fieldOf[T any](rec *T, f recordField) reflect.Value {
	return reflect.ValueOf(rec).Elem().FieldByIndex(f.index)
}

// KeyValue returns the value a key maps to in col, or "" for missing keys.
func KeyValue(col Column, key uint32) string {
	if key == 0 || int(key) > len(col.KeyValues) {
		return ""
	}
	return col.KeyValues[key-1]
}

// SchemaOf returns the schema declared by T's struct tags.
func SchemaOf[T any]() (Schema, error) {
	rt, err := NewRecordType[T]()
	if err != nil {
		return Schema{}, err
	}
	return rt.Schema(), nil
}

// LoadFromRecords builds a view from in-memory records.
func LoadFromRecords[T any](records []T) (*View, error) {
	rt, err := NewRecordType[T]()
	if err != nil {
		return nil, err
	}
	return rt.View(records)
}

// ToRecords maps the rows of v to values of T.
func ToRecords[T any](v *View) ([]T, error) {
	rt, err := NewRecordType[T]()
	if err != nil {
		return nil, err
	}
	return rt.Records(v)
}
