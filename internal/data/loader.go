package data

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/textclass/internal/common"
)

const maxLineBytes = 4 << 20

// TextOptions controls how delimited text files are read.
type TextOptions struct {
	// Separator between fields. Defaults to a tab.
	Separator rune
	// HasHeader skips the first non-empty line.
	HasHeader bool
}

// LoadFromTextFile reads a delimited text file into a view. Every column of
// schema must declare its source Index.
func LoadFromTextFile(path string, schema Schema, opts TextOptions) (*View, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIO, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close data file", "path", path, "error", closeErr)
		}
	}()

	v, err := ReadText(f, schema, opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	slog.Debug("Loaded data file", "path", path, "rows", v.Rows(), "columns", len(schema.Columns))
	return v, nil
}

type columnBuilder struct {
	texts  []string
	bools  []bool
	floats []float64
	col    Column
}

// ReadText reads delimited text from r into a view.
func ReadText(r io.Reader, schema Schema, opts TextOptions) (*View, error) {
	sep := opts.Separator
	if sep == 0 {
		sep = '\t'
	}

	builders := make([]*columnBuilder, len(schema.Columns))
	for i, col := range schema.Columns {
		if col.Index < 0 {
			return nil, fmt.Errorf("%w: column %q has no source index", common.ErrSchemaMismatch, col.Name)
		}
		switch col.Kind {
		case KindText, KindBool, KindFloat:
		default:
			return nil, fmt.Errorf("%w: column %q of kind %s cannot be loaded from text",
				common.ErrSchemaMismatch, col.Name, col.Kind)
		}
		builders[i] = &columnBuilder{col: col}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		lineNo     int
		rows       int
		headerSeen = !opts.HasHeader
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}

		fields := strings.Split(line, string(sep))
		for _, b := range builders {
			if b.col.Index >= len(fields) {
				return nil, fmt.Errorf("%w: line %d: column %q wants field %d but the row has %d fields",
					common.ErrSchemaMismatch, lineNo, b.col.Name, b.col.Index, len(fields))
			}
			if err := b.add(fields[b.col.Index]); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", common.ErrSchemaMismatch, lineNo, err)
			}
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIO, err)
	}

	v := NewView(rows)
	for _, b := range builders {
		var err error
		switch b.col.Kind {
		case KindText:
			v, err = v.With(b.col, orEmpty(b.texts))
		case KindBool:
			v, err = v.With(b.col, orEmpty(b.bools))
		case KindFloat:
			v, err = v.With(b.col, orEmpty(b.floats))
		}
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (b *columnBuilder) add(field string) error {
	switch b.col.Kind {
	case KindText:
		b.texts = append(b.texts, field)
	case KindBool:
		field = strings.TrimSpace(field)
		if field == "" {
			b.bools = append(b.bools, false)
			return nil
		}
		val, err := strconv.ParseBool(field)
		if err != nil {
			return fmt.Errorf("column %q: %q is not a bool", b.col.Name, field)
		}
		b.bools = append(b.bools, val)
	case KindFloat:
		field = strings.TrimSpace(field)
		if field == "" {
			b.floats = append(b.floats, math.NaN())
			return nil
		}
		val, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Errorf("column %q: %q is not a number", b.col.Name, field)
		}
		b.floats = append(b.floats, val)
	}
	return nil
}

func orEmpty[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
