// Package storage implements the schema-aware row codec, cursor and
// database/catalog layer (spec §4.9–§4.14) atop internal/pager.
package storage

import (
	"fmt"

	"github.com/brindledb/brindle/internal/pager"
)

// ColumnType is the closed sum of value types named in §3: INT, REAL,
// TEXT(n).
type ColumnType int

const (
	TypeInt ColumnType = iota
	TypeReal
	TypeText
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeReal:
		return "REAL"
	case TypeText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// fixedSize returns the on-disk width of INT/REAL; TEXT(n) carries its own
// declared size, passed in separately at schema construction.
func (t ColumnType) fixedSize() int {
	switch t {
	case TypeInt:
		return 4
	case TypeReal:
		return 8
	default:
		return 0
	}
}

// Column is one entry of ordered column metadata (§3 "Schema").
type Column struct {
	Name   string
	Type   ColumnType
	Size   int // declared width; for TEXT(n) this is n
	Offset int // byte offset within a serialized row
}

// Schema is ordered column metadata plus a primary-column index (§3, §4.9).
// The primary column is always placed at row offset 0; other columns
// follow in declared order, matching §3's serialization rule.
type Schema struct {
	Columns      []Column
	PrimaryIndex int
	byName       map[string]int
	rowSize      int
}

// ColumnDef is the input shape for NewSchema: one user-declared column.
type ColumnDef struct {
	Name string
	Type ColumnType
	Size int // only meaningful for TypeText
}

// NewSchema builds a Schema from declared columns and the name of the
// primary column. Column order in the returned Schema matches the
// declaration order in cols; byte offsets are assigned with the primary
// column first regardless of its declared position (§3).
func NewSchema(cols []ColumnDef, primaryName string) (*Schema, error) {
	primaryIdx := -1
	for i, c := range cols {
		if c.Name == primaryName {
			primaryIdx = i
		}
	}
	if primaryIdx == -1 {
		return nil, fmt.Errorf("storage: primary column %q not declared", primaryName)
	}

	sizeOf := func(c ColumnDef) int {
		if c.Type == TypeText {
			return c.Size
		}
		return c.Type.fixedSize()
	}

	out := make([]Column, len(cols))
	out[primaryIdx] = Column{Name: cols[primaryIdx].Name, Type: cols[primaryIdx].Type, Size: sizeOf(cols[primaryIdx]), Offset: 0}
	offset := out[primaryIdx].Size
	for i, c := range cols {
		if i == primaryIdx {
			continue
		}
		sz := sizeOf(c)
		out[i] = Column{Name: c.Name, Type: c.Type, Size: sz, Offset: offset}
		offset += sz
	}

	byName := make(map[string]int, len(out))
	for i, c := range out {
		if _, dup := byName[c.Name]; dup {
			return nil, fmt.Errorf("storage: duplicate column %q", c.Name)
		}
		byName[c.Name] = i
	}

	return &Schema{Columns: out, PrimaryIndex: primaryIdx, byName: byName, rowSize: offset}, nil
}

// RowSize is the fixed serialized width of one row: sum of column sizes.
func (s *Schema) RowSize() int { return s.rowSize }

// ColumnIndex looks up a column by name.
func (s *Schema) ColumnIndex(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// Primary returns the primary-key column.
func (s *Schema) Primary() Column { return s.Columns[s.PrimaryIndex] }

// KeyCodec builds the pager-level dispatch table for this schema's primary
// column kind (Design Notes §9).
func (s *Schema) KeyCodec() pager.KeyCodec {
	p := s.Primary()
	switch p.Type {
	case TypeInt:
		return pager.KeyCodec{Kind: pager.KeyKindInt, Size: 4}
	case TypeReal:
		return pager.KeyCodec{Kind: pager.KeyKindReal, Size: 8}
	default:
		return pager.KeyCodec{Kind: pager.KeyKindText, Size: p.Size}
	}
}

// Project returns a new schema over a subset of columns, in the requested
// order, with offsets recomputed for result shaping only — never used to
// reinterpret on-disk bytes (§4.9 "the projection is used only for result
// shaping, not for storage").
func (s *Schema) Project(names []string) (*Schema, error) {
	cols := make([]Column, len(names))
	offset := 0
	primaryIdx := -1
	primaryName := s.Primary().Name
	for i, name := range names {
		idx, ok := s.byName[name]
		if !ok {
			return nil, fmt.Errorf("storage: unknown column %q", name)
		}
		c := s.Columns[idx]
		c.Offset = offset
		offset += c.Size
		cols[i] = c
		if name == primaryName {
			primaryIdx = i
		}
	}
	byName := make(map[string]int, len(cols))
	for i, c := range cols {
		byName[c.Name] = i
	}
	return &Schema{Columns: cols, PrimaryIndex: primaryIdx, byName: byName, rowSize: offset}, nil
}

// Names returns the declared column names in order, used by result
// formatting and the master-table bootstrap.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
