package storage

import (
	"fmt"

	"github.com/brindledb/brindle/internal/pager"
)

// Value is the closed sum of materialized field values (§3, mirrors the
// Key variants in internal/pager but at the row-field rather than
// primary-key level: every column, not just the primary one, needs a
// comparable, printable value for filter predicates and SET expressions).
type Value interface {
	Type() ColumnType
	Less(other Value) bool
	Equal(other Value) bool
	String() string
}

// IntValue is an INT field.
type IntValue int32

func (v IntValue) Type() ColumnType { return TypeInt }
func (v IntValue) Less(other Value) bool {
	return v < other.(IntValue)
}
func (v IntValue) Equal(other Value) bool {
	o, ok := other.(IntValue)
	return ok && v == o
}
func (v IntValue) String() string { return fmt.Sprintf("%d", int32(v)) }

// RealValue is a REAL field.
type RealValue float64

func (v RealValue) Type() ColumnType { return TypeReal }
func (v RealValue) Less(other Value) bool {
	return v < other.(RealValue)
}
func (v RealValue) Equal(other Value) bool {
	o, ok := other.(RealValue)
	return ok && v == o
}
func (v RealValue) String() string { return fmt.Sprintf("%g", float64(v)) }

// TextValue is a TEXT(n) field, unpadded. Truncation/padding to the
// column's declared size happens only at serialization time.
type TextValue string

func (v TextValue) Type() ColumnType { return TypeText }
func (v TextValue) Less(other Value) bool {
	return pager.NewFixedText(string(v), len(v)).Less(pager.NewFixedText(string(other.(TextValue)), len(other.(TextValue))))
}
func (v TextValue) Equal(other Value) bool {
	o, ok := other.(TextValue)
	return ok && v == o
}
func (v TextValue) String() string { return string(v) }

// ErrColumnTypeMismatch reports a Value whose Type() doesn't match the
// column it is being written into.
var ErrColumnTypeMismatch = fmt.Errorf("storage: value type does not match column type")

// ValueToKey converts a primary-key field value into the pager-level Key
// the B+-tree indexes on, padding TEXT values to the schema's declared
// primary-column width so ordering matches what's actually stored on disk.
func (s *Schema) ValueToKey(v Value) (pager.Key, error) {
	p := s.Primary()
	switch val := v.(type) {
	case IntValue:
		if p.Type != TypeInt {
			return nil, ErrColumnTypeMismatch
		}
		return pager.IntKey(val), nil
	case RealValue:
		if p.Type != TypeReal {
			return nil, ErrColumnTypeMismatch
		}
		return pager.RealKey(val), nil
	case TextValue:
		if p.Type != TypeText {
			return nil, ErrColumnTypeMismatch
		}
		return pager.TextKey{FixedText: pager.NewFixedText(string(val), p.Size)}, nil
	default:
		return nil, ErrColumnTypeMismatch
	}
}

// writeValueAt serializes val into buf at col's offset, per §3's row
// layout (fixed INT/REAL widths, zero-padded TEXT(n)).
func writeValueAt(buf []byte, col Column, val Value) error {
	switch col.Type {
	case TypeInt:
		iv, ok := val.(IntValue)
		if !ok {
			return ErrColumnTypeMismatch
		}
		return pager.WriteInt32(buf, col.Offset, int32(iv))
	case TypeReal:
		rv, ok := val.(RealValue)
		if !ok {
			return ErrColumnTypeMismatch
		}
		return pager.WriteFloat64(buf, col.Offset, float64(rv))
	default:
		tv, ok := val.(TextValue)
		if !ok {
			return ErrColumnTypeMismatch
		}
		ft := pager.NewFixedText(string(tv), col.Size)
		return pager.WriteBytes(buf, col.Offset, ft.Bytes())
	}
}

// readValueAt decodes the value of col out of buf.
func readValueAt(buf []byte, col Column) (Value, error) {
	switch col.Type {
	case TypeInt:
		v, err := pager.ViewInt32(buf, col.Offset)
		if err != nil {
			return nil, err
		}
		return IntValue(v), nil
	case TypeReal:
		v, err := pager.ViewFloat64(buf, col.Offset)
		if err != nil {
			return nil, err
		}
		return RealValue(v), nil
	default:
		ft, err := pager.ViewFixedText(buf, col.Offset, col.Size)
		if err != nil {
			return nil, err
		}
		return TextValue(ft.String()), nil
	}
}

// Row is an owning, materialized record: the shape produced by the parser
// for INSERT and consumed by result formatting (§3 "Row (owning)").
type Row struct {
	Schema *Schema
	Values []Value
}

// NewRow builds a Row, validating that values line up with the schema's
// column types.
func NewRow(schema *Schema, values []Value) (*Row, error) {
	if len(values) != len(schema.Columns) {
		return nil, fmt.Errorf("storage: row has %d values, schema wants %d", len(values), len(schema.Columns))
	}
	for i, c := range schema.Columns {
		if values[i].Type() != c.Type {
			return nil, fmt.Errorf("storage: column %q wants %s, got %s", c.Name, c.Type, values[i].Type())
		}
	}
	return &Row{Schema: schema, Values: values}, nil
}

// Field returns the i'th value.
func (r *Row) Field(i int) Value { return r.Values[i] }

// Primary returns the primary-key value.
func (r *Row) Primary() Value { return r.Values[r.Schema.PrimaryIndex] }

// Serialize encodes the row into schema.RowSize() bytes, ready for a leaf
// slot (§3 "Serialization").
func (r *Row) Serialize() ([]byte, error) {
	buf := make([]byte, r.Schema.RowSize())
	for i, c := range r.Schema.Columns {
		if err := writeValueAt(buf, c, r.Values[i]); err != nil {
			return nil, fmt.Errorf("storage: serializing column %q: %w", c.Name, err)
		}
	}
	return buf, nil
}

// RowView is a non-owning, schema-aware view over a leaf slot's bytes
// (§3 "Row (view)"). Valid only while the backing frame remains pinned —
// callers must not retain a RowView past the Cursor step that produced it.
type RowView struct {
	schema    *Schema
	buf       []byte
	markDirty func()
}

// WrapRowView wraps buf (at least schema.RowSize() bytes) as a read-mostly
// RowView: SetField still writes through, but there is no pinned frame to
// flag dirty (a materialized row, or a Values-iterator synthetic buffer).
func WrapRowView(schema *Schema, buf []byte) RowView {
	return RowView{schema: schema, buf: buf}
}

// WrapMutableRowView wraps buf as a RowView backed by a pinned leaf frame:
// markDirty is called after every SetField so the frame gets written back.
// Used only by Cursor.Current, which alone knows the frame is pinned.
func WrapMutableRowView(schema *Schema, buf []byte, markDirty func()) RowView {
	return RowView{schema: schema, buf: buf, markDirty: markDirty}
}

// Schema returns the view's schema.
func (v RowView) Schema() *Schema { return v.schema }

// Bytes returns the backing byte slice, still live only while pinned.
func (v RowView) Bytes() []byte { return v.buf }

// Field decodes the i'th column's value.
func (v RowView) Field(i int) (Value, error) {
	return readValueAt(v.buf, v.schema.Columns[i])
}

// FieldByName decodes a column's value by name.
func (v RowView) FieldByName(name string) (Value, error) {
	i, ok := v.schema.ColumnIndex(name)
	if !ok {
		return nil, fmt.Errorf("storage: unknown column %q", name)
	}
	return v.Field(i)
}

// Primary decodes the primary-key value.
func (v RowView) Primary() (Value, error) { return v.Field(v.schema.PrimaryIndex) }

// SetField overwrites the i'th column's stored bytes in place. Used by the
// update iterator (C12) while the leaf frame is pinned and dirty-marked.
func (v RowView) SetField(i int, val Value) error {
	if err := writeValueAt(v.buf, v.schema.Columns[i], val); err != nil {
		return err
	}
	if v.markDirty != nil {
		v.markDirty()
	}
	return nil
}

// Materialize copies the view into an owning Row.
func (v RowView) Materialize() (*Row, error) {
	values := make([]Value, len(v.schema.Columns))
	for i := range v.schema.Columns {
		val, err := v.Field(i)
		if err != nil {
			return nil, err
		}
		values[i] = val
	}
	return &Row{Schema: v.schema, Values: values}, nil
}
