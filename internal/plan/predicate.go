package plan

import (
	"fmt"

	"github.com/brindledb/brindle/internal/storage"
)

// CompareOp is the closed set of comparison operators the grammar's
// <cond> production supports (spec §6).
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

func compare(op CompareOp, a, b storage.Value) bool {
	switch op {
	case OpEq:
		return a.Equal(b)
	case OpNe:
		return !a.Equal(b)
	case OpLt:
		return a.Less(b)
	case OpLe:
		return a.Less(b) || a.Equal(b)
	case OpGt:
		return !a.Less(b) && !a.Equal(b)
	case OpGe:
		return !a.Less(b)
	default:
		return false
	}
}

// Predicate is the compiled form of a validated WHERE condition: a
// function of a row view rather than an AST node, built once per query
// (compile step, §4.11 "Predicates and modifiers are compiled once per
// query").
type Predicate func(storage.RowView) (bool, error)

// CompileColumnCompare builds a Predicate testing column `op` value, both
// looked up by name at compile time rather than re-resolved per row.
func CompileColumnCompare(column string, op CompareOp, value storage.Value) (Predicate, error) {
	return func(view storage.RowView) (bool, error) {
		field, err := view.FieldByName(column)
		if err != nil {
			return false, fmt.Errorf("plan: evaluating %s %s %s: %w", column, op, value, err)
		}
		return compare(op, field, value), nil
	}, nil
}

// And combines predicates with short-circuit conjunction, matching the
// grammar's `AND`-only condition list (§6).
func And(preds []Predicate) Predicate {
	return func(view storage.RowView) (bool, error) {
		for _, p := range preds {
			ok, err := p(view)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}

// Modifier is the compiled form of one UPDATE SET assignment: it reads
// whatever it needs from the row view, computes the new value, and writes
// it back in place.
type Modifier func(storage.RowView) error

// CompileSetLiteral builds a Modifier that overwrites column with a fixed
// value (§4.11: TEXT columns use this form or the column copy below, never
// the arithmetic one).
func CompileSetLiteral(schema *storage.Schema, column string, value storage.Value) (Modifier, error) {
	idx, ok := schema.ColumnIndex(column)
	if !ok {
		return nil, fmt.Errorf("plan: unknown column %q", column)
	}
	return func(view storage.RowView) error {
		return view.SetField(idx, value)
	}, nil
}

// ArithOp is the closed set of arithmetic operators the grammar's <expr>
// production supports for `col = col <op> value` (spec §6); never valid
// against a TEXT column.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
)

// CompileSetColumn builds a Modifier that overwrites column with the
// current value of source (the `col = other_col` shape of `<expr>`, §6).
func CompileSetColumn(schema *storage.Schema, column, source string) (Modifier, error) {
	idx, ok := schema.ColumnIndex(column)
	if !ok {
		return nil, fmt.Errorf("plan: unknown column %q", column)
	}
	srcIdx, ok := schema.ColumnIndex(source)
	if !ok {
		return nil, fmt.Errorf("plan: unknown column %q", source)
	}
	return func(view storage.RowView) error {
		current, err := view.Field(srcIdx)
		if err != nil {
			return err
		}
		return view.SetField(idx, current)
	}, nil
}

// CompileSetArith builds a Modifier that overwrites column with
// `source <op> operand`, source read from the row's current value before
// the write (§4.11; source is usually column itself, e.g. `x = x + 1`,
// but the grammar allows any column on the left of the operator).
func CompileSetArith(schema *storage.Schema, column, source string, op ArithOp, operand storage.Value) (Modifier, error) {
	idx, ok := schema.ColumnIndex(column)
	if !ok {
		return nil, fmt.Errorf("plan: unknown column %q", column)
	}
	srcIdx, ok := schema.ColumnIndex(source)
	if !ok {
		return nil, fmt.Errorf("plan: unknown column %q", source)
	}
	return func(view storage.RowView) error {
		current, err := view.Field(srcIdx)
		if err != nil {
			return err
		}
		next, err := applyArith(current, op, operand)
		if err != nil {
			return err
		}
		return view.SetField(idx, next)
	}, nil
}

func applyArith(a storage.Value, op ArithOp, b storage.Value) (storage.Value, error) {
	switch av := a.(type) {
	case storage.IntValue:
		bv, ok := b.(storage.IntValue)
		if !ok {
			return nil, fmt.Errorf("plan: arithmetic type mismatch on INT column")
		}
		return storage.IntValue(arithInt(int32(av), op, int32(bv))), nil
	case storage.RealValue:
		bv, ok := b.(storage.RealValue)
		if !ok {
			return nil, fmt.Errorf("plan: arithmetic type mismatch on REAL column")
		}
		return storage.RealValue(arithReal(float64(av), op, float64(bv))), nil
	default:
		return nil, fmt.Errorf("plan: arithmetic is not valid on TEXT columns")
	}
}

func arithInt(a int32, op ArithOp, b int32) int32 {
	switch op {
	case ArithAdd:
		return a + b
	case ArithSub:
		return a - b
	case ArithMul:
		return a * b
	case ArithDiv:
		return a / b
	default:
		return a
	}
}

func arithReal(a float64, op ArithOp, b float64) float64 {
	switch op {
	case ArithAdd:
		return a + b
	case ArithSub:
		return a - b
	case ArithMul:
		return a * b
	case ArithDiv:
		return a / b
	default:
		return a
	}
}
