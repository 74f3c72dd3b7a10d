package plan

import (
	"fmt"

	"github.com/brindledb/brindle/internal/engine"
	"github.com/brindledb/brindle/internal/storage"
	"github.com/samber/lo"
)

// Build lowers one validated query (engine package) into a plan tree
// (§4.12). plan is free to import engine for its ValidatedQuery types;
// engine never imports plan, so there is no cycle. CompareOp/ArithOp
// exist independently at the AST level (engine) and the execution level
// (plan, predicate.go) — translateOp/translateArith below are the single
// place that bridges them.
func Build(vq *engine.ValidatedQuery, db *storage.Database) (Iterator, error) {
	switch {
	case vq.Create != nil:
		return NewCreate(db, vq.Create.Name, vq.Create.SQL, vq.Create.Schema), nil
	case vq.Drop != nil:
		return NewDrop(db, vq.Drop.Name), nil
	case vq.Select != nil:
		return buildSelect(vq.Select)
	case vq.Insert != nil:
		return buildInsert(vq.Insert)
	case vq.Update != nil:
		return buildUpdate(vq.Update)
	case vq.Delete != nil:
		return buildDelete(vq.Delete)
	default:
		return nil, fmt.Errorf("plan: empty validated query")
	}
}

func translateOp(op engine.CompareOp) CompareOp {
	switch op {
	case engine.OpEq:
		return OpEq
	case engine.OpNe:
		return OpNe
	case engine.OpLt:
		return OpLt
	case engine.OpLe:
		return OpLe
	case engine.OpGt:
		return OpGt
	default:
		return OpGe
	}
}

func translateArith(op engine.ArithOp) ArithOp {
	switch op {
	case engine.ArithAdd:
		return ArithAdd
	case engine.ArithSub:
		return ArithSub
	case engine.ArithMul:
		return ArithMul
	default:
		return ArithDiv
	}
}

// buildScan implements §4.12's condition-partitioning algorithm: conditions
// on the primary column fold into an IndexScan's bounds where possible,
// everything else spills to a Filter wrapping a TableScan/IndexScan.
// Returns the cursor doing the underlying walk too, so Delete can share it
// with its Erase iterator (§4.11 "the cursor is shared with the underlying
// scan"); Update writes through the scan's current row view instead.
func buildScan(table *storage.Table, conditions []engine.ValidatedCondition) (Iterator, *storage.Cursor, error) {
	primaryName := table.Schema.Primary().Name

	primaryConds, filterConds := lo.FilterReject(conditions, func(c engine.ValidatedCondition, _ int) bool {
		return c.Column == primaryName
	})

	var rangeConds []engine.ValidatedCondition
	eqAdopted := false
	var eqVal storage.Value
	for _, c := range primaryConds {
		switch c.Op {
		case engine.OpEq:
			if !eqAdopted {
				eqAdopted = true
				eqVal = c.Value
			} else {
				filterConds = append(filterConds, c)
			}
		case engine.OpNe:
			filterConds = append(filterConds, c)
		default:
			rangeConds = append(rangeConds, c)
		}
	}

	var lb, ub *storage.Value
	lbIncl, ubIncl := true, true
	if eqAdopted {
		// An adopted equality makes every other primary-column range bound
		// moot; they fall back to the filter list (§4.12 step 3).
		filterConds = append(filterConds, rangeConds...)
	} else {
		for _, c := range rangeConds {
			switch c.Op {
			case engine.OpGt:
				tightenLowerBound(&lb, &lbIncl, c.Value, false)
			case engine.OpGe:
				tightenLowerBound(&lb, &lbIncl, c.Value, true)
			case engine.OpLt:
				tightenUpperBound(&ub, &ubIncl, c.Value, false)
			case engine.OpLe:
				tightenUpperBound(&ub, &ubIncl, c.Value, true)
			}
		}
	}

	cursor := storage.NewCursor(table.Tree, table.Schema)

	var scan Iterator
	switch {
	case eqAdopted:
		v := eqVal
		scan = NewIndexScan(cursor, table.Schema, &v, true, &v, true)
	case lb != nil || ub != nil:
		scan = NewIndexScan(cursor, table.Schema, lb, lbIncl, ub, ubIncl)
	default:
		scan = NewTableScan(cursor)
	}

	if len(filterConds) > 0 {
		preds := make([]Predicate, 0, len(filterConds))
		for _, c := range filterConds {
			pred, err := CompileColumnCompare(c.Column, translateOp(c.Op), c.Value)
			if err != nil {
				return nil, nil, err
			}
			preds = append(preds, pred)
		}
		scan = NewFilter(scan, And(preds))
	}
	return scan, cursor, nil
}

// tightenLowerBound keeps the larger (and, on a tie, the stricter) of the
// current and candidate lower bounds.
func tightenLowerBound(lb **storage.Value, incl *bool, candidate storage.Value, candidateIncl bool) {
	if *lb == nil {
		v := candidate
		*lb = &v
		*incl = candidateIncl
		return
	}
	cur := **lb
	if cur.Less(candidate) {
		v := candidate
		*lb = &v
		*incl = candidateIncl
	} else if cur.Equal(candidate) {
		*incl = *incl && candidateIncl
	}
}

// tightenUpperBound keeps the smaller (and, on a tie, the stricter) of the
// current and candidate upper bounds.
func tightenUpperBound(ub **storage.Value, incl *bool, candidate storage.Value, candidateIncl bool) {
	if *ub == nil {
		v := candidate
		*ub = &v
		*incl = candidateIncl
		return
	}
	cur := **ub
	if candidate.Less(cur) {
		v := candidate
		*ub = &v
		*incl = candidateIncl
	} else if cur.Equal(candidate) {
		*incl = *incl && candidateIncl
	}
}

func buildSelect(sel *engine.ValidatedSelect) (Iterator, error) {
	scan, _, err := buildScan(sel.Table, sel.Where)
	if err != nil {
		return nil, err
	}
	if sel.Star {
		return scan, nil
	}
	return NewProject(scan, sel.ResultSchema), nil
}

func buildInsert(ins *engine.ValidatedInsert) (Iterator, error) {
	values := NewValues(ins.Rows, ins.Table.Schema)
	cursor := storage.NewCursor(ins.Table.Tree, ins.Table.Schema)
	return NewInsert(values, cursor, ins.Table.Schema), nil
}

func buildUpdate(upd *engine.ValidatedUpdate) (Iterator, error) {
	scan, _, err := buildScan(upd.Table, upd.Where)
	if err != nil {
		return nil, err
	}
	modifiers := make([]Modifier, 0, len(upd.Set))
	for _, a := range upd.Set {
		var mod Modifier
		var err error
		switch a.Kind {
		case engine.AssignLiteral:
			mod, err = CompileSetLiteral(upd.Table.Schema, a.Column, a.Value)
		case engine.AssignCopyColumn:
			mod, err = CompileSetColumn(upd.Table.Schema, a.Column, a.SourceColumn)
		case engine.AssignArith:
			mod, err = CompileSetArith(upd.Table.Schema, a.Column, a.SourceColumn, translateArith(a.Op), a.Value)
		}
		if err != nil {
			return nil, err
		}
		modifiers = append(modifiers, mod)
	}
	return NewUpdate(scan, combineModifiers(modifiers), upd.Table.Schema), nil
}

// combineModifiers runs each SET assignment's compiled modifier in
// left-to-right order against the same row view, matching the grammar's
// comma-separated assignment list (§6).
func combineModifiers(mods []Modifier) Modifier {
	return func(view storage.RowView) error {
		for _, m := range mods {
			if err := m(view); err != nil {
				return err
			}
		}
		return nil
	}
}

func buildDelete(del *engine.ValidatedDelete) (Iterator, error) {
	scan, cursor, err := buildScan(del.Table, del.Where)
	if err != nil {
		return nil, err
	}
	return NewErase(scan, cursor, del.Table.Schema), nil
}
