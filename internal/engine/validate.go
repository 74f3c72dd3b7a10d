package engine

import (
	"fmt"

	"github.com/brindledb/brindle/internal/storage"
)

// validate.go turns a parsed Statement plus the current catalog into one
// of the ValidatedQuery variants, enforcing every guard named in §6
// ("Validator protections") before anything reaches the plan builder.
// Grounded on the teacher's validator pass (folded into its planner in
// internal/engine/exec.go), split out here into its own file since this
// grammar's validator is a small, self-contained step rather than
// interleaved with execution.

const (
	maxTableNameLen = 32
	maxRowWidth     = 512
	reservedColumn  = "rowid"
)

// CompareOp and ArithOp already exist at the AST level (ast.go); validate
// keeps them as they are, and the plan package's builder translates them
// into its own execution-level enums (internal/plan/predicate.go), so this
// package never imports plan.

// ValidatedCondition is one WHERE condition after column/type resolution.
type ValidatedCondition struct {
	Column string
	Type   storage.ColumnType
	Op     CompareOp
	Value  storage.Value
}

// ValidatedAssignment is one SET assignment after column/type resolution.
type ValidatedAssignment struct {
	Column       string
	Kind         AssignKind
	SourceColumn string
	Op           ArithOp
	Value        storage.Value
}

// ValidatedCreate is a type-checked CREATE TABLE.
type ValidatedCreate struct {
	Name   string
	SQL    string // original statement text, stashed for the master-table row
	Schema *storage.Schema
}

// ValidatedSelect is a type-checked SELECT.
type ValidatedSelect struct {
	Table   *storage.Table
	Star    bool
	Columns []string
	Where   []ValidatedCondition
	// ResultSchema is the table's schema (Star) or its Columns projection,
	// computed once here so the plan builder and the result-set wrapper
	// never have to recompute or disagree on it.
	ResultSchema *storage.Schema
}

// ValidatedInsert is a type-checked INSERT.
type ValidatedInsert struct {
	Table *storage.Table
	Rows  []*storage.Row
}

// ValidatedUpdate is a type-checked UPDATE.
type ValidatedUpdate struct {
	Table *storage.Table
	Set   []ValidatedAssignment
	Where []ValidatedCondition
}

// ValidatedDelete is a type-checked DELETE.
type ValidatedDelete struct {
	Table *storage.Table
	Where []ValidatedCondition
}

// ValidatedDrop is a type-checked DROP TABLE.
type ValidatedDrop struct {
	Name string
}

// ValidatedQuery is the closed sum the plan builder (C13) dispatches on.
type ValidatedQuery struct {
	Create *ValidatedCreate
	Select *ValidatedSelect
	Insert *ValidatedInsert
	Update *ValidatedUpdate
	Delete *ValidatedDelete
	Drop   *ValidatedDrop
}

// Validate checks stmt against cat and the protections in §6. allowMaster
// is the validator's master-table-protection flag (§4.14): user-facing
// exec/query always pass false; the engine's own post-Create/Drop
// bookkeeping writes pass true.
func Validate(stmt *Statement, cat *storage.Catalog, sql string, allowMaster bool) (*ValidatedQuery, error) {
	switch {
	case stmt.Create != nil:
		return validateCreate(stmt.Create, cat, sql)
	case stmt.Select != nil:
		return validateSelect(stmt.Select, cat, allowMaster)
	case stmt.Insert != nil:
		return validateInsert(stmt.Insert, cat, allowMaster)
	case stmt.Update != nil:
		return validateUpdate(stmt.Update, cat, allowMaster)
	case stmt.Delete != nil:
		return validateDelete(stmt.Delete, cat, allowMaster)
	case stmt.Drop != nil:
		return validateDrop(stmt.Drop, cat, allowMaster)
	default:
		return nil, fmt.Errorf("engine: empty statement")
	}
}

func guardTableName(name string, allowMaster bool) error {
	if len(name) > maxTableNameLen {
		return fmt.Errorf("engine: table name %q exceeds %d bytes", name, maxTableNameLen)
	}
	if !allowMaster && name == storage.MasterTableName {
		return fmt.Errorf("engine: references to %q are not permitted", storage.MasterTableName)
	}
	return nil
}

func lookupTable(cat *storage.Catalog, name string, allowMaster bool) (*storage.Table, error) {
	if err := guardTableName(name, allowMaster); err != nil {
		return nil, err
	}
	t, ok := cat.Get(name)
	if !ok {
		return nil, fmt.Errorf("engine: no such table %q", name)
	}
	return t, nil
}

func columnType(name ColumnTypeName) storage.ColumnType {
	switch name {
	case TypeNameInt:
		return storage.TypeInt
	case TypeNameReal:
		return storage.TypeReal
	default:
		return storage.TypeText
	}
}

func validateCreate(c *CreateTable, cat *storage.Catalog, sql string) (*ValidatedQuery, error) {
	if err := guardTableName(c.Table, false); err != nil {
		return nil, err
	}
	if _, exists := cat.Get(c.Table); exists {
		return nil, fmt.Errorf("engine: table %q already exists", c.Table)
	}
	schema, err := SchemaFromCreate(c)
	if err != nil {
		return nil, err
	}
	return &ValidatedQuery{Create: &ValidatedCreate{Name: c.Table, SQL: sql, Schema: schema}}, nil
}

// SchemaFromCreate validates and builds the Schema a CreateTable AST node
// describes, enforcing the same column-level guards validateCreate does.
// Exported for the root package's catalog bootstrap (§4.13), which parses
// each master-table row's stored CREATE TABLE text back into a Schema
// without re-running full statement validation (the table is already
// known-good, having been validated once when it was first created).
func SchemaFromCreate(c *CreateTable) (*storage.Schema, error) {
	if c.PrimaryKey == "" {
		return nil, fmt.Errorf("engine: CREATE TABLE %q requires a PRIMARY KEY", c.Table)
	}
	seen := make(map[string]bool, len(c.Columns))
	cols := make([]storage.ColumnDef, len(c.Columns))
	width := 0
	for i, col := range c.Columns {
		if col.Name == reservedColumn {
			return nil, fmt.Errorf("engine: column name %q is reserved", reservedColumn)
		}
		if seen[col.Name] {
			return nil, fmt.Errorf("engine: duplicate column %q", col.Name)
		}
		seen[col.Name] = true
		typ := columnType(col.Type)
		cols[i] = storage.ColumnDef{Name: col.Name, Type: typ, Size: col.Size}
		if typ == storage.TypeText {
			width += col.Size
		} else {
			width += 4
			if typ == storage.TypeReal {
				width += 4
			}
		}
	}
	if width > maxRowWidth {
		return nil, fmt.Errorf("engine: row width %d exceeds %d bytes", width, maxRowWidth)
	}
	if !seen[c.PrimaryKey] {
		return nil, fmt.Errorf("engine: PRIMARY KEY column %q not declared", c.PrimaryKey)
	}
	return storage.NewSchema(cols, c.PrimaryKey)
}

func validateConditions(schema *storage.Schema, conds []Condition) ([]ValidatedCondition, error) {
	out := make([]ValidatedCondition, 0, len(conds))
	for _, c := range conds {
		idx, ok := schema.ColumnIndex(c.Column)
		if !ok {
			return nil, fmt.Errorf("engine: unknown column %q", c.Column)
		}
		col := schema.Columns[idx]
		val, err := literalToValue(col.Type, c.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, ValidatedCondition{Column: c.Column, Type: col.Type, Op: c.Op, Value: val})
	}
	return out, nil
}

func literalToValue(want storage.ColumnType, lit Literal) (storage.Value, error) {
	switch want {
	case storage.TypeInt:
		if lit.Kind != TypeNameInt {
			return nil, fmt.Errorf("engine: expected an INT literal, got %s", lit.Kind.String())
		}
		return storage.IntValue(lit.Int), nil
	case storage.TypeReal:
		switch lit.Kind {
		case TypeNameReal:
			return storage.RealValue(lit.Real), nil
		case TypeNameInt:
			return storage.RealValue(float64(lit.Int)), nil
		default:
			return nil, fmt.Errorf("engine: expected a REAL literal, got %s", lit.Kind.String())
		}
	default:
		if lit.Kind != TypeNameText {
			return nil, fmt.Errorf("engine: expected a TEXT literal, got %s", lit.Kind.String())
		}
		return storage.TextValue(lit.Text), nil
	}
}

// String renders a ColumnTypeName for diagnostics.
func (t ColumnTypeName) String() string {
	switch t {
	case TypeNameInt:
		return "INT"
	case TypeNameReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func validateSelect(s *Select, cat *storage.Catalog, allowMaster bool) (*ValidatedQuery, error) {
	table, err := lookupTable(cat, s.Table, allowMaster)
	if err != nil {
		return nil, err
	}
	if !s.Star {
		for _, name := range s.Columns {
			if _, ok := table.Schema.ColumnIndex(name); !ok {
				return nil, fmt.Errorf("engine: unknown column %q", name)
			}
		}
	}
	where, err := validateConditions(table.Schema, s.Where)
	if err != nil {
		return nil, err
	}
	resultSchema := table.Schema
	if !s.Star {
		resultSchema, err = table.Schema.Project(s.Columns)
		if err != nil {
			return nil, err
		}
	}
	return &ValidatedQuery{Select: &ValidatedSelect{
		Table: table, Star: s.Star, Columns: s.Columns, Where: where, ResultSchema: resultSchema,
	}}, nil
}

func validateInsert(ins *InsertStmt, cat *storage.Catalog, allowMaster bool) (*ValidatedQuery, error) {
	table, err := lookupTable(cat, ins.Table, allowMaster)
	if err != nil {
		return nil, err
	}
	columns := ins.Columns
	if columns == nil {
		columns = table.Schema.Names()
	}
	if len(columns) != len(table.Schema.Columns) {
		return nil, fmt.Errorf("engine: INSERT into %q names %d columns, schema has %d", ins.Table, len(columns), len(table.Schema.Columns))
	}
	idxOf := make([]int, len(columns))
	for i, name := range columns {
		idx, ok := table.Schema.ColumnIndex(name)
		if !ok {
			return nil, fmt.Errorf("engine: unknown column %q", name)
		}
		idxOf[i] = idx
	}

	rows := make([]*storage.Row, 0, len(ins.Rows))
	for _, lits := range ins.Rows {
		if len(lits) != len(columns) {
			return nil, fmt.Errorf("engine: INSERT into %q supplies %d values, expected %d", ins.Table, len(lits), len(columns))
		}
		values := make([]storage.Value, len(table.Schema.Columns))
		for i, lit := range lits {
			col := table.Schema.Columns[idxOf[i]]
			val, err := literalToValue(col.Type, lit)
			if err != nil {
				return nil, err
			}
			values[idxOf[i]] = val
		}
		row, err := storage.NewRow(table.Schema, values)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return &ValidatedQuery{Insert: &ValidatedInsert{Table: table, Rows: rows}}, nil
}

func validateUpdate(upd *UpdateStmt, cat *storage.Catalog, allowMaster bool) (*ValidatedQuery, error) {
	table, err := lookupTable(cat, upd.Table, allowMaster)
	if err != nil {
		return nil, err
	}
	set := make([]ValidatedAssignment, 0, len(upd.Set))
	for _, a := range upd.Set {
		idx, ok := table.Schema.ColumnIndex(a.Column)
		if !ok {
			return nil, fmt.Errorf("engine: unknown column %q", a.Column)
		}
		col := table.Schema.Columns[idx]
		va := ValidatedAssignment{Column: a.Column, Kind: a.Kind}
		switch a.Kind {
		case AssignLiteral:
			// TEXT columns admit only `=` in SET (§6); a literal assignment
			// IS that equality form, so it needs no extra type guard here.
			val, err := literalToValue(col.Type, a.Value)
			if err != nil {
				return nil, err
			}
			va.Value = val
		case AssignCopyColumn:
			srcIdx, ok := table.Schema.ColumnIndex(a.SourceColumn)
			if !ok {
				return nil, fmt.Errorf("engine: unknown column %q", a.SourceColumn)
			}
			if table.Schema.Columns[srcIdx].Type != col.Type {
				return nil, fmt.Errorf("engine: column %q and %q have different types", a.Column, a.SourceColumn)
			}
			va.SourceColumn = a.SourceColumn
		case AssignArith:
			if col.Type == storage.TypeText {
				return nil, fmt.Errorf("engine: arithmetic is not permitted on TEXT column %q", a.Column)
			}
			srcIdx, ok := table.Schema.ColumnIndex(a.SourceColumn)
			if !ok {
				return nil, fmt.Errorf("engine: unknown column %q", a.SourceColumn)
			}
			if table.Schema.Columns[srcIdx].Type != col.Type {
				return nil, fmt.Errorf("engine: column %q and %q have different types", a.Column, a.SourceColumn)
			}
			val, err := literalToValue(col.Type, a.Value)
			if err != nil {
				return nil, err
			}
			va.SourceColumn = a.SourceColumn
			va.Op = a.Op
			va.Value = val
		}
		set = append(set, va)
	}
	where, err := validateConditions(table.Schema, upd.Where)
	if err != nil {
		return nil, err
	}
	return &ValidatedQuery{Update: &ValidatedUpdate{Table: table, Set: set, Where: where}}, nil
}

func validateDelete(del *DeleteStmt, cat *storage.Catalog, allowMaster bool) (*ValidatedQuery, error) {
	table, err := lookupTable(cat, del.Table, allowMaster)
	if err != nil {
		return nil, err
	}
	where, err := validateConditions(table.Schema, del.Where)
	if err != nil {
		return nil, err
	}
	return &ValidatedQuery{Delete: &ValidatedDelete{Table: table, Where: where}}, nil
}

func validateDrop(drop *DropTable, cat *storage.Catalog, allowMaster bool) (*ValidatedQuery, error) {
	if _, err := lookupTable(cat, drop.Table, allowMaster); err != nil {
		return nil, err
	}
	return &ValidatedQuery{Drop: &ValidatedDrop{Name: drop.Table}}, nil
}
