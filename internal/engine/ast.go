package engine

// ast.go defines the parse tree for exactly the grammar in §6: six
// statement kinds, a flat AND-only condition list, and the small value/
// expr shapes INSERT and UPDATE need. There is deliberately no join,
// aggregate, subquery or set-operation node — the grammar has none.

// CompareOp is the closed set of <cond> comparison operators (§6).
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
)

// ArithOp is the closed set of <expr> arithmetic operators (§6), valid
// only on INT/REAL columns.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
)

// ColumnTypeName is the raw, unvalidated type name out of <type> (§6);
// validate.go turns this plus Size into a storage.ColumnType.
type ColumnTypeName int

const (
	TypeNameInt ColumnTypeName = iota
	TypeNameReal
	TypeNameText
)

// ColumnDef is one `<col> <type>` pair from CREATE TABLE.
type ColumnDef struct {
	Name string
	Type ColumnTypeName
	Size int // TEXT(n)'s n; unused for INT/REAL
}

// Literal is a parsed scalar: exactly one of Int/Real/Text is meaningful,
// selected by Kind.
type Literal struct {
	Kind ColumnTypeName
	Int  int32
	Real float64
	Text string
}

// Condition is one `<cond>` from a WHERE clause.
type Condition struct {
	Column string
	Op     CompareOp
	Value  Literal
}

// AssignKind is which of <expr>'s three shapes a SET assignment took.
type AssignKind int

const (
	AssignLiteral    AssignKind = iota // col = value
	AssignCopyColumn                   // col = other_col
	AssignArith                        // col = other_col <op> value
)

// Assignment is one `<col>=<expr>` from a SET clause (§6).
type Assignment struct {
	Column       string
	Kind         AssignKind
	SourceColumn string // set for AssignCopyColumn and AssignArith
	Op           ArithOp
	Value        Literal
}

// CreateTable is `CREATE TABLE <t> (...)`.
type CreateTable struct {
	Table      string
	Columns    []ColumnDef
	PrimaryKey string // "" if no PRIMARY KEY clause was given
}

// Select is `SELECT ... FROM <t> [WHERE ...]`.
type Select struct {
	Table   string
	Star    bool
	Columns []string // ignored if Star
	Where   []Condition
}

// InsertStmt is `INSERT INTO <t> [(...)] VALUES (...), (...)`.
type InsertStmt struct {
	Table   string
	Columns []string // "" (nil) means "all columns, in schema order"
	Rows    [][]Literal
}

// UpdateStmt is `UPDATE <t> SET ... [WHERE ...]`.
type UpdateStmt struct {
	Table string
	Set   []Assignment
	Where []Condition
}

// DeleteStmt is `DELETE FROM <t> [WHERE ...]`.
type DeleteStmt struct {
	Table string
	Where []Condition
}

// DropTable is `DROP TABLE <t>`.
type DropTable struct {
	Table string
}

// Statement is the closed sum of parsed statements.
type Statement struct {
	Create *CreateTable
	Select *Select
	Insert *InsertStmt
	Update *UpdateStmt
	Delete *DeleteStmt
	Drop   *DropTable
}
