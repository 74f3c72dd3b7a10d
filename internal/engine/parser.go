// Package engine implements the SQL front end for the grammar in §6.
//
// What: a recursive-descent parser producing the ast.go statement tree.
// How: grounded on the teacher's parser (internal/engine/parser.go) for
// its overall shape — a lexer plus one token of lookahead, with
// expectKeyword/expectSymbol/errf helpers — narrowed to this grammar's
// six statement kinds. The teacher's version additionally covers JOIN,
// GROUP BY, HAVING, ORDER BY, LIMIT/OFFSET and set operations; none of
// that exists in §6, so none of it is carried over.
package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser is a recursive-descent parser over one statement's token stream.
type Parser struct {
	lx  *lexer
	cur token
}

// NewParser creates a new SQL parser for the provided input string.
func NewParser(sql string) *Parser {
	p := &Parser{lx: newLexer(sql)}
	p.advance()
	return p
}

func (p *Parser) advance() { p.cur = p.lx.nextToken() }

func (p *Parser) errf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("engine: parse error at offset %d: %s", p.cur.Pos, msg)
}

func (p *Parser) isKeyword(kw string) bool { return p.cur.Typ == tKeyword && p.cur.Val == kw }
func (p *Parser) isSymbol(sym string) bool { return p.cur.Typ == tSymbol && p.cur.Val == sym }

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errf("expected %q, got %q", kw, p.cur.Val)
	}
	p.advance()
	return nil
}

func (p *Parser) expectSymbol(sym string) error {
	if !p.isSymbol(sym) {
		return p.errf("expected %q, got %q", sym, p.cur.Val)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.cur.Typ != tIdent {
		return "", p.errf("expected an identifier, got %q", p.cur.Val)
	}
	name := p.cur.Val
	p.advance()
	return name, nil
}

// ParseStatement parses exactly one statement, consuming its trailing `;`
// if present.
func (p *Parser) ParseStatement() (*Statement, error) {
	switch {
	case p.isKeyword("CREATE"):
		return p.parseCreate()
	case p.isKeyword("SELECT"):
		return p.parseSelect()
	case p.isKeyword("INSERT"):
		return p.parseInsert()
	case p.isKeyword("UPDATE"):
		return p.parseUpdate()
	case p.isKeyword("DELETE"):
		return p.parseDelete()
	case p.isKeyword("DROP"):
		return p.parseDrop()
	default:
		return nil, p.errf("expected a statement, got %q", p.cur.Val)
	}
}

func (p *Parser) parseCreate() (*Statement, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}

	var cols []ColumnDef
	primary := ""
	for {
		if p.isKeyword("PRIMARY") {
			p.advance()
			if err := p.expectKeyword("KEY"); err != nil {
				return nil, err
			}
			if err := p.expectSymbol("("); err != nil {
				return nil, err
			}
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			primary = name
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
		} else {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			typ, size, err := p.parseTypeName()
			if err != nil {
				return nil, err
			}
			cols = append(cols, ColumnDef{Name: name, Type: typ, Size: size})
		}
		if p.isSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if p.isSymbol(";") {
		p.advance()
	}
	return &Statement{Create: &CreateTable{Table: table, Columns: cols, PrimaryKey: primary}}, nil
}

func (p *Parser) parseTypeName() (ColumnTypeName, int, error) {
	switch {
	case p.isKeyword("INT"):
		p.advance()
		return TypeNameInt, 0, nil
	case p.isKeyword("REAL"):
		p.advance()
		return TypeNameReal, 0, nil
	case p.isKeyword("TEXT"):
		p.advance()
		if err := p.expectSymbol("("); err != nil {
			return 0, 0, err
		}
		if p.cur.Typ != tNumber {
			return 0, 0, p.errf("expected a TEXT size, got %q", p.cur.Val)
		}
		n, err := strconv.ParseInt(p.cur.Val, 10, 32)
		if err != nil {
			return 0, 0, p.errf("invalid TEXT size %q: %v", p.cur.Val, err)
		}
		p.advance()
		if err := p.expectSymbol(")"); err != nil {
			return 0, 0, err
		}
		return TypeNameText, int(n), nil
	default:
		return 0, 0, p.errf("expected a column type, got %q", p.cur.Val)
	}
}

func (p *Parser) parseSelect() (*Statement, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	sel := &Select{}
	if p.isSymbol("*") {
		p.advance()
		sel.Star = true
	} else {
		for {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			sel.Columns = append(sel.Columns, name)
			if p.isSymbol(",") {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	sel.Table = table
	if p.isKeyword("WHERE") {
		p.advance()
		conds, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		sel.Where = conds
	}
	if p.isSymbol(";") {
		p.advance()
	}
	return &Statement{Select: sel}, nil
}

func (p *Parser) parseConditions() ([]Condition, error) {
	var conds []Condition
	for {
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		op, err := p.parseCompareOp()
		if err != nil {
			return nil, err
		}
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		conds = append(conds, Condition{Column: col, Op: op, Value: lit})
		if p.isKeyword("AND") {
			p.advance()
			continue
		}
		break
	}
	return conds, nil
}

func (p *Parser) parseCompareOp() (CompareOp, error) {
	if p.cur.Typ != tSymbol {
		return 0, p.errf("expected a comparison operator, got %q", p.cur.Val)
	}
	switch p.cur.Val {
	case "=":
		p.advance()
		return OpEq, nil
	case "!=":
		p.advance()
		return OpNe, nil
	case ">":
		p.advance()
		return OpGt, nil
	case ">=":
		p.advance()
		return OpGe, nil
	case "<":
		p.advance()
		return OpLt, nil
	case "<=":
		p.advance()
		return OpLe, nil
	default:
		return 0, p.errf("unknown comparison operator %q", p.cur.Val)
	}
}

func (p *Parser) parseLiteral() (Literal, error) {
	switch {
	case p.cur.Typ == tString:
		v := p.cur.Val
		p.advance()
		return Literal{Kind: TypeNameText, Text: v}, nil
	case p.cur.Typ == tNumber:
		v := p.cur.Val
		p.advance()
		return parseNumberLiteral(v)
	case p.isSymbol("-"):
		p.advance()
		if p.cur.Typ != tNumber {
			return Literal{}, p.errf("expected a number after '-', got %q", p.cur.Val)
		}
		v := "-" + p.cur.Val
		p.advance()
		return parseNumberLiteral(v)
	default:
		return Literal{}, p.errf("expected a value, got %q", p.cur.Val)
	}
}

func parseNumberLiteral(s string) (Literal, error) {
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Literal{}, fmt.Errorf("engine: invalid numeric literal %q: %w", s, err)
		}
		return Literal{Kind: TypeNameReal, Real: f}, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return Literal{}, fmt.Errorf("engine: invalid numeric literal %q: %w", s, err)
	}
	return Literal{Kind: TypeNameInt, Int: int32(n)}, nil
}

func (p *Parser) parseInsert() (*Statement, error) {
	if err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	ins := &InsertStmt{Table: table}
	if p.isSymbol("(") {
		p.advance()
		for {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			ins.Columns = append(ins.Columns, name)
			if p.isSymbol(",") {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	for {
		if err := p.expectSymbol("("); err != nil {
			return nil, err
		}
		var row []Literal
		for {
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			row = append(row, lit)
			if p.isSymbol(",") {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		ins.Rows = append(ins.Rows, row)
		if p.isSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if p.isSymbol(";") {
		p.advance()
	}
	return &Statement{Insert: ins}, nil
}

func (p *Parser) parseUpdate() (*Statement, error) {
	if err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	upd := &UpdateStmt{Table: table}
	for {
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("="); err != nil {
			return nil, err
		}
		assign, err := p.parseAssignmentExpr(col)
		if err != nil {
			return nil, err
		}
		upd.Set = append(upd.Set, assign)
		if p.isSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if p.isKeyword("WHERE") {
		p.advance()
		conds, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		upd.Where = conds
	}
	if p.isSymbol(";") {
		p.advance()
	}
	return &Statement{Update: upd}, nil
}

// parseAssignmentExpr parses `<expr> ::= <value> | <col> | <col> (+|-|*|/) <value>`
// for a SET clause's right-hand side, given the already-consumed `<col> =`.
func (p *Parser) parseAssignmentExpr(target string) (Assignment, error) {
	if p.cur.Typ == tIdent {
		source := p.cur.Val
		p.advance()
		if op, ok := p.peekArithOp(); ok {
			p.advance()
			value, err := p.parseLiteral()
			if err != nil {
				return Assignment{}, err
			}
			return Assignment{Column: target, Kind: AssignArith, SourceColumn: source, Op: op, Value: value}, nil
		}
		return Assignment{Column: target, Kind: AssignCopyColumn, SourceColumn: source}, nil
	}
	value, err := p.parseLiteral()
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{Column: target, Kind: AssignLiteral, Value: value}, nil
}

func (p *Parser) peekArithOp() (ArithOp, bool) {
	if p.cur.Typ != tSymbol {
		return 0, false
	}
	switch p.cur.Val {
	case "+":
		return ArithAdd, true
	case "-":
		return ArithSub, true
	case "*":
		return ArithMul, true
	case "/":
		return ArithDiv, true
	default:
		return 0, false
	}
}

func (p *Parser) parseDelete() (*Statement, error) {
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	del := &DeleteStmt{Table: table}
	if p.isKeyword("WHERE") {
		p.advance()
		conds, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		del.Where = conds
	}
	if p.isSymbol(";") {
		p.advance()
	}
	return &Statement{Delete: del}, nil
}

func (p *Parser) parseDrop() (*Statement, error) {
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if p.isSymbol(";") {
		p.advance()
	}
	return &Statement{Drop: &DropTable{Table: table}}, nil
}
