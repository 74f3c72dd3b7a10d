package testhelper

import (
	"fmt"
	"strings"

	"github.com/brindledb/brindle/internal/storage"
)

// CreateSQL renders the table's CREATE TABLE statement, per §6's grammar:
// every column typed explicitly, TEXT columns carrying a declared width,
// and the primary key named in its own clause.
func (t TableFixture) CreateSQL() string {
	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		switch strings.ToUpper(c.Type) {
		case "TEXT":
			defs = append(defs, fmt.Sprintf("%s TEXT(%d)", c.Name, c.Size))
		default:
			defs = append(defs, fmt.Sprintf("%s %s", c.Name, strings.ToUpper(c.Type)))
		}
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", t.PrimaryKey))
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(defs, ", "))
}

// InsertStatements renders one INSERT per seed row.
func (t TableFixture) InsertStatements() []string {
	stmts := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		vals := make([]string, len(row))
		for i, v := range row {
			vals[i] = literalFor(v)
		}
		stmts = append(stmts, fmt.Sprintf("INSERT INTO %s VALUES (%s)", t.Name, strings.Join(vals, ", ")))
	}
	return stmts
}

// literalFor renders a YAML-decoded scalar as a SQL literal.
func literalFor(v interface{}) string {
	switch x := v.(type) {
	case int:
		return fmt.Sprintf("%d", x)
	case int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return fmt.Sprintf("%g", x)
	case string:
		return fmt.Sprintf(`"%s"`, strings.ReplaceAll(x, `"`, `""`))
	default:
		return fmt.Sprintf(`"%v"`, x)
	}
}

// lowerSlice lowercases every element of in, leaving in untouched.
func lowerSlice(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// valueEqual reports whether a row's typed field matches a YAML-decoded
// expected scalar, tolerating the int/int64/float64 spread yaml.v3 produces
// depending on how a number is written in the fixture.
func valueEqual(actual storage.Value, expected interface{}) bool {
	switch a := actual.(type) {
	case storage.IntValue:
		switch e := expected.(type) {
		case int:
			return int32(a) == int32(e)
		case int64:
			return int32(a) == int32(e)
		case float64:
			return float64(a) == e
		}
	case storage.RealValue:
		switch e := expected.(type) {
		case int:
			return float64(a) == float64(e)
		case int64:
			return float64(a) == float64(e)
		case float64:
			return float64(a) == e
		}
	case storage.TextValue:
		s, ok := expected.(string)
		return ok && string(a) == s
	}
	return false
}
