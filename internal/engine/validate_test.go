package engine

import (
	"strings"
	"testing"

	"github.com/brindledb/brindle/internal/storage"
)

func mustSchema(t *testing.T, cols []storage.ColumnDef, primary string) *storage.Schema {
	t.Helper()
	s, err := storage.NewSchema(cols, primary)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func catalogWithUsers(t *testing.T) *storage.Catalog {
	t.Helper()
	schema := mustSchema(t, []storage.ColumnDef{
		{Name: "id", Type: storage.TypeInt},
		{Name: "name", Type: storage.TypeText, Size: 32},
		{Name: "age", Type: storage.TypeInt},
		{Name: "bonus", Type: storage.TypeInt},
	}, "id")
	cat := storage.NewCatalog()
	cat.Put(&storage.Table{Name: "users", SQL: "CREATE TABLE users (...);", Schema: schema})
	return cat
}

func TestValidateCreateRejectsMissingPrimaryKey(t *testing.T) {
	stmt, err := NewParser(`CREATE TABLE t (id INT);`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, storage.NewCatalog(), "CREATE TABLE t (id INT);", false)
	if err == nil || !strings.Contains(err.Error(), "PRIMARY KEY") {
		t.Fatalf("expected a PRIMARY KEY error, got %v", err)
	}
}

func TestValidateCreateRejectsReservedColumn(t *testing.T) {
	stmt, err := NewParser(`CREATE TABLE t (rowid INT, PRIMARY KEY (rowid));`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, storage.NewCatalog(), "...", false)
	if err == nil || !strings.Contains(err.Error(), "reserved") {
		t.Fatalf("expected a reserved-column error, got %v", err)
	}
}

func TestValidateCreateRejectsDuplicateColumn(t *testing.T) {
	stmt, err := NewParser(`CREATE TABLE t (id INT, id INT, PRIMARY KEY (id));`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, storage.NewCatalog(), "...", false)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected a duplicate-column error, got %v", err)
	}
}

func TestValidateCreateRejectsOversizedRow(t *testing.T) {
	stmt, err := NewParser(`CREATE TABLE t (id INT, blob TEXT(600), PRIMARY KEY (id));`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, storage.NewCatalog(), "...", false)
	if err == nil || !strings.Contains(err.Error(), "row width") {
		t.Fatalf("expected a row-width error, got %v", err)
	}
}

func TestValidateCreateRejectsOversizedTableName(t *testing.T) {
	longName := strings.Repeat("x", 40)
	stmt, err := NewParser(`CREATE TABLE ` + longName + ` (id INT, PRIMARY KEY (id));`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, storage.NewCatalog(), "...", false)
	if err == nil || !strings.Contains(err.Error(), "table name") {
		t.Fatalf("expected a table-name error, got %v", err)
	}
}

func TestValidateCreateRejectsMasterTableName(t *testing.T) {
	stmt, err := NewParser(`CREATE TABLE master_table (id INT, PRIMARY KEY (id));`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, storage.NewCatalog(), "...", false)
	if err == nil || !strings.Contains(err.Error(), "not permitted") {
		t.Fatalf("expected a master-table-protection error, got %v", err)
	}
}

func TestValidateCreateOK(t *testing.T) {
	stmt, err := NewParser(`CREATE TABLE t (id INT, name TEXT(16), PRIMARY KEY (id));`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vq, err := Validate(stmt, storage.NewCatalog(), "CREATE TABLE t (...);", false)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if vq.Create == nil || vq.Create.Name != "t" {
		t.Fatalf("got %+v", vq.Create)
	}
	if vq.Create.Schema.RowSize() != 4+16 {
		t.Errorf("row size: got %d", vq.Create.Schema.RowSize())
	}
}

func TestValidateSelectRejectsUnknownColumn(t *testing.T) {
	cat := catalogWithUsers(t)
	stmt, err := NewParser(`SELECT bogus FROM users;`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, cat, "...", false)
	if err == nil || !strings.Contains(err.Error(), "unknown column") {
		t.Fatalf("expected unknown-column error, got %v", err)
	}
}

func TestValidateSelectProjectsResultSchema(t *testing.T) {
	cat := catalogWithUsers(t)
	stmt, err := NewParser(`SELECT name, id FROM users;`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vq, err := Validate(stmt, cat, "...", false)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	names := vq.Select.ResultSchema.Names()
	if len(names) != 2 || names[0] != "name" || names[1] != "id" {
		t.Fatalf("result schema names: got %v", names)
	}
}

func TestValidateSelectAgainstMasterTableForbidden(t *testing.T) {
	cat := storage.NewCatalog()
	cat.Put(&storage.Table{Name: storage.MasterTableName, Schema: storage.MasterSchema()})
	stmt, err := NewParser(`SELECT * FROM master_table;`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, cat, "...", false)
	if err == nil || !strings.Contains(err.Error(), "not permitted") {
		t.Fatalf("expected a master-table-protection error, got %v", err)
	}
	if _, err := Validate(stmt, cat, "...", true); err != nil {
		t.Fatalf("expected allowMaster=true to bypass the guard, got %v", err)
	}
}

func TestValidateUpdateRejectsArithmeticOnText(t *testing.T) {
	cat := catalogWithUsers(t)
	stmt, err := NewParser(`UPDATE users SET name = name + 1;`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, cat, "...", false)
	if err == nil || !strings.Contains(err.Error(), "arithmetic") {
		t.Fatalf("expected an arithmetic-on-TEXT error, got %v", err)
	}
}

func TestValidateUpdateRejectsMismatchedColumnCopy(t *testing.T) {
	cat := catalogWithUsers(t)
	stmt, err := NewParser(`UPDATE users SET name = id;`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, cat, "...", false)
	if err == nil || !strings.Contains(err.Error(), "different types") {
		t.Fatalf("expected a type-mismatch error, got %v", err)
	}
}

func TestValidateUpdateAcceptsArithAndColumnCopy(t *testing.T) {
	cat := catalogWithUsers(t)
	stmt, err := NewParser(`UPDATE users SET age = age + 1, bonus = age WHERE id = 1;`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vq, err := Validate(stmt, cat, "...", false)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	set := vq.Update.Set
	if set[0].Kind != AssignArith || set[0].SourceColumn != "age" {
		t.Errorf("assignment 0: got %+v", set[0])
	}
	if set[1].Kind != AssignCopyColumn || set[1].SourceColumn != "age" {
		t.Errorf("assignment 1: got %+v", set[1])
	}
}

func TestValidateInsertRejectsWrongColumnCount(t *testing.T) {
	cat := catalogWithUsers(t)
	stmt, err := NewParser(`INSERT INTO users VALUES (1, "a");`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, cat, "...", false)
	if err == nil || !strings.Contains(err.Error(), "expected") {
		t.Fatalf("expected a value-count error, got %v", err)
	}
}

func TestValidateDropUnknownTable(t *testing.T) {
	stmt, err := NewParser(`DROP TABLE nope;`).ParseStatement()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Validate(stmt, storage.NewCatalog(), "...", false)
	if err == nil || !strings.Contains(err.Error(), "no such table") {
		t.Fatalf("expected a no-such-table error, got %v", err)
	}
}
