package plan

import "github.com/brindledb/brindle/internal/storage"

import "testing"

func predicateTestSchema(t *testing.T) *storage.Schema {
	t.Helper()
	schema, err := storage.NewSchema([]storage.ColumnDef{
		{Name: "id", Type: storage.TypeInt},
		{Name: "balance", Type: storage.TypeInt},
		{Name: "pending", Type: storage.TypeInt},
		{Name: "label", Type: storage.TypeText, Size: 8},
	}, "id")
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return schema
}

func predicateTestView(t *testing.T, schema *storage.Schema, id, balance, pending int32, label string) storage.RowView {
	t.Helper()
	row, err := storage.NewRow(schema, []storage.Value{
		storage.IntValue(id), storage.IntValue(balance), storage.IntValue(pending), storage.TextValue(label),
	})
	if err != nil {
		t.Fatalf("NewRow: %v", err)
	}
	buf, err := row.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	return storage.WrapMutableRowView(schema, buf, func() {})
}

func TestCompileColumnCompare(t *testing.T) {
	schema := predicateTestSchema(t)
	view := predicateTestView(t, schema, 1, 100, 0, "x")

	pred, err := CompileColumnCompare("balance", OpGt, storage.IntValue(50))
	if err != nil {
		t.Fatalf("CompileColumnCompare: %v", err)
	}
	ok, err := pred(view)
	if err != nil {
		t.Fatalf("pred: %v", err)
	}
	if !ok {
		t.Error("expected balance > 50 to match balance=100")
	}
}

func TestAndShortCircuitsOnFirstFalse(t *testing.T) {
	schema := predicateTestSchema(t)
	view := predicateTestView(t, schema, 1, 100, 0, "x")

	calls := 0
	alwaysFalse := func(storage.RowView) (bool, error) { calls++; return false, nil }
	neverCalled := func(storage.RowView) (bool, error) { calls++; return true, nil }

	ok, err := And([]Predicate{alwaysFalse, neverCalled})(view)
	if err != nil {
		t.Fatalf("And: %v", err)
	}
	if ok {
		t.Error("expected And to reject")
	}
	if calls != 1 {
		t.Errorf("expected short-circuit after the first false predicate, got %d calls", calls)
	}
}

func TestCompileSetLiteral(t *testing.T) {
	schema := predicateTestSchema(t)
	view := predicateTestView(t, schema, 1, 100, 0, "x")

	mod, err := CompileSetLiteral(schema, "label", storage.TextValue("y"))
	if err != nil {
		t.Fatalf("CompileSetLiteral: %v", err)
	}
	if err := mod(view); err != nil {
		t.Fatalf("mod: %v", err)
	}
	got, err := view.FieldByName("label")
	if err != nil || got.(storage.TextValue) != "y" {
		t.Fatalf("label after set: got %v, err %v", got, err)
	}
}

func TestCompileSetColumnCopiesSourceColumn(t *testing.T) {
	schema := predicateTestSchema(t)
	view := predicateTestView(t, schema, 1, 100, 0, "x")

	mod, err := CompileSetColumn(schema, "pending", "balance")
	if err != nil {
		t.Fatalf("CompileSetColumn: %v", err)
	}
	if err := mod(view); err != nil {
		t.Fatalf("mod: %v", err)
	}
	got, err := view.FieldByName("pending")
	if err != nil || got.(storage.IntValue) != 100 {
		t.Fatalf("pending after copy: got %v, err %v", got, err)
	}
}

func TestCompileSetArithReadsSourceBeforeWrite(t *testing.T) {
	schema := predicateTestSchema(t)
	view := predicateTestView(t, schema, 1, 100, 0, "x")

	// pending = balance - 10, leaving balance itself untouched.
	mod, err := CompileSetArith(schema, "pending", "balance", ArithSub, storage.IntValue(10))
	if err != nil {
		t.Fatalf("CompileSetArith: %v", err)
	}
	if err := mod(view); err != nil {
		t.Fatalf("mod: %v", err)
	}
	pending, err := view.FieldByName("pending")
	if err != nil || pending.(storage.IntValue) != 90 {
		t.Fatalf("pending: got %v, err %v", pending, err)
	}
	balance, err := view.FieldByName("balance")
	if err != nil || balance.(storage.IntValue) != 100 {
		t.Fatalf("balance should be unchanged: got %v, err %v", balance, err)
	}
}

func TestCompileSetArithRejectsTextColumn(t *testing.T) {
	schema := predicateTestSchema(t)
	view := predicateTestView(t, schema, 1, 100, 0, "x")

	mod, err := CompileSetArith(schema, "label", "label", ArithAdd, storage.TextValue("z"))
	if err != nil {
		t.Fatalf("CompileSetArith: %v", err)
	}
	if err := mod(view); err == nil {
		t.Fatal("expected arithmetic on a TEXT column to fail")
	}
}
