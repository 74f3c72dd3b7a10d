package plan

import (
	"path/filepath"
	"testing"

	"github.com/brindledb/brindle/internal/engine"
	"github.com/brindledb/brindle/internal/storage"
)

func openTestTable(t *testing.T) (*storage.Database, *storage.Table) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.db")
	db, err := storage.Open(path, storage.OpenConfig{})
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema, err := storage.NewSchema([]storage.ColumnDef{
		{Name: "id", Type: storage.TypeInt},
		{Name: "label", Type: storage.TypeText, Size: 8},
	}, "id")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	vq := &engine.ValidatedQuery{Create: &engine.ValidatedCreate{Name: "nums", SQL: "CREATE TABLE nums (...);", Schema: schema}}
	it, err := Build(vq, db)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := Drain(it); err != nil {
		t.Fatalf("creating table: %v", err)
	}

	table, ok := db.Catalog().Get("nums")
	if !ok {
		t.Fatal("table not registered after CREATE")
	}

	cursor := storage.NewCursor(table.Tree, table.Schema)
	for i := 1; i <= 5; i++ {
		row, err := storage.NewRow(schema, []storage.Value{storage.IntValue(i), storage.TextValue("x")})
		if err != nil {
			t.Fatalf("row: %v", err)
		}
		if err := cursor.Insert(row); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return db, table
}

func drainValues(t *testing.T, it Iterator, schema *storage.Schema) []int32 {
	t.Helper()
	var out []int32
	for {
		ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		view, err := it.Current()
		if err != nil {
			t.Fatalf("Current: %v", err)
		}
		v, err := view.FieldByName("id")
		if err != nil {
			t.Fatalf("FieldByName: %v", err)
		}
		out = append(out, int32(v.(storage.IntValue)))
	}
	return out
}

func TestBuildScanEqualityAdoptsIndexScan(t *testing.T) {
	_, table := openTestTable(t)
	conds := []engine.ValidatedCondition{
		{Column: "id", Op: engine.OpEq, Value: storage.IntValue(3)},
	}
	it, _, err := buildScan(table, conds)
	if err != nil {
		t.Fatalf("buildScan: %v", err)
	}
	if _, ok := it.(*IndexScan); !ok {
		t.Fatalf("expected an *IndexScan for a primary-column equality, got %T", it)
	}
	got := drainValues(t, it, table.Schema)
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("got %v, want [3]", got)
	}
}

func TestBuildScanRangeFoldsIntoIndexScan(t *testing.T) {
	_, table := openTestTable(t)
	conds := []engine.ValidatedCondition{
		{Column: "id", Op: engine.OpGt, Value: storage.IntValue(1)},
		{Column: "id", Op: engine.OpLe, Value: storage.IntValue(4)},
	}
	it, _, err := buildScan(table, conds)
	if err != nil {
		t.Fatalf("buildScan: %v", err)
	}
	if _, ok := it.(*IndexScan); !ok {
		t.Fatalf("expected an *IndexScan for a range on the primary column, got %T", it)
	}
	got := drainValues(t, it, table.Schema)
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 rows (2,3,4)", got)
	}
}

func TestBuildScanSecondEqualitySpillsToFilter(t *testing.T) {
	_, table := openTestTable(t)
	conds := []engine.ValidatedCondition{
		{Column: "id", Op: engine.OpEq, Value: storage.IntValue(3)},
		{Column: "id", Op: engine.OpEq, Value: storage.IntValue(4)},
	}
	it, _, err := buildScan(table, conds)
	if err != nil {
		t.Fatalf("buildScan: %v", err)
	}
	if _, ok := it.(*Filter); !ok {
		t.Fatalf("expected the second equality to spill into a *Filter, got %T", it)
	}
	got := drainValues(t, it, table.Schema)
	if len(got) != 0 {
		t.Fatalf("id=3 AND id=4 can never match, got %v", got)
	}
}

func TestBuildScanNotEqualAlwaysFilters(t *testing.T) {
	_, table := openTestTable(t)
	conds := []engine.ValidatedCondition{
		{Column: "id", Op: engine.OpNe, Value: storage.IntValue(3)},
	}
	it, _, err := buildScan(table, conds)
	if err != nil {
		t.Fatalf("buildScan: %v", err)
	}
	if _, ok := it.(*Filter); !ok {
		t.Fatalf("expected != on the primary column to stay a table scan wrapped in a *Filter, got %T", it)
	}
	got := drainValues(t, it, table.Schema)
	if len(got) != 4 {
		t.Fatalf("got %v, want every id except 3", got)
	}
}

func TestBuildScanNoConditionsIsTableScan(t *testing.T) {
	_, table := openTestTable(t)
	it, _, err := buildScan(table, nil)
	if err != nil {
		t.Fatalf("buildScan: %v", err)
	}
	if _, ok := it.(*TableScan); !ok {
		t.Fatalf("expected a bare *TableScan with no conditions, got %T", it)
	}
	got := drainValues(t, it, table.Schema)
	if len(got) != 5 {
		t.Fatalf("got %v, want all 5 rows", got)
	}
}
