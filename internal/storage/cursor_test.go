package storage

import (
	"path/filepath"
	"testing"

	"github.com/brindledb/brindle/internal/pager"
)

func openCursorTestTree(t *testing.T) (*Schema, *pager.BTree) {
	t.Helper()
	schema, err := NewSchema([]ColumnDef{
		{Name: "id", Type: TypeInt},
		{Name: "label", Type: TypeText, Size: 8},
	}, "id")
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	path := filepath.Join(t.TempDir(), "cursor.db")
	disk, err := pager.OpenDiskManager(path, 0, pager.DefaultPageSize, 0)
	if err != nil {
		t.Fatalf("OpenDiskManager: %v", err)
	}
	t.Cleanup(func() { disk.Close() })
	fm := pager.NewFrameManager(disk, pager.CacheConfig{}, pager.NoPage)
	tree, err := pager.NewBTree(fm, schema.KeyCodec(), schema.RowSize(), pager.NoPage)
	if err != nil {
		t.Fatalf("NewBTree: %v", err)
	}
	return schema, tree
}

func insertRows(t *testing.T, cursor *Cursor, schema *Schema, ids []int32) {
	t.Helper()
	for _, id := range ids {
		row, err := NewRow(schema, []Value{IntValue(id), TextValue("x")})
		if err != nil {
			t.Fatalf("NewRow: %v", err)
		}
		if err := cursor.Insert(row); err != nil {
			t.Fatalf("Insert(%d): %v", id, err)
		}
	}
}

func TestCursorIteratesInAscendingOrder(t *testing.T) {
	schema, tree := openCursorTestTree(t)
	cursor := NewCursor(tree, schema)
	insertRows(t, cursor, schema, []int32{5, 1, 3, 2, 4})

	cursor.OpenMin()
	var got []int32
	for {
		ok, err := cursor.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		view, err := cursor.Current()
		if err != nil {
			t.Fatalf("Current: %v", err)
		}
		v, err := view.FieldByName("id")
		if err != nil {
			t.Fatalf("FieldByName: %v", err)
		}
		got = append(got, int32(v.(IntValue)))
	}
	want := []int32{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCursorInsertRejectsDuplicateKey(t *testing.T) {
	schema, tree := openCursorTestTree(t)
	cursor := NewCursor(tree, schema)
	insertRows(t, cursor, schema, []int32{1})

	row, err := NewRow(schema, []Value{IntValue(1), TextValue("dup")})
	if err != nil {
		t.Fatalf("NewRow: %v", err)
	}
	if err := cursor.Insert(row); err != ErrDuplicateKey {
		t.Fatalf("Insert of a duplicate key: got %v, want ErrDuplicateKey", err)
	}
}

func TestCursorOpenAtOriginSkipsLowerKeys(t *testing.T) {
	schema, tree := openCursorTestTree(t)
	cursor := NewCursor(tree, schema)
	insertRows(t, cursor, schema, []int32{1, 2, 3, 4, 5})

	origin, err := schema.ValueToKey(IntValue(3))
	if err != nil {
		t.Fatalf("ValueToKey: %v", err)
	}
	cursor.Open(origin)
	var got []int32
	for {
		ok, err := cursor.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		view, err := cursor.Current()
		if err != nil {
			t.Fatalf("Current: %v", err)
		}
		v, _ := view.FieldByName("id")
		got = append(got, int32(v.(IntValue)))
	}
	want := []int32{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCursorEraseVisitsEverySurvivingRowExactlyOnce(t *testing.T) {
	schema, tree := openCursorTestTree(t)
	cursor := NewCursor(tree, schema)
	insertRows(t, cursor, schema, []int32{1, 2, 3, 4, 5})

	cursor.OpenMin()
	var visited []int32
	for {
		ok, err := cursor.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		view, err := cursor.Current()
		if err != nil {
			t.Fatalf("Current: %v", err)
		}
		v, _ := view.FieldByName("id")
		id := int32(v.(IntValue))
		visited = append(visited, id)
		if id%2 == 0 {
			if err := cursor.Erase(); err != nil {
				t.Fatalf("Erase(%d): %v", id, err)
			}
		}
	}
	want := []int32{1, 2, 3, 4, 5}
	if len(visited) != len(want) {
		t.Fatalf("got %v, want every row visited exactly once: %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("got %v, want %v", visited, want)
		}
	}

	remaining := NewCursor(tree, schema)
	remaining.OpenMin()
	var left []int32
	for {
		ok, err := remaining.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		view, _ := remaining.Current()
		v, _ := view.FieldByName("id")
		left = append(left, int32(v.(IntValue)))
	}
	wantLeft := []int32{1, 3, 5}
	if len(left) != len(wantLeft) {
		t.Fatalf("remaining rows: got %v, want %v", left, wantLeft)
	}
	for i := range wantLeft {
		if left[i] != wantLeft[i] {
			t.Fatalf("remaining rows: got %v, want %v", left, wantLeft)
		}
	}
}
