package storage

import "testing"

func TestNewSchemaOrdersPrimaryColumnFirst(t *testing.T) {
	schema, err := NewSchema([]ColumnDef{
		{Name: "name", Type: TypeText, Size: 8},
		{Name: "id", Type: TypeInt},
	}, "id")
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	if schema.Primary().Name != "id" {
		t.Fatalf("primary column: got %q", schema.Primary().Name)
	}
	if schema.Columns[schema.PrimaryIndex].Offset != 0 {
		t.Errorf("primary column offset: got %d, want 0", schema.Columns[schema.PrimaryIndex].Offset)
	}
	nameIdx, _ := schema.ColumnIndex("name")
	if schema.Columns[nameIdx].Offset != 4 {
		t.Errorf("name column offset: got %d, want 4 (after the 4-byte INT primary)", schema.Columns[nameIdx].Offset)
	}
	if schema.RowSize() != 4+8 {
		t.Errorf("row size: got %d, want 12", schema.RowSize())
	}
}

func TestNewSchemaRejectsUndeclaredPrimary(t *testing.T) {
	_, err := NewSchema([]ColumnDef{{Name: "id", Type: TypeInt}}, "bogus")
	if err == nil {
		t.Fatal("expected an error for an undeclared primary column")
	}
}

func TestNewSchemaRejectsDuplicateNames(t *testing.T) {
	_, err := NewSchema([]ColumnDef{
		{Name: "id", Type: TypeInt},
		{Name: "id", Type: TypeText, Size: 4},
	}, "id")
	if err == nil {
		t.Fatal("expected an error for duplicate column names")
	}
}

func TestSchemaProjectReordersWithoutTouchingStorageOffsets(t *testing.T) {
	schema, err := NewSchema([]ColumnDef{
		{Name: "id", Type: TypeInt},
		{Name: "a", Type: TypeInt},
		{Name: "b", Type: TypeInt},
	}, "id")
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	proj, err := schema.Project([]string{"b", "id"})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if names := proj.Names(); len(names) != 2 || names[0] != "b" || names[1] != "id" {
		t.Fatalf("projected names: got %v", names)
	}
	if proj.RowSize() != 8 {
		t.Errorf("projected row size: got %d, want 8", proj.RowSize())
	}
	if proj.Columns[0].Offset != 0 || proj.Columns[1].Offset != 4 {
		t.Errorf("projected offsets follow the projection's own order, got %+v", proj.Columns)
	}
}

func TestSchemaProjectRejectsUnknownColumn(t *testing.T) {
	schema, err := NewSchema([]ColumnDef{{Name: "id", Type: TypeInt}}, "id")
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	if _, err := schema.Project([]string{"bogus"}); err == nil {
		t.Fatal("expected an error projecting an unknown column")
	}
}
