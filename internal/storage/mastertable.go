package storage

import (
	"fmt"
	"strings"
)

// MasterTableName is the catalog-of-catalogs: a privileged, fixed-schema
// table every database carries, recording every user table's original
// CREATE TABLE text and persisted B+-tree root so the catalog can be
// rebuilt from nothing but the database file (§4.13, §4.14).
//
// Supplemented from original_source/ (the C++ reference's master_table,
// not named anywhere in the distilled spec): that implementation keeps
// exactly this "one row per user table, schema text plus root page"
// design, which is the only way Open() can reconstruct typed schemas
// without a second, separate metadata format.
const MasterTableName = "master_table"

const (
	masterColTableName = "table_name"
	masterColSQL       = "sql"
	masterColRoot      = "root"
	masterColNextRowID = "next_rowid"

	maxTableNameLen = 32
	maxMasterSQLLen = 256
)

// MasterSchema returns the fixed schema of the master table. Its primary
// key is the user table's name, so master-table lookups by name are a
// single B+-tree seek.
func MasterSchema() *Schema {
	schema, err := NewSchema([]ColumnDef{
		{Name: masterColTableName, Type: TypeText, Size: maxTableNameLen},
		{Name: masterColSQL, Type: TypeText, Size: maxMasterSQLLen},
		{Name: masterColRoot, Type: TypeInt},
		{Name: masterColNextRowID, Type: TypeInt},
	}, masterColTableName)
	if err != nil {
		// MasterSchema's columns are fixed and always well-formed; a failure
		// here would mean this package itself is broken, not a user error.
		panic(fmt.Sprintf("storage: invalid master schema: %v", err))
	}
	return schema
}

// MasterRow is a decoded master-table record.
type MasterRow struct {
	TableName string
	SQL       string
	Root      int32
	NextRowID int32
}

// escapeMasterText defangs double quotes in a stored CREATE TABLE
// statement so it round-trips through the master table's own TEXT column
// without breaking the literal it's embedded in.
func escapeMasterText(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}

// NewMasterRow builds the owning Row to insert for a newly created table.
func NewMasterRow(name, sql string, root, nextRowID int32) (*Row, error) {
	if len(name) > maxTableNameLen {
		return nil, fmt.Errorf("storage: table name %q exceeds %d bytes", name, maxTableNameLen)
	}
	sql = escapeMasterText(sql)
	if len(sql) > maxMasterSQLLen {
		return nil, fmt.Errorf("storage: CREATE TABLE text for %q exceeds %d bytes", name, maxMasterSQLLen)
	}
	return NewRow(MasterSchema(), []Value{
		TextValue(name),
		TextValue(sql),
		IntValue(root),
		IntValue(nextRowID),
	})
}

// decodeMasterRow materializes a MasterRow out of a master-table RowView.
func decodeMasterRow(view RowView) (MasterRow, error) {
	name, err := view.FieldByName(masterColTableName)
	if err != nil {
		return MasterRow{}, err
	}
	sql, err := view.FieldByName(masterColSQL)
	if err != nil {
		return MasterRow{}, err
	}
	root, err := view.FieldByName(masterColRoot)
	if err != nil {
		return MasterRow{}, err
	}
	nextRowID, err := view.FieldByName(masterColNextRowID)
	if err != nil {
		return MasterRow{}, err
	}
	return MasterRow{
		TableName: string(name.(TextValue)),
		SQL:       string(sql.(TextValue)),
		Root:      int32(root.(IntValue)),
		NextRowID: int32(nextRowID.(IntValue)),
	}, nil
}
