package storage

import (
	"fmt"

	"github.com/brindledb/brindle/internal/pager"
	"github.com/rs/zerolog"
)

// Database header (§3 "Database file"):
//
//	magic(1) | page_count(4) | first_free_list_block(4) | master_root(4)
const (
	offHdrPageCount     = 1
	offHdrFirstFreeList = 5
	offHdrMasterRoot    = 9
	headerSize          = 13
)

type databaseHeader struct {
	PageCount          uint32
	FirstFreeListBlock pager.PageID
	MasterRoot         pager.PageID
}

func encodeHeader(h databaseHeader) []byte {
	buf := make([]byte, headerSize)
	_ = pager.WriteUint8(buf, 0, uint8(pager.MagicDatabase))
	_ = pager.WriteUint32(buf, offHdrPageCount, h.PageCount)
	_ = pager.WriteUint32(buf, offHdrFirstFreeList, uint32(h.FirstFreeListBlock))
	_ = pager.WriteUint32(buf, offHdrMasterRoot, uint32(h.MasterRoot))
	return buf
}

func decodeHeader(buf []byte) (databaseHeader, error) {
	m, err := pager.ViewUint8(buf, 0)
	if err != nil {
		return databaseHeader{}, err
	}
	if pager.Magic(m) != pager.MagicDatabase {
		return databaseHeader{}, fmt.Errorf("storage: bad database header magic %v", pager.Magic(m))
	}
	pc, err := pager.ViewUint32(buf, offHdrPageCount)
	if err != nil {
		return databaseHeader{}, err
	}
	ffl, err := pager.ViewUint32(buf, offHdrFirstFreeList)
	if err != nil {
		return databaseHeader{}, err
	}
	mr, err := pager.ViewUint32(buf, offHdrMasterRoot)
	if err != nil {
		return databaseHeader{}, err
	}
	return databaseHeader{PageCount: pc, FirstFreeListBlock: pager.PageID(ffl), MasterRoot: pager.PageID(mr)}, nil
}

// OpenConfig configures Open's page size and cache capacity; both default
// to the reference constants named in §6 when left zero.
type OpenConfig struct {
	PageSize int
	Cache    pager.CacheConfig
	Logger   zerolog.Logger
}

// Database (C14) owns one open database file: its header, frame manager
// and catalog. Grounded on the teacher's DB (internal/storage/db.go) for
// the open/close/header lifecycle, narrowed to a single in-process writer
// with no WAL (§1 Non-goals).
type Database struct {
	path string
	fm   *pager.FrameManager
	cat  *Catalog
	log  zerolog.Logger
}

// Open opens path, creating a fresh empty database (header plus an empty
// master table) if it does not yet exist. It registers only the master
// table in the returned catalog; the caller (the engine layer, which alone
// can parse the stored CREATE TABLE text) is responsible for calling
// ScanMaster and RegisterTable to rebuild the rest (§4.13's bootstrap is
// split across these two layers to avoid storage importing the SQL
// engine — see DESIGN.md).
func Open(path string, cfg OpenConfig) (*Database, error) {
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = pager.DefaultPageSize
	}
	log := cfg.Logger

	disk, err := pager.OpenDiskManager(path, headerSize, pageSize, 0)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	fresh := disk.PageCount() == 0
	var hdr databaseHeader
	if fresh {
		hdr = databaseHeader{PageCount: 0, FirstFreeListBlock: pager.NoPage, MasterRoot: pager.NoPage}
		log.Info().Str("path", path).Msg("initializing new database file")
	} else {
		raw, rerr := readHeaderBytes(path)
		if rerr != nil {
			disk.Close()
			return nil, rerr
		}
		hdr, err = decodeHeader(raw)
		if err != nil {
			disk.Close()
			return nil, err
		}
	}

	fm := pager.NewFrameManager(disk, cfg.Cache, hdr.FirstFreeListBlock)

	masterTree, err := pager.NewBTree(fm, MasterSchema().KeyCodec(), MasterSchema().RowSize(), hdr.MasterRoot)
	if err != nil {
		fm.Close()
		return nil, fmt.Errorf("storage: open master table: %w", err)
	}

	cat := NewCatalog()
	cat.Put(&Table{Name: MasterTableName, SQL: "", Schema: MasterSchema(), Tree: masterTree})

	return &Database{path: path, fm: fm, cat: cat, log: log}, nil
}

// readHeaderBytes reads the raw header bytes directly, independent of the
// frame manager (the header lives before page 0, so it is never cached).
func readHeaderBytes(path string) ([]byte, error) {
	f, err := openForHeaderRead(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("storage: reading database header: %w", err)
	}
	return buf, nil
}

// Catalog returns the open catalog.
func (d *Database) Catalog() *Catalog { return d.cat }

// FrameManager returns the frame manager backing every table's B+-tree.
func (d *Database) FrameManager() *pager.FrameManager { return d.fm }

// Path returns the file path this database was opened from, used by the
// root registry (C15) to key open handles by canonical path.
func (d *Database) Path() string { return d.path }

// ScanMaster walks the master table in full and returns every persisted
// table record, in no particular order. Bootstrap (rebuilding typed
// Schemas from the stored CREATE TABLE text) is the caller's job.
func (d *Database) ScanMaster() ([]MasterRow, error) {
	master, ok := d.cat.Get(MasterTableName)
	if !ok {
		return nil, fmt.Errorf("storage: master table missing from catalog")
	}
	cursor := NewCursor(master.Tree, master.Schema)
	cursor.OpenMin()
	var rows []MasterRow
	for {
		ok, err := cursor.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		view, err := cursor.Current()
		if err != nil {
			return nil, err
		}
		row, err := decodeMasterRow(view)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RegisterTable adds an already-opened user table to the catalog and
// inserts its master-table bookkeeping row (§4.14 "after a successful
// CREATE, also insert a row into the master table"). Used both for a
// brand new CREATE TABLE and while replaying ScanMaster on Open.
func (d *Database) RegisterTable(t *Table, persistMasterRow bool) error {
	d.cat.Put(t)
	if !persistMasterRow {
		return nil
	}
	master, _ := d.cat.Get(MasterTableName)
	row, err := NewMasterRow(t.Name, t.SQL, int32(t.Tree.Root()), t.NextRowID)
	if err != nil {
		d.cat.Remove(t.Name)
		return err
	}
	cursor := NewCursor(master.Tree, master.Schema)
	if err := cursor.Insert(row); err != nil {
		d.cat.Remove(t.Name)
		return err
	}
	return nil
}

// DropTable removes a table from the catalog, destroys its B+-tree pages
// and deletes its master-table row (§4.14 "DROP TABLE").
func (d *Database) DropTable(name string) error {
	t, ok := d.cat.Get(name)
	if !ok {
		return ErrNoSuchTable
	}
	if err := t.Tree.Destroy(); err != nil {
		return err
	}
	master, _ := d.cat.Get(MasterTableName)
	key, err := master.Schema.ValueToKey(TextValue(name))
	if err != nil {
		return err
	}
	exists, err := master.Tree.Contains(key)
	if err != nil {
		return err
	}
	if exists {
		if err := master.Tree.Erase(key); err != nil {
			return err
		}
	}
	d.cat.Remove(name)
	return nil
}

// syncMasterRow overwrites an existing user table's persisted root and
// next_rowid in place, without going through the SQL engine: Close() uses
// this to flush every table's final state into the master table.
func (d *Database) syncMasterRow(t *Table) error {
	master, _ := d.cat.Get(MasterTableName)
	key, err := master.Schema.ValueToKey(TextValue(t.Name))
	if err != nil {
		return err
	}
	cursor := NewCursor(master.Tree, master.Schema)
	cursor.Open(key)
	found, err := cursor.Next()
	if err != nil {
		return err
	}
	if !found {
		return ErrNoSuchTable
	}
	view, err := cursor.Current()
	if err != nil {
		return err
	}
	rootIdx, _ := master.Schema.ColumnIndex(masterColRoot)
	nextIdx, _ := master.Schema.ColumnIndex(masterColNextRowID)
	if err := view.SetField(rootIdx, IntValue(int32(t.Tree.Root()))); err != nil {
		return err
	}
	if err := view.SetField(nextIdx, IntValue(t.NextRowID)); err != nil {
		return err
	}
	return cursor.Close()
}

// Close persists every user table's current root/next_rowid into the
// master table, flushes the cache, writes the header and closes the
// underlying file (§4.13 "Close").
func (d *Database) Close() error {
	for _, t := range d.cat.UserTables() {
		if err := d.syncMasterRow(t); err != nil {
			return fmt.Errorf("storage: closing: syncing master row for %q: %w", t.Name, err)
		}
	}

	master, _ := d.cat.Get(MasterTableName)

	if err := d.fm.FlushAll(); err != nil {
		return err
	}

	hdr := databaseHeader{
		PageCount:          d.fm.PageCount(),
		FirstFreeListBlock: d.fm.FirstFreeListBlock(),
		MasterRoot:         master.Tree.Root(),
	}
	if err := writeHeaderBytes(d.path, encodeHeader(hdr)); err != nil {
		return err
	}
	if err := d.fm.Sync(); err != nil {
		return err
	}
	d.log.Info().Str("path", d.path).Msg("database closed")
	return d.fm.Close()
}
