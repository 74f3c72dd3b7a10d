// Package brindle is the engine + database handle layer (C15): a
// process-global registry of open databases keyed by canonical path,
// reference-counted handles, and the exec/query entry points every other
// package sits behind (§4.14).
//
// Grounded on the teacher's top-level package (tinySQL's DB/open/close
// lifecycle), adapted to this spec's single-shared-database-per-path
// registry rather than the teacher's one-DB-per-process model.
package brindle

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/brindledb/brindle/internal/engine"
	"github.com/brindledb/brindle/internal/pager"
	"github.com/brindledb/brindle/internal/plan"
	"github.com/brindledb/brindle/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type sharedDatabase struct {
	db      *storage.Database
	handles int
}

var (
	registryMu sync.Mutex
	registry   = map[string]*sharedDatabase{}
)

// Handle is a caller-facing reference to an open database (§4.14
// "open_database returns a handle"). Its zero value is not usable; build
// one with OpenDatabase. ID correlates this handle's log lines across a
// session, adapted from the teacher's uuid_helpers.go.
type Handle struct {
	ID   uuid.UUID
	path string
}

// OpenDatabase opens path, reusing and bumping the handle count of an
// already-open shared database for the same canonical path (§4.14
// "open_database(path)... if the database is already open, reuses the
// existing one and bumps its handle count"). pageSize of 0 and a zero
// CacheConfig both fall back to the compile-time defaults named in §6.
func OpenDatabase(path string, pageSize int, cache pager.CacheConfig) (*Handle, error) {
	canon, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("brindle: resolving path %q: %w", path, err)
	}
	id := uuid.New()

	registryMu.Lock()
	defer registryMu.Unlock()

	if shared, ok := registry[canon]; ok {
		shared.handles++
		log.Info().Str("path", canon).Str("handle", id.String()).Int("handle_count", shared.handles).
			Msg("reusing open database")
		return &Handle{ID: id, path: canon}, nil
	}

	cfg := storage.OpenConfig{PageSize: pageSize, Cache: cache, Logger: log.Logger}
	db, err := storage.Open(canon, cfg)
	if err != nil {
		return nil, err
	}
	if err := bootstrapCatalog(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("brindle: rebuilding catalog for %q: %w", canon, err)
	}

	registry[canon] = &sharedDatabase{db: db, handles: 1}
	log.Info().Str("path", canon).Str("handle", id.String()).Msg("opened database")
	return &Handle{ID: id, path: canon}, nil
}

// ReleaseDatabase drops this handle; when it was the last outstanding
// handle on its database, runs the close sequence and removes the
// registry entry (§4.14 "release_database... if it was the last handle,
// performs the close sequence and removes the entry").
func (h *Handle) ReleaseDatabase() error {
	registryMu.Lock()
	defer registryMu.Unlock()

	shared, ok := registry[h.path]
	if !ok {
		return fmt.Errorf("brindle: database %q is not open", h.path)
	}
	shared.handles--
	if shared.handles > 0 {
		return nil
	}
	delete(registry, h.path)
	return shared.db.Close()
}

func (h *Handle) database() (*storage.Database, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	shared, ok := registry[h.path]
	if !ok {
		return nil, fmt.Errorf("brindle: database %q is not open", h.path)
	}
	return shared.db, nil
}

// bootstrapCatalog re-derives every user table's typed Schema from its
// persisted CREATE TABLE text (§4.13 "run a SELECT * over the master
// table; for each row add the corresponding user table"). This is the one
// piece of catalog bootstrap that needs SQL parsing, which is why it
// lives here rather than in internal/storage (storage must not import
// internal/engine — see DESIGN.md).
func bootstrapCatalog(db *storage.Database) error {
	rows, err := db.ScanMaster()
	if err != nil {
		return err
	}
	for _, row := range rows {
		stmt, err := engine.NewParser(row.SQL).ParseStatement()
		if err != nil {
			return fmt.Errorf("parsing stored schema for %q: %w", row.TableName, err)
		}
		if stmt.Create == nil {
			return fmt.Errorf("master row %q did not store a CREATE TABLE statement", row.TableName)
		}
		schema, err := engine.SchemaFromCreate(stmt.Create)
		if err != nil {
			return fmt.Errorf("rebuilding schema for %q: %w", row.TableName, err)
		}
		tree, err := pager.NewBTree(db.FrameManager(), schema.KeyCodec(), schema.RowSize(), pager.PageID(row.Root))
		if err != nil {
			return fmt.Errorf("reopening B+-tree for %q: %w", row.TableName, err)
		}
		table := &storage.Table{
			Name:      row.TableName,
			SQL:       row.SQL,
			Schema:    schema,
			Tree:      tree,
			NextRowID: row.NextRowID,
		}
		if err := db.RegisterTable(table, false); err != nil {
			return err
		}
	}
	return nil
}

// Exec runs a non-SELECT statement to completion and returns its
// affected-row count (§4.14 "parse → validate → plan → drain the
// iterator"). The master-table bookkeeping for CREATE/DROP is already
// folded into plan.Create/plan.Drop's privileged write path, so no extra
// step is needed here beyond the ordinary drain.
func (h *Handle) Exec(sql string) (int, error) {
	db, err := h.database()
	if err != nil {
		return 0, err
	}
	vq, err := parseAndValidate(sql, db, false)
	if err != nil {
		return 0, err
	}
	it, err := plan.Build(vq, db)
	if err != nil {
		return 0, err
	}
	return plan.Drain(it)
}

// Query runs a SELECT and returns a Result wrapping its plan iterator
// (§4.14 "query(sql, db): parse → validate → plan; wrap the plan in a
// result-set object that exposes iteration and row materialization").
func (h *Handle) Query(sql string) (*Result, error) {
	db, err := h.database()
	if err != nil {
		return nil, err
	}
	vq, err := parseAndValidate(sql, db, false)
	if err != nil {
		return nil, err
	}
	if vq.Select == nil {
		return nil, fmt.Errorf("brindle: Query expects a SELECT statement")
	}
	it, err := plan.Build(vq, db)
	if err != nil {
		return nil, err
	}
	return newResult(it, vq.Select.ResultSchema), nil
}

// parseAndValidate runs one statement through the parser and validator.
// allowMaster is the validator's master-table-protection flag (§4.14);
// user-facing Exec/Query always pass false.
func parseAndValidate(sql string, db *storage.Database, allowMaster bool) (*engine.ValidatedQuery, error) {
	stmt, err := engine.NewParser(sql).ParseStatement()
	if err != nil {
		return nil, err
	}
	return engine.Validate(stmt, db.Catalog(), sql, allowMaster)
}

// TableNames lists every user table in the catalog, sorted (an
// introspection helper for shells and tooling; ordinary SQL access to
// master_table itself stays forbidden per §6's master-table protection).
func (h *Handle) TableNames() ([]string, error) {
	db, err := h.database()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(db.Catalog().UserTables()))
	for _, t := range db.Catalog().UserTables() {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names, nil
}

// TableSQL returns the original CREATE TABLE text for name, as persisted
// in the master table.
func (h *Handle) TableSQL(name string) (string, error) {
	db, err := h.database()
	if err != nil {
		return "", err
	}
	t, ok := db.Catalog().Get(name)
	if !ok {
		return "", fmt.Errorf("brindle: no such table %q", name)
	}
	return t.SQL, nil
}

// ExecScript runs every `;`-terminated statement in script in order,
// stopping at the first failure (§5 "no partial-statement rollback: a
// failure partway through... leaves the tree in a consistent but
// partially updated state" — so a failing statement simply stops the
// script, it does not undo prior statements).
func (h *Handle) ExecScript(script string) ([]int, error) {
	var counts []int
	for _, stmtText := range engine.SplitStatements(script) {
		n, err := h.Exec(stmtText)
		if err != nil {
			return counts, fmt.Errorf("brindle: executing %q: %w", stmtText, err)
		}
		counts = append(counts, n)
	}
	return counts, nil
}
