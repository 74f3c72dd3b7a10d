package testhelper

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/brindledb/brindle"
	"github.com/brindledb/brindle/internal/pager"
)

// TestScenariosYAML drives every scenario in testdata/scenarios.yml
// against a freshly opened database: CREATE and INSERT its tables, run
// its Setup statements, then check each query's rows and columns against
// its Expected block. Modeled on the teacher's TestExamplesYAML, adapted
// to a fixture per independent scenario (each gets its own database)
// rather than one shared database for every query.
func TestScenariosYAML(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios.yml"))
	if err != nil {
		t.Fatalf("LoadScenarios: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatal("scenarios.yml produced no scenarios")
	}

	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.db")
			h, err := brindle.OpenDatabase(path, 0, pager.CacheConfig{})
			if err != nil {
				t.Fatalf("OpenDatabase: %v", err)
			}
			defer h.ReleaseDatabase()

			for _, tbl := range sc.Tables {
				if _, err := h.Exec(tbl.CreateSQL()); err != nil {
					t.Fatalf("creating table %s: %v (sql: %s)", tbl.Name, err, tbl.CreateSQL())
				}
				for _, ins := range tbl.InsertStatements() {
					if _, err := h.Exec(ins); err != nil {
						t.Fatalf("inserting into %s: %v (sql: %s)", tbl.Name, err, ins)
					}
				}
			}
			for _, stmt := range sc.Setup {
				if _, err := h.Exec(stmt); err != nil {
					t.Fatalf("running setup statement %q: %v", stmt, err)
				}
			}

			for _, q := range sc.Queries {
				q := q
				t.Run(q.ID, func(t *testing.T) {
					runQueryCase(t, h, q)
				})
			}
		})
	}
}

func runQueryCase(t *testing.T, h *brindle.Handle, q QueryCase) {
	t.Helper()
	res, err := h.Query(q.SQL)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	gotCols := lowerSlice(res.Schema().Names())
	wantCols := lowerSlice(q.Expected.Columns)
	sortedGot := append([]string(nil), gotCols...)
	sortedWant := append([]string(nil), wantCols...)
	sort.Strings(sortedGot)
	sort.Strings(sortedWant)
	if len(sortedGot) != len(sortedWant) {
		t.Fatalf("columns differ\nexpected: %v\ngot: %v", q.Expected.Columns, gotCols)
	}
	for i := range sortedWant {
		if sortedGot[i] != sortedWant[i] {
			t.Fatalf("columns differ\nexpected: %v\ngot: %v", q.Expected.Columns, gotCols)
		}
	}

	var rowCount int
	for i, want := range q.Expected.Rows {
		ok, err := res.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			t.Fatalf("row %d: expected a row, got none (expected %d rows total)", i, len(q.Expected.Rows))
		}
		rowCount++
		row, err := res.Row()
		if err != nil {
			t.Fatalf("Row: %v", err)
		}
		for col, wantVal := range want {
			idx, ok := row.Schema.ColumnIndex(col)
			if !ok {
				t.Fatalf("row %d: result has no column %q", i, col)
			}
			if !valueEqual(row.Field(idx), wantVal) {
				t.Fatalf("row %d column %q: got %v, want %v", i, col, row.Field(idx), wantVal)
			}
		}
	}
	more, err := res.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if more {
		t.Fatalf("query produced more rows than the %d expected", len(q.Expected.Rows))
	}
	if rowCount != len(q.Expected.Rows) {
		t.Fatalf("row count differs: expected %d, got %d", len(q.Expected.Rows), rowCount)
	}
}
