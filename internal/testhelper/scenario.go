// Package testhelper loads YAML-described end-to-end scenarios and drives
// them against a real brindle database, comparing query output against an
// expected result block (§8's scripted acceptance scenarios).
//
// Grounded on the teacher's internal/testhelper/examples_test.go, which
// decodes a tests/examples.yml fixture the same way: a map of table
// fixtures plus a list of queries, each carrying its own expected
// columns/rows. The teacher's fixture infers a column's SQL type from the
// shape of its first row and never declares a primary key; this grammar
// has neither luxury (§6 requires an explicit TEXT(n) width and a
// PRIMARY KEY clause on every CREATE TABLE), so ScenarioFile's table
// fixtures declare both explicitly instead of inferring them.
package testhelper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScenarioFile is the top-level shape of a scenario fixture file.
type ScenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario is one independent, freshly-opened database populated from
// Tables and Setup, then exercised by Queries.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Tables      []TableFixture `yaml:"tables"`
	// Setup holds extra statements run after every table is created and
	// loaded, in order, before any query runs (e.g. an UPDATE or DELETE
	// exercising a scenario's starting state).
	Setup   []string    `yaml:"setup"`
	Queries []QueryCase `yaml:"queries"`
}

// TableFixture is one CREATE TABLE plus its seed rows.
type TableFixture struct {
	Name       string          `yaml:"name"`
	Columns    []ColumnFixture `yaml:"columns"`
	PrimaryKey string          `yaml:"primary_key"`
	Rows       [][]interface{} `yaml:"rows"`
}

// ColumnFixture is one declared column; Size is only meaningful for TEXT.
type ColumnFixture struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Size int    `yaml:"size"`
}

// QueryCase is one SELECT plus its expected result set.
type QueryCase struct {
	ID          string         `yaml:"id"`
	Description string         `yaml:"description"`
	SQL         string         `yaml:"sql"`
	Expected    ExpectedResult `yaml:"expected"`
}

// ExpectedResult is a query's expected columns and, in order, rows.
type ExpectedResult struct {
	Columns []string                 `yaml:"columns"`
	Rows    []map[string]interface{} `yaml:"rows"`
}

// LoadScenarios reads and decodes a scenario fixture file.
func LoadScenarios(path string) ([]Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testhelper: reading %s: %w", path, err)
	}
	var f ScenarioFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("testhelper: parsing %s: %w", path, err)
	}
	return f.Scenarios, nil
}
