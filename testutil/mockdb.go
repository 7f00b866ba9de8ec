package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const catalogTableSQL = `
CREATE TABLE IF NOT EXISTS catalog (
	kind     TEXT NOT NULL,
	id       TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	value    TEXT NOT NULL,
	PRIMARY KEY (kind, id)
)`

// CatalogRow is a row inserted by the fixtures
type CatalogRow struct {
	Kind     string
	ID       string
	Position int
	Value    string
}

// SampleCatalogRows is a small valid catalog: two personas, two models and defaults
var SampleCatalogRows = []CatalogRow{
	{Kind: "persona", ID: "teaching", Position: 0, Value: `{"label":"Teaching Expert","system_prompt":"You are a master educator."}`},
	{Kind: "persona", ID: "custom", Position: 1, Value: `{"label":"Custom","system_prompt":"You are a helpful assistant.","custom":true}`},
	{Kind: "model", ID: "small", Position: 0, Value: `{"label":"Small","max_context_tokens":8192,"provider":"Test"}`},
	{Kind: "model", ID: "large", Position: 1, Value: `{"label":"Large","max_context_tokens":131072,"provider":"Test"}`},
	{Kind: "default", ID: "persona", Value: "teaching"},
	{Kind: "default", ID: "model", Value: "large"},
}

// CreateInMemoryDB creates an in-memory SQLite database with an empty catalog table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// every pooled connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(catalogTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create catalog table: %v", err)
	}

	return db
}

// CreateTestDB creates an in-memory database holding SampleCatalogRows
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)
	InsertCatalogRows(t, db, SampleCatalogRows...)
	return db
}

// InsertCatalogRows inserts rows into the catalog table
func InsertCatalogRows(t *testing.T, db *sql.DB, rows ...CatalogRow) {
	t.Helper()
	insertSQL := "INSERT OR REPLACE INTO catalog (kind, id, position, value) VALUES (?, ?, ?, ?)"
	for _, row := range rows {
		if _, err := db.Exec(insertSQL, row.Kind, row.ID, row.Position, row.Value); err != nil {
			t.Fatalf("Failed to insert %s %q: %v", row.Kind, row.ID, err)
		}
	}
}
