package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SampleCatalogYAML mirrors SampleCatalogRows in YAML form
const SampleCatalogYAML = `default_persona: teaching
default_model: large
personas:
  - id: teaching
    label: Teaching Expert
    system_prompt: You are a master educator.
  - id: custom
    label: Custom
    system_prompt: You are a helpful assistant.
    custom: true
models:
  - id: small
    label: Small
    max_context_tokens: 8192
    provider: Test
  - id: large
    label: Large
    max_context_tokens: 131072
    provider: Test
`

// CreateSQLiteFixture creates a SQLite catalog database file holding SampleCatalogRows
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(catalogTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	InsertCatalogRows(t, db, SampleCatalogRows...)
}

// CreateFileFixture writes content to name inside dir and returns the full path
func CreateFileFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", path, err)
	}
	return path
}

// CreateCatalogYAMLFixture writes SampleCatalogYAML into dir and returns its path
func CreateCatalogYAMLFixture(t *testing.T, dir string) string {
	t.Helper()
	return CreateFileFixture(t, dir, "catalog.yaml", SampleCatalogYAML)
}
