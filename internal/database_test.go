package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/persona-chat/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "valid database",
			setup: func(t *testing.T) string {
				dbPath := filepath.Join(testutil.CreateTempDir(t), "catalog.db")
				testutil.CreateSQLiteFixture(t, dbPath)
				return dbPath
			},
			wantErr: false,
		},
		{
			name: "non-existent database",
			setup: func(t *testing.T) string {
				// read-only mode refuses to create the file
				return filepath.Join(testutil.CreateTempDir(t), "nonexistent.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := OpenDatabase(tt.setup(t))
			if (err != nil) != tt.wantErr {
				t.Errorf("OpenDatabase() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if err := db.Ping(); err != nil {
					t.Errorf("Database ping failed: %v", err)
				}
				db.Close()
			}
		})
	}
}

func TestQueryCatalogRows(t *testing.T) {
	db := testutil.CreateTestDB(t)
	defer db.Close()

	tests := []struct {
		name    string
		kind    string
		wantIDs []string
	}{
		{name: "personas in position order", kind: RowKindPersona, wantIDs: []string{"teaching", "custom"}},
		{name: "models in position order", kind: RowKindModel, wantIDs: []string{"small", "large"}},
		{name: "defaults", kind: RowKindDefault, wantIDs: []string{"model", "persona"}},
		{name: "unknown kind", kind: "widget", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := QueryCatalogRows(db, tt.kind)
			if err != nil {
				t.Fatalf("QueryCatalogRows() error = %v", err)
			}
			if len(rows) != len(tt.wantIDs) {
				t.Fatalf("QueryCatalogRows() returned %d rows, want %d", len(rows), len(tt.wantIDs))
			}
			for i, row := range rows {
				if row.ID != tt.wantIDs[i] {
					t.Errorf("row %d ID = %q, want %q", i, row.ID, tt.wantIDs[i])
				}
				if row.Kind != tt.kind {
					t.Errorf("row %d Kind = %q, want %q", i, row.Kind, tt.kind)
				}
			}
		})
	}
}

func TestQueryCatalogRows_MissingTable(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	defer db.Close()

	if _, err := db.Exec("DROP TABLE catalog"); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, err := QueryCatalogRows(db, RowKindPersona); err == nil {
		t.Error("QueryCatalogRows() expected error for missing table")
	}
}

func TestCreateDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := CreateDatabase(path)
	if err != nil {
		t.Fatalf("CreateDatabase() error = %v", err)
	}
	if _, err := db.Exec(CatalogSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	db.Close()

	ro, err := OpenDatabase(path)
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer ro.Close()
	if _, err := ro.Exec("INSERT INTO catalog (kind, id, value) VALUES ('persona', 'x', '{}')"); err == nil {
		t.Error("read-only database accepted a write")
	}
}

func TestLoadCatalog_MissingDatabaseIsNotCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := LoadCatalog(path)
	if err == nil {
		t.Fatal("LoadCatalog() expected error for missing database")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadCatalog() error = %v, want not-exist", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("opening a missing catalog created %s", path)
	}
}
