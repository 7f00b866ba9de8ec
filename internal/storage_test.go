package internal

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/iksnae/persona-chat/testutil"
)

func TestStorage_LoadPersonas(t *testing.T) {
	db := testutil.CreateTestDB(t)
	defer db.Close()

	personas, err := NewStorage(db).LoadPersonas()
	if err != nil {
		t.Fatalf("LoadPersonas() error = %v", err)
	}
	if len(personas) != 2 {
		t.Fatalf("LoadPersonas() returned %d personas, want 2", len(personas))
	}
	if personas[0].ID != "teaching" || personas[0].SystemPrompt != "You are a master educator." {
		t.Errorf("LoadPersonas()[0] = %+v", personas[0])
	}
	if !personas[1].Custom {
		t.Error("custom persona should be flagged Custom")
	}
}

func TestStorage_LoadPersonas_InvalidData(t *testing.T) {
	db := testutil.CreateTestDB(t)
	defer db.Close()

	testutil.InsertCatalogRows(t, db, testutil.CatalogRow{Kind: "persona", ID: "broken", Position: 5, Value: "not valid json"})

	personas, err := NewStorage(db).LoadPersonas()
	if err != nil {
		t.Fatalf("LoadPersonas() error = %v", err)
	}
	for _, p := range personas {
		if p.ID == "broken" {
			t.Error("LoadPersonas() should skip rows that fail to decode")
		}
	}
	if len(personas) != 2 {
		t.Errorf("LoadPersonas() returned %d personas, want 2", len(personas))
	}
}

func TestStorage_LoadModels(t *testing.T) {
	db := testutil.CreateTestDB(t)
	defer db.Close()

	models, err := NewStorage(db).LoadModels()
	if err != nil {
		t.Fatalf("LoadModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("LoadModels() returned %d models, want 2", len(models))
	}
	if models[1].ID != "large" || models[1].MaxContextTokens != 131072 {
		t.Errorf("LoadModels()[1] = %+v", models[1])
	}
}

func TestStorage_LoadDefaults(t *testing.T) {
	db := testutil.CreateTestDB(t)
	defer db.Close()

	persona, model, err := NewStorage(db).LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults() error = %v", err)
	}
	if persona != "teaching" || model != "large" {
		t.Errorf("LoadDefaults() = %q, %q, want teaching, large", persona, model)
	}
}

func TestStorage_LoadCatalog(t *testing.T) {
	tests := []struct {
		name    string
		rows    []testutil.CatalogRow
		wantErr bool
		wantIs  error
	}{
		{
			name: "sample catalog",
			rows: testutil.SampleCatalogRows,
		},
		{
			name:    "no models",
			rows:    testutil.SampleCatalogRows[:2],
			wantErr: true,
		},
		{
			name: "default persona missing",
			rows: append(append([]testutil.CatalogRow{}, testutil.SampleCatalogRows...),
				testutil.CatalogRow{Kind: "default", ID: "persona", Value: "pirate"}),
			wantErr: true,
			wantIs:  ErrUnknownIdentifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.CreateInMemoryDB(t)
			defer db.Close()
			testutil.InsertCatalogRows(t, db, tt.rows...)

			cat, err := NewStorage(db).LoadCatalog("memory")
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadCatalog() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var catErr *CatalogError
				if !errors.As(err, &catErr) {
					t.Errorf("LoadCatalog() error = %v, want *CatalogError", err)
				}
				if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
					t.Errorf("LoadCatalog() error = %v, want %v", err, tt.wantIs)
				}
				return
			}
			if cat.Personas.Default().ID != "teaching" || cat.Models.Default().ID != "large" {
				t.Errorf("defaults = %s/%s", cat.Personas.Default().ID, cat.Models.Default().ID)
			}
			if cat.Source != "memory" {
				t.Errorf("Source = %q, want memory", cat.Source)
			}
		})
	}
}

func TestWriteCatalog_RoundTrip(t *testing.T) {
	builtin, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error = %v", err)
	}

	db := testutil.CreateInMemoryDB(t)
	defer db.Close()

	if err := WriteCatalog(db, builtin.Definition()); err != nil {
		t.Fatalf("WriteCatalog() error = %v", err)
	}

	loaded, err := NewStorage(db).LoadCatalog("memory")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if loaded.Personas.Len() != builtin.Personas.Len() || loaded.Models.Len() != builtin.Models.Len() {
		t.Errorf("round trip sizes = %d/%d, want %d/%d",
			loaded.Personas.Len(), loaded.Models.Len(), builtin.Personas.Len(), builtin.Models.Len())
	}
	for i, p := range builtin.Personas.All() {
		if got := loaded.Personas.All()[i]; got != p {
			t.Errorf("persona %d = %+v, want %+v", i, got, p)
		}
	}
	if loaded.Personas.Default().ID != "teaching" {
		t.Errorf("default persona = %q, want teaching", loaded.Personas.Default().ID)
	}
}

func TestLoadCatalogFromDatabase(t *testing.T) {
	dbPath := filepath.Join(testutil.CreateTempDir(t), "catalog.db")
	testutil.CreateSQLiteFixture(t, dbPath)

	cat, err := LoadCatalogFromDatabase(dbPath)
	if err != nil {
		t.Fatalf("LoadCatalogFromDatabase() error = %v", err)
	}
	if cat.Personas.Len() != 2 || cat.Models.Len() != 2 {
		t.Errorf("loaded %d personas and %d models, want 2 and 2", cat.Personas.Len(), cat.Models.Len())
	}

	if _, err := LoadCatalogFromDatabase(filepath.Join(testutil.CreateTempDir(t), "missing.db")); err == nil {
		t.Error("LoadCatalogFromDatabase() expected error for missing file")
	}
}
