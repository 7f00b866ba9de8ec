package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Storage reads catalog definitions from a SQLite database
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// LoadPersonas loads persona rows. Rows that fail to decode are skipped.
func (s *Storage) LoadPersonas() ([]PersonaDescriptor, error) {
	rows, err := QueryCatalogRows(s.db, RowKindPersona)
	if err != nil {
		return nil, fmt.Errorf("failed to query personas: %w", err)
	}

	personas := make([]PersonaDescriptor, 0, len(rows))
	for _, row := range rows {
		var p PersonaDescriptor
		if err := json.Unmarshal([]byte(row.Value), &p); err != nil {
			LogWarn("Skipping persona %q: %v", row.ID, err)
			continue
		}
		p.ID = row.ID
		personas = append(personas, p)
	}

	return personas, nil
}

// LoadModels loads model rows. Rows that fail to decode are skipped.
func (s *Storage) LoadModels() ([]ModelDescriptor, error) {
	rows, err := QueryCatalogRows(s.db, RowKindModel)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}

	models := make([]ModelDescriptor, 0, len(rows))
	for _, row := range rows {
		var m ModelDescriptor
		if err := json.Unmarshal([]byte(row.Value), &m); err != nil {
			LogWarn("Skipping model %q: %v", row.ID, err)
			continue
		}
		m.ID = row.ID
		models = append(models, m)
	}

	return models, nil
}

// LoadDefaults returns the default persona and model ids, empty when unset
func (s *Storage) LoadDefaults() (persona, model string, err error) {
	rows, err := QueryCatalogRows(s.db, RowKindDefault)
	if err != nil {
		return "", "", fmt.Errorf("failed to query defaults: %w", err)
	}

	for _, row := range rows {
		switch row.ID {
		case RowKindPersona:
			persona = row.Value
		case RowKindModel:
			model = row.Value
		}
	}
	return persona, model, nil
}

// LoadCatalog builds a catalog from the database contents
func (s *Storage) LoadCatalog(source string) (*Catalog, error) {
	personas, err := s.LoadPersonas()
	if err != nil {
		return nil, &CatalogError{Source: source, Op: "read", Err: err}
	}
	models, err := s.LoadModels()
	if err != nil {
		return nil, &CatalogError{Source: source, Op: "read", Err: err}
	}
	defaultPersona, defaultModel, err := s.LoadDefaults()
	if err != nil {
		return nil, &CatalogError{Source: source, Op: "read", Err: err}
	}
	return NewCatalog(source, personas, models, defaultPersona, defaultModel)
}

// LoadCatalogFromDatabase opens a SQLite catalog read-only and loads it
func LoadCatalogFromDatabase(path string) (*Catalog, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &CatalogError{Source: path, Op: "read", Err: err}
	}
	defer db.Close()

	cat, err := NewStorage(db).LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	LogDebug("Loaded catalog from database %s: %d personas, %d models", path, cat.Personas.Len(), cat.Models.Len())
	return cat, nil
}

// WriteCatalog stores a catalog definition into db, creating the table if needed
func WriteCatalog(db *sql.DB, def CatalogDefinition) error {
	if _, err := db.Exec(CatalogSchema); err != nil {
		return fmt.Errorf("failed to create catalog table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO catalog (kind, id, position, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range def.Personas {
		value, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(RowKindPersona, p.ID, i, string(value)); err != nil {
			return fmt.Errorf("failed to insert persona %q: %w", p.ID, err)
		}
	}
	for i, m := range def.Models {
		value, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(RowKindModel, m.ID, i, string(value)); err != nil {
			return fmt.Errorf("failed to insert model %q: %w", m.ID, err)
		}
	}
	if def.DefaultPersona != "" {
		if _, err := stmt.Exec(RowKindDefault, RowKindPersona, 0, def.DefaultPersona); err != nil {
			return err
		}
	}
	if def.DefaultModel != "" {
		if _, err := stmt.Exec(RowKindDefault, RowKindModel, 0, def.DefaultModel); err != nil {
			return err
		}
	}

	return tx.Commit()
}
