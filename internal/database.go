package internal

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// CatalogSchema creates the table a SQLite catalog is read from
const CatalogSchema = `
CREATE TABLE IF NOT EXISTS catalog (
	kind     TEXT NOT NULL,
	id       TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	value    TEXT NOT NULL,
	PRIMARY KEY (kind, id)
)`

// Catalog row kinds
const (
	RowKindPersona = "persona"
	RowKindModel   = "model"
	RowKindDefault = "default"
)

// OpenDatabase opens an existing SQLite database in read-only mode
func OpenDatabase(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// mode=ro is only honored for file: URIs
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

// CreateDatabase opens or creates a SQLite database for writing
func CreateDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// QueryCatalogRows returns all rows of one kind in display order
func QueryCatalogRows(db *sql.DB, kind string) ([]CatalogRow, error) {
	query := "SELECT kind, id, position, value FROM catalog WHERE kind = ? ORDER BY position, id"
	rows, err := db.Query(query, kind)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var result []CatalogRow
	for rows.Next() {
		var row CatalogRow
		if err := rows.Scan(&row.Kind, &row.ID, &row.Position, &row.Value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// CatalogRow is one row of the catalog table
type CatalogRow struct {
	Kind     string
	ID       string
	Position int
	Value    string
}
