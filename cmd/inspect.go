package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iksnae/persona-chat/internal"
)

var inspectSampleRows int

// inspectCmd represents the catalog inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <database-path>",
	Short: "Inspect a SQLite catalog database",
	Long: `Inspect the schema and contents of a SQLite catalog database.

This command provides detailed information about:
  • Database schema (tables, columns, types)
  • Sample rows from each table
  • Row counts per table
  • Whether the catalog loads and which defaults it declares

Examples:
  persona-chat catalog inspect catalog.db
  persona-chat catalog inspect catalog.db --sample 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspectDatabase(cmd.OutOrStdout(), args[0])
	},
}

func inspectDatabase(out io.Writer, dbPath string) error {
	db, err := internal.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	tables, err := getTables(db)
	if err != nil {
		return fmt.Errorf("failed to get tables: %w", err)
	}

	if len(tables) == 0 {
		_, _ = fmt.Fprintln(out, "⚠️  No tables found in database")
		return nil
	}

	_, _ = fmt.Fprintf(out, "📋 Database: %s\n", dbPath)
	_, _ = fmt.Fprintf(out, "📊 Found %d table(s)\n\n", len(tables))

	for _, tableName := range tables {
		if err := inspectTable(out, db, tableName); err != nil {
			_, _ = fmt.Fprintf(out, "⚠️  Error inspecting table %s: %v\n", tableName, err)
			continue
		}
		_, _ = fmt.Fprintln(out)
	}

	cat, err := internal.NewStorage(db).LoadCatalog(dbPath)
	if err != nil {
		_, _ = fmt.Fprintf(out, "❌ Not a usable catalog: %v\n", err)
		return nil
	}
	_, _ = fmt.Fprintf(out, "✅ Catalog loads: %d persona(s), %d model(s), defaults %s / %s\n",
		cat.Personas.Len(), cat.Models.Len(), cat.Personas.Default().ID, cat.Models.Default().ID)
	return nil
}

func getTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func inspectTable(out io.Writer, db *sql.DB, tableName string) error {
	_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	_, _ = fmt.Fprintf(out, "📦 Table: %s\n", tableName)
	_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

	var rowCount int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", tableName)).Scan(&rowCount); err != nil {
		return fmt.Errorf("failed to get row count: %w", err)
	}
	_, _ = fmt.Fprintf(out, "📊 Rows: %d\n\n", rowCount)

	columns, err := getTableSchema(db, tableName)
	if err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}

	_, _ = fmt.Fprintf(out, "📐 Schema:\n")
	for _, col := range columns {
		pk := ""
		if col.PrimaryKey {
			pk = " [PRIMARY KEY]"
		}
		notNull := ""
		if col.NotNull {
			notNull = " NOT NULL"
		}
		_, _ = fmt.Fprintf(out, "  • %s: %s%s%s\n", col.Name, col.Type, notNull, pk)
	}
	_, _ = fmt.Fprintln(out)

	if rowCount > 0 && inspectSampleRows > 0 {
		if err := showSampleData(out, db, tableName, columns, inspectSampleRows); err != nil {
			_, _ = fmt.Fprintf(out, "⚠️  Error showing sample data: %v\n", err)
		}
	}

	return nil
}

type ColumnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

func getTableSchema(db *sql.DB, tableName string) ([]ColumnInfo, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var cid int
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			continue
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func showSampleData(out io.Writer, db *sql.DB, tableName string, columns []ColumnInfo, limit int) error {
	if len(columns) == 0 {
		return nil
	}

	colNames := make([]string, len(columns))
	for i, col := range columns {
		colNames[i] = fmt.Sprintf("%q", col.Name)
	}

	query := fmt.Sprintf("SELECT %s FROM %q LIMIT %d", strings.Join(colNames, ", "), tableName, limit)
	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	_, _ = fmt.Fprintf(out, "📄 Sample Data (first %d rows):\n", limit)
	rowNum := 0
	for rows.Next() {
		rowNum++
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			_, _ = fmt.Fprintf(out, "  ⚠️  Row %d: error scanning: %v\n", rowNum, err)
			continue
		}

		_, _ = fmt.Fprintf(out, "\n  Row %d:\n", rowNum)
		for i, col := range columns {
			_, _ = fmt.Fprintf(out, "    %s: %s\n", col.Name, formatCell(tableName, col.Name, values[i]))
		}
	}

	return rows.Err()
}

// formatCell shortens a value for display. Catalog descriptors are JSON and
// are shown by label rather than in full.
func formatCell(tableName, column string, val interface{}) string {
	if val == nil {
		return "<NULL>"
	}
	var valStr string
	switch v := val.(type) {
	case []byte:
		valStr = string(v)
	default:
		valStr = fmt.Sprintf("%v", v)
	}

	if tableName == "catalog" && column == "value" && strings.HasPrefix(valStr, "{") {
		var desc struct {
			Label string `json:"label"`
		}
		if json.Unmarshal([]byte(valStr), &desc) == nil && desc.Label != "" {
			return fmt.Sprintf("{label: %s, %d bytes}", desc.Label, len(valStr))
		}
	}

	if len(valStr) > 200 {
		valStr = valStr[:200] + "..."
	}
	if strings.Contains(valStr, "\n") {
		valStr = strings.Split(valStr, "\n")[0] + "..."
	}
	return valStr
}

func init() {
	catalogCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of sample rows to show")
}
