package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iksnae/persona-chat/internal"
)

var (
	catalogFormat string
	catalogSQLite string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the effective persona and model catalog",
	Long: `Print the effective catalog in the layout --catalog accepts.

The catalog is the built-in one unless --catalog or catalog= in the config points at a
YAML file or SQLite database. Configured defaults are applied.

Examples:
  persona-chat catalog > my-catalog.yaml          # Start a custom catalog
  persona-chat catalog --format json
  persona-chat catalog --sqlite catalog.db        # Seed a SQLite catalog`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, catalog, err := loadSettings()
		if err != nil {
			return err
		}
		internal.LogDebug("Catalog source: %s", catalog.Source)

		if catalogSQLite != "" {
			return writeCatalogDatabase(catalog, catalogSQLite)
		}
		return dumpCatalog(cmd.OutOrStdout(), catalog, catalogFormat)
	},
}

func dumpCatalog(w io.Writer, catalog *internal.Catalog, format string) error {
	def := catalog.Definition()
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(def)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(def)
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", format)
	}
}

func writeCatalogDatabase(catalog *internal.Catalog, path string) error {
	db, err := internal.CreateDatabase(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := internal.WriteCatalog(db, catalog.Definition()); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	internal.PrintSuccess(fmt.Sprintf("Wrote %d persona(s) and %d model(s) to %s",
		catalog.Personas.Len(), catalog.Models.Len(), path))
	return nil
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVar(&catalogFormat, "format", "yaml", "Output format (yaml, json)")
	catalogCmd.Flags().StringVar(&catalogSQLite, "sqlite", "", "Write the catalog to a SQLite database instead of stdout")
}
