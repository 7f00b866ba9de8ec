package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iksnae/persona-chat/internal"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List available personas",
	Long:  `List the personas of the configured catalog in display order. The default persona is marked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, catalog, err := loadSettings()
		if err != nil {
			return err
		}
		displayPersonas(cmd.OutOrStdout(), catalog.Personas, catalog.Personas.Default().ID)
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	Long:  `List the models of the configured catalog with their response-size limits. The default model is marked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, catalog, err := loadSettings()
		if err != nil {
			return err
		}
		displayModels(cmd.OutOrStdout(), catalog.Models, catalog.Models.Default().ID, cfg.TokenHeadroom)
		return nil
	},
}

func marker(id, current string) string {
	if id == current {
		return currentStyle.Render("●")
	}
	return " "
}

func displayPersonas(out io.Writer, personas *internal.PersonaCatalog, current string) {
	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🎭 %d persona(s)", personas.Len())))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, " \t"+titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Length")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 70))

	for _, p := range personas.All() {
		hint := p.ResponseLengthHint
		if p.Custom {
			hint = "custom prompt"
		}
		if hint == "" {
			hint = "—"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", marker(p.ID, current), idStyle.Render(p.ID), p.Label, dimStyle.Render(hint))
	}
	_ = w.Flush()
}

func displayModels(out io.Writer, models *internal.ModelCatalog, current string, headroom int) {
	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("🧠 %d model(s)", models.Len())))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, " \t"+titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Max tokens")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 70))

	for _, m := range models.All() {
		limit := internal.ResponseLimit(m.MaxContextTokens, headroom)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", marker(m.ID, current), idStyle.Render(m.ID), m.DisplayName(), countStyle.Render(formatThousands(limit)))
	}
	_ = w.Flush()
}

var numberPrinter = message.NewPrinter(language.English)

// formatThousands renders n with comma separators, e.g. 131,072
func formatThousands(n int) string {
	return numberPrinter.Sprintf("%d", n)
}

func init() {
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(modelsCmd)
}
