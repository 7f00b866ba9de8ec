package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/iksnae/persona-chat/internal"
	"github.com/iksnae/persona-chat/internal/gateway"
)

const healthcheckTimeout = 15 * time.Second

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, catalog and connectivity",
	Long: `Check the health of persona-chat by verifying:
  • Configuration file and environment
  • API key presence
  • Catalog loading and default persona and model
  • Reachability of the completion service

Use --verbose for details such as the models the service offers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHealthcheck(cmd.Context(), cmd.OutOrStdout())
	},
}

func runHealthcheck(ctx context.Context, out io.Writer) error {
	say := func(a ...any) { _, _ = fmt.Fprintln(out, a...) }
	sayf := func(format string, a ...any) { _, _ = fmt.Fprintf(out, format, a...) }

	say(sectionStyle.Render("🔍 persona-chat Health Check"))
	say()

	// Step 1: configuration
	say(infoStyle.Render("Step 1: Loading configuration..."))
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		say(errorStyle.Render("❌ Configuration invalid:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	if catalogPath != "" {
		cfg.Catalog = catalogPath
	}
	if cfg.Path != "" {
		say(successStyle.Render("✅ Configuration loaded from " + cfg.Path))
	} else {
		say(successStyle.Render("✅ Using built-in defaults"))
	}
	if verbose {
		sayf("   Base URL: %s\n", cfg.BaseURL)
		sayf("   Request timeout: %s\n", cfg.RequestTimeout)
		sayf("   Requests per minute: %d\n", cfg.RequestsPerMinute)
		sayf("   Token headroom: %d\n", cfg.TokenHeadroom)
	}
	say()

	// Step 2: API key
	say(infoStyle.Render("Step 2: Checking API key..."))
	hasKey := cfg.APIKey != ""
	if hasKey {
		say(successStyle.Render("✅ API key configured"))
	} else {
		say(warningStyle.Render("⚠️  No API key (set GROQ_API_KEY or api_key)"))
	}
	say()

	// Step 3: catalog
	say(infoStyle.Render("Step 3: Loading catalog..."))
	catalog, err := cfg.LoadConfiguredCatalog()
	if err != nil {
		say(errorStyle.Render("❌ Catalog failed to load:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	say(successStyle.Render(fmt.Sprintf("✅ %d persona(s) and %d model(s) from %s",
		catalog.Personas.Len(), catalog.Models.Len(), catalog.Source)))
	sayf("   Default persona: %s\n", catalog.Personas.Default().Label)
	sayf("   Default model: %s\n", catalog.Models.Default().DisplayName())
	say()

	// Step 4: connectivity
	say(infoStyle.Render("Step 4: Contacting completion service..."))
	reachable := false
	if !hasKey {
		say(warningStyle.Render("⚠️  Skipped: no API key"))
	} else {
		client := gateway.FromConfig(cfg)
		probeCtx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
		defer cancel()

		var remote []string
		err := internal.ShowProgress(probeCtx, "GET "+cfg.BaseURL+"/models", func() error {
			var err error
			remote, err = client.Models(probeCtx)
			return err
		})
		if err != nil {
			say(errorStyle.Render("❌ Service unreachable:"), err)
		} else {
			reachable = true
			say(successStyle.Render(fmt.Sprintf("✅ Service reachable, %d model(s) offered", len(remote))))
			for _, m := range catalog.Models.All() {
				if !slices.Contains(remote, m.ID) {
					say(warningStyle.Render(fmt.Sprintf("⚠️  Catalog model %s is not offered by the service", m.ID)))
				}
			}
			if verbose {
				for _, id := range remote {
					sayf("   • %s\n", id)
				}
			}
		}
	}
	say()

	// Summary
	say(sectionStyle.Render("📊 Summary"))
	say()
	switch {
	case reachable:
		say(successStyle.Render("✅ Health check passed!"))
		return nil
	case !hasKey:
		say(warningStyle.Render("⚠️  Configuration is valid but no API key is set"))
		say("   • Offline use is possible with --mock")
		return nil
	default:
		say(errorStyle.Render("❌ Health check failed"))
		say("   • The completion service could not be reached")
		return fmt.Errorf("health check failed: service unreachable")
	}
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
