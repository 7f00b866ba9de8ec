package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iksnae/persona-chat/internal"
	"github.com/iksnae/persona-chat/internal/gateway"
)

var (
	verbose     bool
	configPath  string
	catalogPath string
	useMock     bool
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// mockDelay paces the offline gateway so streaming is visible
const mockDelay = 40 * time.Millisecond

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "persona-chat",
	Short: "Chat with AI personas over Groq's streaming completions API",
	Long: `Chat with a catalog of AI personas backed by Groq's OpenAI-compatible API.

Each conversation has one persona and one model. Switching either starts a
fresh conversation; replies stream in as they are generated.

Quick Start:
  export GROQ_API_KEY=...
  persona-chat chat                          # Interactive chat
  persona-chat chat --persona jarvis         # Pick a persona
  persona-chat ask "What is a monad?"        # One-shot question
  persona-chat personas                      # List personas
  persona-chat serve                         # HTTP API with streamed replies

Configuration is read from ~/.config/persona-chat/config.toml and PERSONA_CHAT_* variables.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/persona-chat/config.toml)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Persona and model catalog (YAML file or SQLite database)")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "Use an offline echo gateway instead of the remote API")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// runtime is what every conversation command needs
type runtime struct {
	cfg     *internal.Config
	catalog *internal.Catalog
	gateway internal.Gateway
	client  *gateway.Client // nil when the offline gateway is used
}

func loadSettings() (*internal.Config, *internal.Catalog, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if catalogPath != "" {
		cfg.Catalog = catalogPath
	}
	catalog, err := cfg.LoadConfiguredCatalog()
	if err != nil {
		return nil, nil, err
	}
	return cfg, catalog, nil
}

func loadRuntime() (*runtime, error) {
	cfg, catalog, err := loadSettings()
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, catalog: catalog}
	if useMock || os.Getenv("PERSONA_CHAT_MOCK") == "1" {
		rt.gateway = gateway.NewEcho(mockDelay)
		return rt, nil
	}
	if cfg.APIKey == "" {
		return nil, &internal.ConfigError{Field: "api_key", Err: fmt.Errorf("not set; export GROQ_API_KEY or pass --mock")}
	}
	rt.client = gateway.FromConfig(cfg)
	rt.gateway = rt.client
	return rt, nil
}

// newSession creates a session with the configured options and optional explicit selection
func (rt *runtime) newSession(personaID, modelID string) (*internal.ConversationSession, error) {
	opts := rt.cfg.SessionOptions()
	if personaID != "" {
		opts = append(opts, internal.WithPersona(personaID))
	}
	if modelID != "" {
		opts = append(opts, internal.WithModel(modelID))
	}
	return internal.NewConversationSession(rt.catalog, rt.gateway, opts...)
}
