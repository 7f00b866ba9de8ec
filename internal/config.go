package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBaseURL           = "https://api.groq.com/openai/v1"
	DefaultRequestTimeout    = 2 * time.Minute
	DefaultRequestsPerMinute = 30
	DefaultListenAddr        = "127.0.0.1:8080"
	DefaultSessionTTL        = 30 * time.Minute
)

// Config holds application settings
type Config struct {
	APIKey            string        `toml:"api_key"`
	BaseURL           string        `toml:"base_url"`
	DefaultPersona    string        `toml:"default_persona"`
	DefaultModel      string        `toml:"default_model"`
	Catalog           string        `toml:"catalog"`
	TokenHeadroom     int           `toml:"token_headroom"`
	Temperature       *float64      `toml:"temperature"`
	RequestTimeout    time.Duration `toml:"request_timeout"`
	RequestsPerMinute int           `toml:"requests_per_minute"`
	Server            ServerConfig  `toml:"server"`

	// Path the config was read from, empty for defaults
	Path string `toml:"-"`
}

// ServerConfig holds settings for the HTTP front-end
type ServerConfig struct {
	Listen     string        `toml:"listen"`
	SessionTTL time.Duration `toml:"session_ttl"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		RequestTimeout:    DefaultRequestTimeout,
		RequestsPerMinute: DefaultRequestsPerMinute,
		Server: ServerConfig{
			Listen:     DefaultListenAddr,
			SessionTTL: DefaultSessionTTL,
		},
	}
}

// DefaultConfigPath returns ~/.config/persona-chat/config.toml
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "persona-chat", "config.toml"), nil
}

// LoadConfig reads configuration from path. An empty path falls back to
// $PERSONA_CHAT_CONFIG and then the default location; a missing default file is not an error.
// Environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv("PERSONA_CHAT_CONFIG"); env != "" {
			path, explicit = env, true
		} else if p, err := DefaultConfigPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		switch {
		case err == nil:
			cfg.Path = path
			LogDebug("Loaded config from %s", path)
		case errors.Is(err, os.ErrNotExist) && !explicit:
			LogDebug("No config file at %s, using defaults", path)
		default:
			return nil, &ConfigError{Field: "file", Err: fmt.Errorf("%s: %w", path, err)}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies PERSONA_CHAT_* and GROQ_API_KEY environment variables
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		c.APIKey = key
	}
	if key := os.Getenv("PERSONA_CHAT_API_KEY"); key != "" {
		c.APIKey = key
	}
	if u := os.Getenv("PERSONA_CHAT_BASE_URL"); u != "" {
		c.BaseURL = u
	}
	if model := os.Getenv("PERSONA_CHAT_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if persona := os.Getenv("PERSONA_CHAT_PERSONA"); persona != "" {
		c.DefaultPersona = persona
	}
	if catalog := os.Getenv("PERSONA_CHAT_CATALOG"); catalog != "" {
		c.Catalog = catalog
	}
	if listen := os.Getenv("PERSONA_CHAT_LISTEN"); listen != "" {
		c.Server.Listen = listen
	}
}

// SetDefaults fills values a config file or environment left empty. Keys missing from
// the file keep their DefaultConfig values, so an explicit 0 for request_timeout,
// requests_per_minute or server.session_ttl disables that limit.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListenAddr
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Field: "base_url", Err: fmt.Errorf("invalid URL %q", c.BaseURL)}
	}
	if c.TokenHeadroom < 0 {
		return &ConfigError{Field: "token_headroom", Err: fmt.Errorf("must not be negative, got %d", c.TokenHeadroom)}
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return &ConfigError{Field: "temperature", Err: fmt.Errorf("must be between 0 and 2, got %g", *c.Temperature)}
	}
	if c.RequestTimeout < 0 {
		return &ConfigError{Field: "request_timeout", Err: fmt.Errorf("must not be negative, got %s", c.RequestTimeout)}
	}
	if c.RequestsPerMinute < 0 {
		return &ConfigError{Field: "requests_per_minute", Err: fmt.Errorf("must not be negative, got %d", c.RequestsPerMinute)}
	}
	if c.Server.SessionTTL < 0 {
		return &ConfigError{Field: "server.session_ttl", Err: fmt.Errorf("must not be negative, got %s", c.Server.SessionTTL)}
	}
	return nil
}

// SessionOptions returns the session options implied by the configuration
func (c *Config) SessionOptions() []SessionOption {
	opts := []SessionOption{WithTokenHeadroom(c.TokenHeadroom)}
	if c.Temperature != nil {
		opts = append(opts, WithTemperature(*c.Temperature))
	}
	return opts
}

// LoadConfiguredCatalog loads the configured catalog and applies the configured defaults
func (c *Config) LoadConfiguredCatalog() (*Catalog, error) {
	cat, err := LoadCatalog(c.Catalog)
	if err != nil {
		return nil, err
	}
	return cat.WithDefaults(c.DefaultPersona, c.DefaultModel)
}
