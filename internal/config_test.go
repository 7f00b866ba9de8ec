package internal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/persona-chat/testutil"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GROQ_API_KEY", "PERSONA_CHAT_API_KEY", "PERSONA_CHAT_BASE_URL", "PERSONA_CHAT_MODEL",
		"PERSONA_CHAT_PERSONA", "PERSONA_CHAT_CATALOG", "PERSONA_CHAT_LISTEN", "PERSONA_CHAT_CONFIG",
	} {
		t.Setenv(key, "")
	}
	// keep the user's real config file out of the way
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, DefaultRequestTimeout)
	}
	if cfg.Server.Listen != DefaultListenAddr {
		t.Errorf("Server.Listen = %q, want %q", cfg.Server.Listen, DefaultListenAddr)
	}
	if cfg.TokenHeadroom != 0 {
		t.Errorf("TokenHeadroom = %d, want 0", cfg.TokenHeadroom)
	}
	if cfg.Path != "" {
		t.Errorf("Path = %q, want empty", cfg.Path)
	}
}

func TestLoadConfig_File(t *testing.T) {
	clearConfigEnv(t)
	dir := testutil.CreateTempDir(t)
	path := testutil.CreateFileFixture(t, dir, "config.toml", `
api_key = "file-key"
base_url = "http://localhost:9000/v1/"
default_persona = "jarvis"
default_model = "gemma2-9b-it"
token_headroom = 512
temperature = 0.4
request_timeout = "45s"

[server]
listen = ":9999"
session_ttl = "5m"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.BaseURL != "http://localhost:9000/v1" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", cfg.BaseURL)
	}
	if cfg.DefaultPersona != "jarvis" || cfg.DefaultModel != "gemma2-9b-it" {
		t.Errorf("defaults = %q/%q", cfg.DefaultPersona, cfg.DefaultModel)
	}
	if cfg.TokenHeadroom != 512 {
		t.Errorf("TokenHeadroom = %d", cfg.TokenHeadroom)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.4 {
		t.Errorf("Temperature = %v", cfg.Temperature)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.Server.Listen != ":9999" || cfg.Server.SessionTTL != 5*time.Minute {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.RequestsPerMinute != DefaultRequestsPerMinute {
		t.Errorf("RequestsPerMinute = %d, want default", cfg.RequestsPerMinute)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
	if len(cfg.SessionOptions()) != 2 {
		t.Errorf("SessionOptions() returned %d options, want 2", len(cfg.SessionOptions()))
	}
}

func TestLoadConfig_ExplicitZeroDisablesLimits(t *testing.T) {
	clearConfigEnv(t)
	dir := testutil.CreateTempDir(t)
	path := testutil.CreateFileFixture(t, dir, "config.toml", `
requests_per_minute = 0
request_timeout = "0s"

[server]
session_ttl = "0s"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.RequestsPerMinute != 0 {
		t.Errorf("RequestsPerMinute = %d, want 0", cfg.RequestsPerMinute)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("RequestTimeout = %v, want 0", cfg.RequestTimeout)
	}
	if cfg.Server.SessionTTL != 0 {
		t.Errorf("Server.SessionTTL = %v, want 0", cfg.Server.SessionTTL)
	}
	if cfg.Server.Listen != DefaultListenAddr {
		t.Errorf("Server.Listen = %q, want default", cfg.Server.Listen)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("PERSONA_CHAT_MODEL", "qwen/qwen3-32b")
	t.Setenv("PERSONA_CHAT_LISTEN", ":7000")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.APIKey != "groq-key" {
		t.Errorf("APIKey = %q, want groq-key", cfg.APIKey)
	}
	if cfg.DefaultModel != "qwen/qwen3-32b" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.Server.Listen != ":7000" {
		t.Errorf("Server.Listen = %q", cfg.Server.Listen)
	}

	t.Setenv("PERSONA_CHAT_API_KEY", "specific-key")
	cfg, err = LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.APIKey != "specific-key" {
		t.Errorf("PERSONA_CHAT_API_KEY should win over GROQ_API_KEY, got %q", cfg.APIKey)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	clearConfigEnv(t)
	dir := testutil.CreateTempDir(t)

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{name: "malformed toml", content: "api_key = ", field: "file"},
		{name: "negative headroom", content: "token_headroom = -1", field: "token_headroom"},
		{name: "bad base url", content: `base_url = "not a url"`, field: "base_url"},
		{name: "temperature out of range", content: "temperature = 3.5", field: "temperature"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.CreateFileFixture(t, dir, filepath.Join("case", string(rune('a'+i)), "config.toml"), tt.content)
			_, err := LoadConfig(path)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("LoadConfig() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("ConfigError.Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("LoadConfig() should fail when an explicit path does not exist")
	}
}

func TestConfig_LoadConfiguredCatalog(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultPersona = "jarvis"

	cat, err := cfg.LoadConfiguredCatalog()
	if err != nil {
		t.Fatalf("LoadConfiguredCatalog() error = %v", err)
	}
	if cat.Personas.Default().ID != "jarvis" {
		t.Errorf("default persona = %q, want jarvis", cat.Personas.Default().ID)
	}
	if cat.Models.Default().ID != "llama-3.1-8b-instant" {
		t.Errorf("default model = %q", cat.Models.Default().ID)
	}

	cfg.DefaultModel = "gpt-9"
	if _, err := cfg.LoadConfiguredCatalog(); !errors.Is(err, ErrUnknownIdentifier) {
		t.Errorf("LoadConfiguredCatalog() error = %v, want ErrUnknownIdentifier", err)
	}
}
