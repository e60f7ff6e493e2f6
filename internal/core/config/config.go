// Package config handles configuration loading and validation for scribe.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/toast"
)

// Identity backends.
const (
	BackendMemory = "memory"
	BackendHTTP   = "http"
)

// DefaultAPIKeyEnv is read when llm.api_key is not set.
const DefaultAPIKeyEnv = "GEMINI_API_KEY"

// Config holds the application configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Identity IdentityConfig `yaml:"identity"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Toast    ToastConfig    `yaml:"toast"`
	Throttle auth.Policies  `yaml:"throttle"`
	TUI      TUIConfig      `yaml:"tui"`
	History  HistoryConfig  `yaml:"history"`
	Database DatabaseConfig `yaml:"database"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// LLMConfig configures the script generator.
type LLMConfig struct {
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	// Temperature of zero leaves the provider default in place.
	Temperature float64       `yaml:"temperature"`
	Structured  bool          `yaml:"structured"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	// PromptTemplate replaces the built-in generation prompt.
	PromptTemplate string `yaml:"prompt_template"`
}

// ResolveAPIKey returns the configured key, falling back to the environment.
func (c LLMConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return os.Getenv(c.APIKeyEnv)
}

// IdentityConfig selects the identity backend.
type IdentityConfig struct {
	Backend string        `yaml:"backend"`
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	// Listen is the address used by `scribe identity serve`.
	Listen string `yaml:"listen"`
	// SigningKey signs sessions issued by the memory backend. Empty means a
	// random key per process.
	SigningKey string `yaml:"signing_key"`
}

// OAuthConfig holds OAuth client credentials.
type OAuthConfig struct {
	Google OAuthClient `yaml:"google"`
}

// OAuthClient is a single OAuth client registration.
type OAuthClient struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Enabled reports whether the client has credentials.
func (c OAuthClient) Enabled() bool {
	return c.ClientID != ""
}

// ToastConfig is the process-wide notification presentation.
type ToastConfig struct {
	Theme           string        `yaml:"theme"`
	Position        string        `yaml:"position"`
	Duration        time.Duration `yaml:"duration"`
	Width           int           `yaml:"width"`
	ShowCloseIcon   *bool         `yaml:"show_close_icon"`
	ShowProgressBar *bool         `yaml:"show_progress_bar"`
}

// Engine converts the section into engine defaults.
func (c ToastConfig) Engine() toast.Config {
	cfg := toast.DefaultConfig()
	cfg.Theme = toast.Theme(c.Theme)
	cfg.Position = toast.Position(c.Position)
	cfg.Duration = c.Duration
	cfg.Width = c.Width
	if c.ShowCloseIcon != nil {
		cfg.ShowCloseIcon = *c.ShowCloseIcon
	}
	if c.ShowProgressBar != nil {
		cfg.ShowProgressBar = *c.ShowProgressBar
	}
	return cfg
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `yaml:"theme"`
	Mouse *bool  `yaml:"mouse"`
}

// MouseEnabled reports whether mouse tracking is on. Defaults to true.
func (c TUIConfig) MouseEnabled() bool {
	return c.Mouse == nil || *c.Mouse
}

// HistoryConfig bounds the script history.
type HistoryConfig struct {
	// MaxEntries is the number of scripts kept. Zero keeps everything.
	MaxEntries int `yaml:"max_entries"`
	PageSize   int `yaml:"page_size"`
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	tc := toast.DefaultConfig()
	return Config{
		LLM: LLMConfig{
			APIKeyEnv:  DefaultAPIKeyEnv,
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:      "gemini-1.5-flash",
			Structured: true,
			Timeout:    2 * time.Minute,
			MaxRetries: 2,
		},
		Identity: IdentityConfig{
			Backend: BackendMemory,
			Timeout: 15 * time.Second,
			Listen:  "127.0.0.1:8787",
		},
		Toast: ToastConfig{
			Theme:    string(tc.Theme),
			Position: string(tc.Position),
			Duration: tc.Duration,
			Width:    tc.Width,
		},
		Throttle: auth.DefaultPolicies(),
		TUI: TUIConfig{
			Theme: styles.DefaultTheme,
		},
		History: HistoryConfig{
			MaxEntries: 200,
			PageSize:   50,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5 * time.Second,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = defaults.LLM.APIKeyEnv
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaults.LLM.Model
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = defaults.LLM.Timeout
	}

	if c.Identity.Backend == "" {
		c.Identity.Backend = defaults.Identity.Backend
	}
	if c.Identity.Timeout == 0 {
		c.Identity.Timeout = defaults.Identity.Timeout
	}
	if c.Identity.Listen == "" {
		c.Identity.Listen = defaults.Identity.Listen
	}

	if c.Toast.Theme == "" {
		c.Toast.Theme = defaults.Toast.Theme
	}
	if c.Toast.Position == "" {
		c.Toast.Position = defaults.Toast.Position
	}
	if c.Toast.Duration == 0 {
		c.Toast.Duration = defaults.Toast.Duration
	}
	if c.Toast.Width == 0 {
		c.Toast.Width = defaults.Toast.Width
	}

	c.Throttle.SignUpResend = orDefault(c.Throttle.SignUpResend, defaults.Throttle.SignUpResend)
	c.Throttle.SignInCodeResend = orDefault(c.Throttle.SignInCodeResend, defaults.Throttle.SignInCodeResend)
	c.Throttle.PasswordResetResend = orDefault(c.Throttle.PasswordResetResend, defaults.Throttle.PasswordResetResend)
	if c.Throttle.CodeAttempts == 0 {
		c.Throttle.CodeAttempts = defaults.Throttle.CodeAttempts
	}

	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.History.PageSize == 0 {
		c.History.PageSize = defaults.History.PageSize
	}

	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// ConfigDir returns the directory holding the config file.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "scribe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scribe"
	}
	return filepath.Join(home, ".config", "scribe")
}

// DefaultDataDir returns the directory holding the database and logs.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "scribe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".scribe"
	}
	return filepath.Join(home, ".local", "share", "scribe")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "scribe.log")
}

// ExportDir returns the default directory for exported scripts.
func (c *Config) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}
