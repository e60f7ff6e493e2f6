package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/throttle"
	"github.com/colonyops/scribe/internal/core/toast"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks structural correctness. It does no I/O.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		c.validateLLM(),
		c.validateIdentity(),
		c.validateToast(),
		c.validateThrottle(),
		c.validateStorage(),
	)
}

// ValidateDeep performs comprehensive validation including template syntax,
// theme names and file accessibility. The configPath argument specifies the
// config file location to validate (empty string skips the config file check).
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		criterio.Run("llm.prompt_template", c.LLM.PromptTemplate, validPromptTemplate),
		criterio.Run("tui.theme", c.TUI.Theme, knownTheme),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.LLM.ResolveAPIKey() == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "LLM",
			Item:     "api_key",
			Message:  fmt.Sprintf("no API key configured and $%s is empty; generation will fail", c.LLM.APIKeyEnv),
		})
	}
	if c.Identity.Backend == BackendMemory {
		warnings = append(warnings, ValidationWarning{
			Category: "Identity",
			Item:     "backend",
			Message:  "memory backend keeps accounts in-process; verification codes are written to the log",
		})
	}
	if c.OAuth.Google.Enabled() && c.OAuth.Google.ClientSecret == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "OAuth",
			Item:     "google.client_secret",
			Message:  "client secret is empty; only public PKCE clients will work",
		})
	}
	if c.History.MaxEntries == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "History",
			Item:     "max_entries",
			Message:  "history is unbounded",
		})
	}

	return warnings
}

func (c *Config) validateLLM() error {
	var errs criterio.FieldErrorsBuilder
	if c.LLM.Model == "" {
		errs = errs.Append("llm.model", fmt.Errorf("cannot be empty"))
	}
	if err := httpURL(c.LLM.BaseURL); err != nil {
		errs = errs.Append("llm.base_url", err)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = errs.Append("llm.temperature", fmt.Errorf("must be between 0 and 2, got %v", c.LLM.Temperature))
	}
	if c.LLM.Timeout < 0 {
		errs = errs.Append("llm.timeout", fmt.Errorf("cannot be negative"))
	}
	if c.LLM.MaxRetries < 0 {
		errs = errs.Append("llm.max_retries", fmt.Errorf("cannot be negative"))
	}
	return errs.ToError()
}

func (c *Config) validateIdentity() error {
	var errs criterio.FieldErrorsBuilder
	switch c.Identity.Backend {
	case BackendMemory:
	case BackendHTTP:
		if err := httpURL(c.Identity.URL); err != nil {
			errs = errs.Append("identity.url", err)
		}
	default:
		errs = errs.Append("identity.backend", fmt.Errorf("must be %q or %q, got %q", BackendMemory, BackendHTTP, c.Identity.Backend))
	}
	if c.Identity.Timeout <= 0 {
		errs = errs.Append("identity.timeout", fmt.Errorf("must be positive"))
	}
	return errs.ToError()
}

func (c *Config) validateToast() error {
	var errs criterio.FieldErrorsBuilder
	if !toast.Theme(c.Toast.Theme).IsValid() {
		errs = errs.Append("toast.theme", fmt.Errorf("must be light or dark, got %q", c.Toast.Theme))
	}
	if !toast.Position(c.Toast.Position).IsValid() {
		errs = errs.Append("toast.position", fmt.Errorf("must be top, center or bottom, got %q", c.Toast.Position))
	}
	if c.Toast.Duration <= 0 {
		errs = errs.Append("toast.duration", fmt.Errorf("must be positive"))
	}
	if c.Toast.Width < 20 {
		errs = errs.Append("toast.width", fmt.Errorf("must be at least 20, got %d", c.Toast.Width))
	}
	return errs.ToError()
}

func (c *Config) validateThrottle() error {
	var errs criterio.FieldErrorsBuilder
	policies := []struct {
		field  string
		policy throttle.Policy
	}{
		{"throttle.sign_up_resend", c.Throttle.SignUpResend},
		{"throttle.sign_in_code_resend", c.Throttle.SignInCodeResend},
		{"throttle.password_reset_resend", c.Throttle.PasswordResetResend},
	}
	for _, p := range policies {
		if err := p.policy.Validate(); err != nil {
			errs = errs.Append(p.field, err)
		}
	}
	if c.Throttle.CodeAttempts < 1 {
		errs = errs.Append("throttle.code_attempts", fmt.Errorf("must be at least 1"))
	}
	return errs.ToError()
}

func (c *Config) validateStorage() error {
	var errs criterio.FieldErrorsBuilder
	if c.History.MaxEntries < 0 {
		errs = errs.Append("history.max_entries", fmt.Errorf("cannot be negative"))
	}
	if c.History.PageSize < 1 {
		errs = errs.Append("history.page_size", fmt.Errorf("must be at least 1"))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = errs.Append("database.max_open_conns", fmt.Errorf("must be at least 1"))
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = errs.Append("database.max_idle_conns", fmt.Errorf("must be between 0 and max_open_conns"))
	}
	if c.Database.BusyTimeout < 0 {
		errs = errs.Append("database.busy_timeout", fmt.Errorf("cannot be negative"))
	}
	return errs.ToError()
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func validPromptTemplate(text string) error {
	if text == "" {
		return nil
	}
	_, err := script.ParsePromptTemplate(text)
	return err
}

func knownTheme(name string) error {
	if _, ok := styles.GetPalette(name); ok {
		return nil
	}
	return fmt.Errorf("unknown theme %q, available: %v", name, styles.ThemeNames())
}

func notEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func httpURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if !slices.Contains([]string{"http", "https"}, u.Scheme) || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) url, got %q", raw)
	}
	return nil
}
