// Package scribe wires configuration into the services shared by the CLI
// commands and the TUI.
package scribe

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/logging"
	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/core/toast"
	"github.com/colonyops/scribe/internal/data/db"
	"github.com/colonyops/scribe/internal/data/stores"
	"github.com/colonyops/scribe/internal/integration/identity/httpidentity"
	"github.com/colonyops/scribe/internal/integration/identity/memidentity"
	"github.com/colonyops/scribe/internal/integration/llm"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// App is the central entry point for all scribe operations.
// Commands and TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Config   *config.Config
	DB       *db.DB
	Identity auth.Provider
	Auth     *auth.Service
	OAuth    *auth.OAuth // nil when no OAuth client is configured
	Scripts  *script.Service
	Toasts   *toast.Engine
	Doctor   *DoctorService
	Build    BuildInfo
}

// NewApp builds the services described by cfg. database may be nil, in which
// case history is not persisted.
func NewApp(cfg *config.Config, database *db.DB, build BuildInfo) (*App, error) {
	identity, err := NewIdentity(cfg)
	if err != nil {
		return nil, fmt.Errorf("identity backend: %w", err)
	}

	scripts, err := NewScriptService(cfg, database)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       database,
		Identity: identity,
		Auth:     auth.NewService(identity, cfg.Throttle, logging.Component("scribe")),
		Scripts:  scripts,
		Toasts:   toast.NewEngine(toast.WithConfig(cfg.Toast.Engine())),
		Build:    build,
	}

	app.Doctor = NewDoctorService(app)

	if g := cfg.OAuth.Google; g.Enabled() {
		app.OAuth = auth.NewOAuth("google", auth.GoogleOAuthConfig(g.ClientID, g.ClientSecret), logging.Component("scribe"))
	}

	return app, nil
}

// NewIdentity returns the identity provider selected by cfg.Identity.Backend.
// The memory backend confirms Google identities with Google before signing
// them in, and discards codes after cfg.Throttle.CodeAttempts wrong entries.
func NewIdentity(full *config.Config) (auth.Provider, error) {
	cfg := full.Identity
	switch cfg.Backend {
	case config.BackendHTTP:
		client, err := httpidentity.NewClient(cfg.URL,
			httpidentity.WithAPIKey(cfg.APIKey),
			httpidentity.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendMemory, "":
		opts := []memidentity.Option{
			memidentity.WithCodeAttempts(full.Throttle.CodeAttempts),
			memidentity.WithIdentityVerifier(auth.NewUserInfoVerifier(
				auth.GoogleUserInfoEndpoints(),
				&http.Client{Timeout: cfg.Timeout},
			)),
		}
		if cfg.SigningKey != "" {
			opts = append(opts, memidentity.WithSigningKey([]byte(cfg.SigningKey)))
		}
		provider, err := memidentity.New(opts...)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// NewScriptService builds the script service. A missing API key leaves the
// service without a generator so the app still starts and history stays
// browsable.
func NewScriptService(cfg *config.Config, database *db.DB) (*script.Service, error) {
	log := logging.Component("scribe")

	var gen script.Generator
	g, err := llm.New(llm.Config{
		APIKey:      cfg.LLM.ResolveAPIKey(),
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Structured:  cfg.LLM.Structured,
		MaxRetries:  cfg.LLM.MaxRetries,
	})
	switch {
	case err == nil:
		gen = g
	case errors.Is(err, llm.ErrMissingAPIKey):
		log.Warn().Str("env", cfg.LLM.APIKeyEnv).Msg("no API key configured, generation disabled")
	default:
		return nil, fmt.Errorf("llm: %w", err)
	}

	opts := []script.ServiceOption{
		script.WithTimeout(cfg.LLM.Timeout),
		script.WithHistoryLimit(cfg.History.MaxEntries),
	}
	if cfg.LLM.PromptTemplate != "" {
		t, err := script.ParsePromptTemplate(cfg.LLM.PromptTemplate)
		if err != nil {
			return nil, fmt.Errorf("llm.prompt_template: %w", err)
		}
		opts = append(opts, script.WithPromptTemplate(t))
	}

	var store script.Store
	if database != nil {
		store = stores.NewScriptStore(database)
	}

	return script.NewService(gen, store, opts...), nil
}

// Warnings returns the configuration warnings as display strings.
func (a *App) Warnings() []string {
	warnings := a.Config.Warnings()
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.Category+": "+w.Message)
	}
	return out
}

// Close stops the toast engine's timers.
func (a *App) Close() {
	if a.Toasts != nil {
		a.Toasts.Shutdown()
	}
}
