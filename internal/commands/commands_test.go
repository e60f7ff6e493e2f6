package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/data/db"
	"github.com/colonyops/scribe/internal/data/stores"
	"github.com/colonyops/scribe/internal/printer"
	"github.com/colonyops/scribe/internal/scribe"
)

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (script.Result, error) {
	return script.Result{Title: "Stub title", Body: "Hook.\n\nBody.", Model: "stub"}, nil
}

type harness struct {
	flags  *Flags
	app    *scribe.App
	out    bytes.Buffer
	status bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(config.DefaultAPIKeyEnv, "")

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	database, err := db.Open(cfg.DataDir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	ids := []string{"aaaa1111-0001", "bbbb2222-0002", "cccc3333-0003", "dddd4444-0004"}
	next := 0
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	scripts := script.NewService(stubGenerator{}, stores.NewScriptStore(database),
		script.WithIDFunc(func() string {
			id := ids[next]
			next++
			return id
		}),
		script.WithClock(func() time.Time {
			now = now.Add(time.Minute)
			return now
		}),
	)

	h := &harness{
		flags: &Flags{Config: &cfg, ConfigPath: "", DataDir: cfg.DataDir},
		app:   &scribe.App{Config: &cfg, DB: database, Scripts: scripts},
	}
	return h
}

func (h *harness) run(t *testing.T, register func(*cli.Command) *cli.Command, args ...string) error {
	t.Helper()
	h.out.Reset()
	h.status.Reset()

	root := register(&cli.Command{
		Name:           "scribe",
		Writer:         &h.out,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	})
	ctx := printer.NewContext(context.Background(), printer.New(&h.status))
	return root.Run(ctx, append([]string{"scribe"}, args...))
}

func (h *harness) seed(t *testing.T, topics ...string) []script.Script {
	t.Helper()
	out := make([]script.Script, 0, len(topics))
	for _, topic := range topics {
		sc, err := h.app.Scripts.Generate(context.Background(), topic, script.Options{})
		require.NoError(t, err)
		out = append(out, sc)
	}
	return out
}

func (h *harness) statusText() string {
	return ansi.Strip(h.status.String())
}

func TestGenerateCmd(t *testing.T) {
	t.Run("topic and options", func(t *testing.T) {
		h := newHarness(t)
		cmd := NewGenerateCmd(h.flags, h.app)

		err := h.run(t, cmd.Register, "generate", "--topic", "go channels", "--style", "humorous", "--platform", "YouTube Shorts")
		require.NoError(t, err)

		assert.Equal(t, "# Stub title\n\nHook.\n\nBody.\n", h.out.String())
		assert.Contains(t, h.statusText(), `Generated "Stub title"`)

		list, err := h.app.Scripts.History(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "go channels", list[0].Topic)
		assert.Equal(t, "Humorous", list[0].Options.Value(script.Style))
		assert.Equal(t, "YouTube Shorts", list[0].Options.Value(script.Platform))
	})

	t.Run("invalid option", func(t *testing.T) {
		h := newHarness(t)
		cmd := NewGenerateCmd(h.flags, h.app)

		err := h.run(t, cmd.Register, "generate", "--topic", "x", "--duration", "90")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duration")
	})

	t.Run("json request on stdin", func(t *testing.T) {
		h := newHarness(t)
		cmd := NewGenerateCmd(h.flags, h.app)
		cmd.input.Stdin = strings.NewReader(`{"topic":"piped topic","options":{"language":"Spanish"}}`)
		cmd.input.IsTerminal = func() bool { return false }

		require.NoError(t, h.run(t, cmd.Register, "generate", "--json", "--memes", "No"))

		var info scriptInfo
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &info))
		assert.Equal(t, "piped topic", info.Topic)
		assert.Equal(t, "Spanish", info.Options["language"])
		assert.Equal(t, "No", info.Options["memes"])
		assert.Equal(t, "Hook.\n\nBody.", info.Body)
	})

	t.Run("no topic", func(t *testing.T) {
		h := newHarness(t)
		cmd := NewGenerateCmd(h.flags, h.app)
		cmd.input.IsTerminal = func() bool { return true }

		err := h.run(t, cmd.Register, "generate")
		require.ErrorIs(t, err, script.ErrEmptyTopic)
	})

	t.Run("export", func(t *testing.T) {
		h := newHarness(t)
		cmd := NewGenerateCmd(h.flags, h.app)
		dir := t.TempDir()

		require.NoError(t, h.run(t, cmd.Register, "generate", "--topic", "x", "--out", dir))
		assert.Contains(t, h.statusText(), "Exported to "+dir)
	})

	t.Run("not configured", func(t *testing.T) {
		h := newHarness(t)
		h.app.Scripts = script.NewService(nil, nil)
		cmd := NewGenerateCmd(h.flags, h.app)

		err := h.run(t, cmd.Register, "generate", "--topic", "x")
		require.ErrorIs(t, err, script.ErrNotConfigured)
		assert.Contains(t, err.Error(), "$GEMINI_API_KEY")
	})
}

func TestHistoryCmd_list(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "go channels", "rust traits")
	cmd := NewHistoryCmd(h.flags, h.app)

	require.NoError(t, h.run(t, cmd.Register, "history"))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "bbbb2222"), "newest first")
	assert.Contains(t, lines[2], "go channels")

	require.NoError(t, h.run(t, cmd.Register, "history", "--search", "rust", "--json"))
	var info scriptInfo
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &info))
	assert.Equal(t, "bbbb2222-0002", info.ID)
	assert.Empty(t, info.Body)
}

func TestHistoryCmd_list_empty(t *testing.T) {
	h := newHarness(t)
	cmd := NewHistoryCmd(h.flags, h.app)

	require.NoError(t, h.run(t, cmd.Register, "history"))
	assert.Empty(t, h.out.String())
	assert.Contains(t, h.statusText(), "No scripts found")
}

func TestHistoryCmd_show(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "go channels", "rust traits")
	cmd := NewHistoryCmd(h.flags, h.app)

	require.NoError(t, h.run(t, cmd.Register, "history", "show", "--raw", "aaaa"))
	assert.Equal(t, "# Stub title\n\nHook.\n\nBody.\n", h.out.String())

	require.NoError(t, h.run(t, cmd.Register, "history", "show", "--json", "bbbb2222-0002"))
	assert.Contains(t, h.out.String(), `"topic": "rust traits"`)

	err := h.run(t, cmd.Register, "history", "show", "zzzz")
	require.ErrorIs(t, err, script.ErrNotFound)
}

func TestHistoryCmd_rm(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "go channels", "rust traits")
	cmd := NewHistoryCmd(h.flags, h.app)

	require.NoError(t, h.run(t, cmd.Register, "history", "rm", "aaaa1111"))
	assert.Contains(t, h.statusText(), `Deleted "Stub title"`)

	list, err := h.app.Scripts.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bbbb2222-0002", list[0].ID)
}

func TestHistoryCmd_prune(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a", "b", "c")
	cmd := NewHistoryCmd(h.flags, h.app)

	require.NoError(t, h.run(t, cmd.Register, "history", "prune", "--keep", "1"))
	assert.Contains(t, h.statusText(), "Pruned 2 script(s)")

	list, err := h.app.Scripts.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cccc3333-0003", list[0].ID)

	h.app.Config.History.MaxEntries = 0
	cmd = NewHistoryCmd(h.flags, h.app)
	require.NoError(t, h.run(t, cmd.Register, "history", "prune"))
	assert.Contains(t, h.statusText(), "History is unbounded")
}

func TestConfigCmd_validate(t *testing.T) {
	h := newHarness(t)
	cmd := NewConfigCmd(h.flags)

	require.NoError(t, h.run(t, cmd.Register, "config", "validate"))
	assert.Contains(t, h.statusText(), "Configuration is valid")
	assert.Contains(t, h.statusText(), "no API key configured")

	require.NoError(t, h.run(t, cmd.Register, "config", "validate", "--format", "json"))
	var r validationReport
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &r))
	assert.True(t, r.Valid)
	assert.NotEmpty(t, r.Warnings)

	err := h.run(t, cmd.Register, "config", "validate", "--format", "xml")
	require.Error(t, err)
}

func TestConfigCmd_show_redacts_secrets(t *testing.T) {
	h := newHarness(t)
	h.flags.Config.LLM.APIKey = "sk-secret"
	h.flags.Config.OAuth.Google.ClientSecret = "oauth-secret"
	cmd := NewConfigCmd(h.flags)

	require.NoError(t, h.run(t, cmd.Register, "config", "show"))

	out := h.out.String()
	assert.NotContains(t, out, "sk-secret")
	assert.NotContains(t, out, "oauth-secret")
	assert.Contains(t, out, redacted)
	assert.Contains(t, out, "model: gemini-1.5-flash")
	assert.Equal(t, "sk-secret", h.flags.Config.LLM.APIKey, "config is not modified")
}

func TestDoctorCmd_json(t *testing.T) {
	h := newHarness(t)
	h.app.Doctor = scribe.NewDoctorService(h.app)
	cmd := NewDoctorCmd(h.flags, h.app)

	err := h.run(t, cmd.Register, "doctor", "--format", "json")
	require.Error(t, err)

	var out struct {
		Healthy bool `json:"healthy"`
		Summary struct {
			Failed int `json:"failed"`
		} `json:"summary"`
		Checks []struct {
			Name string `json:"name"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
	assert.False(t, out.Healthy)
	assert.Equal(t, 1, out.Summary.Failed)
	require.Len(t, out.Checks, 6)
	assert.Equal(t, "Script Generation", out.Checks[1].Name)
}

func TestDoctorCmd_autofix_prunes_history(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.DefaultAPIKeyEnv, "key")
	h.app.Config.History.MaxEntries = 1
	h.app.Doctor = scribe.NewDoctorService(h.app)
	h.seed(t, "one", "two", "three")

	require.NoError(t, h.run(t, NewDoctorCmd(h.flags, h.app).Register, "doctor"))
	assert.Contains(t, h.statusText(), "2 script(s) over the limit")
	assert.Contains(t, h.statusText(), "scribe doctor --autofix")

	require.NoError(t, h.run(t, NewDoctorCmd(h.flags, h.app).Register, "doctor", "--autofix"))
	assert.Contains(t, h.statusText(), "pruned 2 script(s)")

	list, err := h.app.Scripts.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "three", list[0].Topic)
}

func TestScriptIDCompleter(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "one", "two")

	root := &cli.Command{Name: "scribe", Writer: &h.out}
	ScriptIDCompleter(h.app)(context.Background(), root)

	assert.Equal(t, "bbbb2222\naaaa1111\n", h.out.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "abcdefgh", shortID("abcdefgh-1234"))
}
