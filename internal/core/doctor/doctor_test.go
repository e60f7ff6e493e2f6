package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/data/db"
)

type staticCheck struct {
	name  string
	items []CheckItem
}

func (c staticCheck) Name() string { return c.name }

func (c staticCheck) Run(context.Context) Result {
	return Result{Name: c.name, Items: c.items}
}

func TestRunAll_summary(t *testing.T) {
	results := RunAll(context.Background(), []Check{
		staticCheck{name: "a", items: []CheckItem{
			{Label: "one", Status: StatusPass},
			{Label: "two", Status: StatusWarn, Fixable: true},
		}},
		staticCheck{name: "b", items: []CheckItem{
			{Label: "three", Status: StatusFail},
			{Label: "four", Status: StatusPass, Fixable: true},
		}},
	})

	require.Len(t, results, 2)
	assert.Equal(t, StatusWarn, results[0].Items[1].Status)

	tally := Summarize(results)
	assert.Equal(t, Tally{Passed: 2, Warned: 1, Failed: 1, Fixable: 1}, tally)
	assert.False(t, tally.Healthy())
}

func TestRunAll_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunAll(ctx, []Check{
		staticCheck{name: "a", items: []CheckItem{{Label: "one", Status: StatusPass}}},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, StatusFail, results[0].Items[0].Status)
	assert.Equal(t, "skipped", results[0].Items[0].Label)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.DefaultAPIKeyEnv, "")
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func TestConfigCheck(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	result := NewConfigCheck(cfg, path).Run(context.Background())

	assert.Equal(t, "Configuration", result.Name)
	require.NotEmpty(t, result.Items)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "not found, using defaults", result.Items[0].Detail)

	var labels []string
	for _, item := range result.Items[1:] {
		assert.Equal(t, StatusWarn, item.Status)
		labels = append(labels, item.Label)
	}
	assert.Contains(t, labels, "LLM api_key")
}

func TestConfigCheck_invalid(t *testing.T) {
	cfg := testConfig(t)
	cfg.TUI.Theme = "nope"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tui:\n  theme: nope\n"), 0o644))

	result := NewConfigCheck(cfg, path).Run(context.Background())

	assert.Equal(t, path, result.Items[0].Detail)
	var failed []CheckItem
	for _, item := range result.Items {
		if item.Status == StatusFail {
			failed = append(failed, item)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "tui.theme", failed[0].Label)
}

func TestLLMCheck(t *testing.T) {
	t.Setenv("SCRIBE_TEST_KEY", "")

	tests := []struct {
		name   string
		cfg    config.LLMConfig
		env    string
		status Status
		detail string
	}{
		{
			name:   "config key",
			cfg:    config.LLMConfig{APIKey: "k", APIKeyEnv: "SCRIBE_TEST_KEY", Model: "m"},
			status: StatusPass,
			detail: "set in config",
		},
		{
			name:   "env key",
			cfg:    config.LLMConfig{APIKeyEnv: "SCRIBE_TEST_KEY", Model: "m"},
			env:    "k",
			status: StatusPass,
			detail: "read from $SCRIBE_TEST_KEY",
		},
		{
			name:   "missing",
			cfg:    config.LLMConfig{APIKeyEnv: "SCRIBE_TEST_KEY", Model: "m"},
			status: StatusFail,
			detail: "set llm.api_key or $SCRIBE_TEST_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCRIBE_TEST_KEY", tt.env)

			result := NewLLMCheck(tt.cfg).Run(context.Background())

			require.Len(t, result.Items, 3)
			assert.Equal(t, tt.status, result.Items[0].Status)
			assert.Equal(t, tt.detail, result.Items[0].Detail)
			assert.Equal(t, "m", result.Items[1].Detail)
			assert.Equal(t, "built-in", result.Items[2].Detail)
		})
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestIdentityCheck(t *testing.T) {
	t.Run("in-process", func(t *testing.T) {
		result := NewIdentityCheck(config.IdentityConfig{}, struct{}{}).Run(context.Background())
		require.Len(t, result.Items, 1)
		assert.Equal(t, StatusPass, result.Items[0].Status)
		assert.Equal(t, "memory (in-process)", result.Items[0].Detail)
	})

	t.Run("reachable", func(t *testing.T) {
		cfg := config.IdentityConfig{Backend: config.BackendHTTP, URL: "http://id.local"}
		result := NewIdentityCheck(cfg, fakePinger{}).Run(context.Background())
		assert.Equal(t, StatusPass, result.Items[0].Status)
		assert.Equal(t, "http http://id.local", result.Items[0].Detail)
	})

	t.Run("unreachable", func(t *testing.T) {
		cfg := config.IdentityConfig{Backend: config.BackendHTTP, URL: "http://id.local"}
		result := NewIdentityCheck(cfg, fakePinger{err: errors.New("refused")}).Run(context.Background())
		assert.Equal(t, StatusFail, result.Items[0].Status)
		assert.Contains(t, result.Items[0].Detail, "refused")
	})
}

func TestStorageCheck(t *testing.T) {
	dir := t.TempDir()
	database, err := db.Open(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	result := NewStorageCheck(dir, database).Run(context.Background())

	require.Len(t, result.Items, 3)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "schema", result.Items[1].Label)
	assert.Equal(t, StatusPass, result.Items[1].Status)
	assert.Equal(t, StatusPass, result.Items[2].Status)
	assert.Equal(t, "0 script(s)", result.Items[2].Detail)
}

func TestStorageCheck_without_database(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	result := NewStorageCheck(missing, nil).Run(context.Background())

	require.Len(t, result.Items, 2)
	assert.Equal(t, StatusWarn, result.Items[0].Status)
	assert.Equal(t, StatusWarn, result.Items[1].Status)
}

func TestStorageCheck_file_as_data_dir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	result := NewStorageCheck(path, nil).Run(context.Background())

	assert.Equal(t, StatusFail, result.Items[0].Status)
}

type fakeHistory struct {
	count  int
	pruned int
}

func (f *fakeHistory) History(context.Context, int) ([]script.Script, error) {
	return make([]script.Script, f.count), nil
}

func (f *fakeHistory) Prune(_ context.Context, keep int) (int64, error) {
	removed := f.count - keep
	f.pruned += removed
	f.count = keep
	return int64(removed), nil
}

func TestHistoryCheck(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		result := NewHistoryCheck(&fakeHistory{count: 3}, 5, false).Run(context.Background())
		assert.Equal(t, StatusPass, result.Items[0].Status)
		assert.Equal(t, "3 of 5", result.Items[0].Detail)
	})

	t.Run("unbounded", func(t *testing.T) {
		result := NewHistoryCheck(&fakeHistory{count: 3}, 0, false).Run(context.Background())
		assert.Equal(t, "3 saved", result.Items[0].Detail)
	})

	t.Run("over limit", func(t *testing.T) {
		store := &fakeHistory{count: 8}
		result := NewHistoryCheck(store, 5, false).Run(context.Background())
		assert.Equal(t, StatusWarn, result.Items[0].Status)
		assert.True(t, result.Items[0].Fixable)
		assert.Equal(t, 0, store.pruned)
	})

	t.Run("autofix", func(t *testing.T) {
		store := &fakeHistory{count: 8}
		result := NewHistoryCheck(store, 5, true).Run(context.Background())
		assert.Equal(t, StatusPass, result.Items[0].Status)
		assert.Equal(t, "pruned 3 script(s)", result.Items[0].Detail)
		assert.Equal(t, 5, store.count)
	})
}

func TestClipboardCheck(t *testing.T) {
	orig := clipboardUnsupported
	t.Cleanup(func() { clipboardUnsupported = orig })

	clipboardUnsupported = func() bool { return true }
	result := NewClipboardCheck().Run(context.Background())
	assert.Equal(t, StatusWarn, result.Items[0].Status)

	clipboardUnsupported = func() bool { return false }
	result = NewClipboardCheck().Run(context.Background())
	assert.Equal(t, StatusPass, result.Items[0].Status)
}
