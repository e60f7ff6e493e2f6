package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	result Result
	err    error
	prompt string
	block  bool
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (Result, error) {
	g.prompt = prompt
	if g.block {
		<-ctx.Done()
		return Result{}, ctx.Err()
	}
	return g.result, g.err
}

type memStore struct {
	mu      sync.Mutex
	scripts map[string]Script
}

func newMemStore() *memStore {
	return &memStore{scripts: map[string]Script{}}
}

func (m *memStore) Save(_ context.Context, s Script) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[s.ID] = s
	return nil
}

func (m *memStore) List(_ context.Context, limit int) ([]Script, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Script, 0, len(m.scripts))
	for _, s := range m.scripts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, id string) (Script, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scripts[id]
	if !ok {
		return Script{}, ErrNotFound
	}
	return s, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scripts, id)
	return nil
}

// indexedStore adds search and prune to memStore and records the calls.
type indexedStore struct {
	*memStore
	query string
	kept  []int
}

func (m *indexedStore) Search(ctx context.Context, query string, limit int) ([]Script, error) {
	m.query = query
	all, err := m.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	var out []Script
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Topic), strings.ToLower(query)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *indexedStore) Prune(_ context.Context, keep int) (int64, error) {
	m.kept = append(m.kept, keep)
	return 0, nil
}

func newTestService(gen Generator, store Store) *Service {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return NewService(gen, store,
		WithClock(func() time.Time { return now }),
		WithIDFunc(func() string { n++; return "script-" + string(rune('0'+n)) }),
	)
}

func TestOptions_defaults(t *testing.T) {
	var o Options

	assert.Equal(t, "General", o.Value(Audience))
	assert.Equal(t, "All", o.Value(Age))
	assert.Equal(t, "Casual", o.Value(Style))
	assert.Equal(t, "English", o.Value(Language))
	assert.Equal(t, "1-5", o.Value(Duration))
	assert.Equal(t, "Yes", o.Value(Memes))
	assert.Equal(t, "YouTube", o.Value(Platform))
	assert.Len(t, OptionKeys(), 7)
}

func TestOptions_Select(t *testing.T) {
	var o Options

	require.NoError(t, o.Select(Language, 9))
	assert.Equal(t, "Hinglish", o.Value(Language))

	require.Error(t, o.Select(Language, 99))
	require.Error(t, o.Select(Memes, -1))
	assert.Equal(t, "Hinglish", o.Value(Language), "failed select leaves value")

	require.NoError(t, o.SelectValue(Platform, "youtube shorts"))
	assert.Equal(t, "YouTube Shorts", o.Value(Platform))
	assert.ErrorContains(t, o.SelectValue(Duration, "60"), "not one of")
}

func TestOptions_Cycle_wraps(t *testing.T) {
	var o Options

	o.Cycle(Memes, 1)
	assert.Equal(t, "No", o.Value(Memes))
	o.Cycle(Memes, 1)
	assert.Equal(t, "Yes", o.Value(Memes))
	o.Cycle(Duration, -1)
	assert.Equal(t, "10-15", o.Value(Duration))
}

func TestOptions_value_semantics(t *testing.T) {
	var a Options
	b := a
	require.NoError(t, b.Select(Style, 3))

	assert.Equal(t, "Casual", a.Value(Style))
	assert.Equal(t, "Humorous", b.Value(Style))
}

func TestOptions_Values_roundtrip(t *testing.T) {
	var o Options
	require.NoError(t, o.SelectValue(Audience, "Students"))
	require.NoError(t, o.SelectValue(Language, "Korean"))

	values := o.Values()
	assert.Equal(t, "Students", values["audience"])

	values["bogus"] = "x"
	assert.Equal(t, o, OptionsFromValues(values))
}

func TestParseOptionKey(t *testing.T) {
	k, err := ParseOptionKey("Language")
	require.NoError(t, err)
	assert.Equal(t, Language, k)
	assert.Equal(t, "Language", k.Label())

	_, err = ParseOptionKey("tone")
	require.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	var o Options
	require.NoError(t, o.SelectValue(Language, "Spanish"))
	require.NoError(t, o.SelectValue(Duration, "5-10"))

	prompt, err := BuildPrompt("  home espresso  ", o)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Create a YouTube script about: home espresso\n")
	assert.Contains(t, prompt, "Duration: 5-10 minutes")
	assert.Contains(t, prompt, "Use only Spanish language")
	assert.Contains(t, prompt, "Engaging hook in the first 5 seconds")
	assert.Contains(t, prompt, "Format in markdown")

	_, err = BuildPrompt("   ", o)
	require.ErrorIs(t, err, ErrEmptyTopic)
}

func TestParsePromptTemplate(t *testing.T) {
	tpl, err := ParsePromptTemplate("Short {{ .Platform }} video on {{ .Topic }} in {{ lower .Language }}")
	require.NoError(t, err)

	gen := &stubGenerator{result: Result{Body: "body"}}
	svc := NewService(gen, nil, WithPromptTemplate(tpl))

	var o Options
	require.NoError(t, o.SelectValue(Language, "German"))
	_, err = svc.Generate(context.Background(), "bees", o)
	require.NoError(t, err)
	assert.Equal(t, "Short YouTube video on bees in german", gen.prompt)

	_, err = ParsePromptTemplate("{{ .Nope }}")
	require.Error(t, err, "unknown fields fail at parse time")

	_, err = ParsePromptTemplate("{{ .Topic ")
	require.Error(t, err)
}

func TestService_Generate(t *testing.T) {
	gen := &stubGenerator{result: Result{Title: " Espresso 101 ", Body: "\n## Hook\nSteam!\n", Model: "test-model"}}
	store := newMemStore()
	svc := newTestService(gen, store)

	var o Options
	sc, err := svc.Generate(context.Background(), "espresso", o)
	require.NoError(t, err)

	assert.Equal(t, "script-1", sc.ID)
	assert.Equal(t, "Espresso 101", sc.Title)
	assert.Equal(t, "## Hook\nSteam!", sc.Body)
	assert.Equal(t, "test-model", sc.Model)
	assert.Contains(t, gen.prompt, "espresso")

	saved, err := store.Get(context.Background(), sc.ID)
	require.NoError(t, err)
	assert.Equal(t, sc, saved)
}

func TestService_Generate_defaults_title_to_topic(t *testing.T) {
	gen := &stubGenerator{result: Result{Body: "body"}}
	svc := newTestService(gen, nil)

	sc, err := svc.Generate(context.Background(), "knots", Options{})
	require.NoError(t, err)
	assert.Equal(t, "knots", sc.Title)
}

func TestService_Generate_errors(t *testing.T) {
	t.Run("empty topic", func(t *testing.T) {
		gen := &stubGenerator{}
		svc := newTestService(gen, nil)
		_, err := svc.Generate(context.Background(), "", Options{})
		require.ErrorIs(t, err, ErrEmptyTopic)
		assert.Empty(t, gen.prompt, "generator is not called")
	})

	t.Run("no generator", func(t *testing.T) {
		svc := NewService(nil, nil)
		_, err := svc.Generate(context.Background(), "topic", Options{})
		require.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("empty result", func(t *testing.T) {
		svc := newTestService(&stubGenerator{result: Result{Body: "  \n"}}, nil)
		_, err := svc.Generate(context.Background(), "topic", Options{})
		require.ErrorIs(t, err, ErrEmptyResult)
	})

	t.Run("generator failure", func(t *testing.T) {
		boom := errors.New("boom")
		svc := newTestService(&stubGenerator{err: boom}, nil)
		_, err := svc.Generate(context.Background(), "topic", Options{})
		require.ErrorIs(t, err, boom)
	})

	t.Run("stopped", func(t *testing.T) {
		svc := newTestService(&stubGenerator{block: true}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		_, err := svc.Generate(ctx, "topic", Options{})
		require.ErrorIs(t, err, ErrStopped)
	})

	t.Run("timeout", func(t *testing.T) {
		svc := NewService(&stubGenerator{block: true}, nil, WithTimeout(10*time.Millisecond))
		_, err := svc.Generate(context.Background(), "topic", Options{})
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestService_Regenerate_keeps_topic_and_options(t *testing.T) {
	gen := &stubGenerator{result: Result{Body: "v2"}}
	svc := newTestService(gen, newMemStore())

	var o Options
	require.NoError(t, o.SelectValue(Platform, "YouTube Shorts"))
	prev := Script{ID: "old", Topic: "kites", Options: o}

	sc, err := svc.Regenerate(context.Background(), prev)
	require.NoError(t, err)
	assert.NotEqual(t, prev.ID, sc.ID)
	assert.Equal(t, "kites", sc.Topic)
	assert.Equal(t, o, sc.Options)
	assert.Contains(t, gen.prompt, "Platform: YouTube Shorts")
}

func TestService_history_without_store(t *testing.T) {
	svc := newTestService(&stubGenerator{}, nil)

	list, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Get(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_Search(t *testing.T) {
	store := &indexedStore{memStore: newMemStore()}
	svc := newTestService(&stubGenerator{result: Result{Body: "body"}}, store)

	for _, topic := range []string{"kites", "knots", "kite surfing"} {
		_, err := svc.Generate(context.Background(), topic, Options{})
		require.NoError(t, err)
	}

	got, err := svc.Search(context.Background(), "  KITE ", 10)
	require.NoError(t, err)
	assert.Equal(t, "KITE", store.query)
	assert.Len(t, got, 2)

	all, err := svc.Search(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestService_Search_without_index_lists(t *testing.T) {
	svc := newTestService(&stubGenerator{result: Result{Body: "body"}}, newMemStore())
	_, err := svc.Generate(context.Background(), "kites", Options{})
	require.NoError(t, err)

	got, err := svc.Search(context.Background(), "zzz", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestService_history_limit_prunes_after_save(t *testing.T) {
	store := &indexedStore{memStore: newMemStore()}
	svc := NewService(&stubGenerator{result: Result{Body: "body"}}, store, WithHistoryLimit(5))

	_, err := svc.Generate(context.Background(), "kites", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{5}, store.kept)

	n, err := NewService(&stubGenerator{}, newMemStore()).Prune(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, n, "stores without prune support are left alone")
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	sc := Script{Title: "Kites", Body: "## Hook\nWind.", CreatedAt: time.UnixMilli(1700000000000)}

	path, err := Export(dir, sc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "script-1700000000000.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Kites\n\n## Hook\nWind.\n", string(data))

	explicit := filepath.Join(dir, "nested", "out.md")
	path, err = Export(explicit, sc)
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
	assert.FileExists(t, explicit)
}
