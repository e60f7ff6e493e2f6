package tui

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/core/throttle"
	"github.com/colonyops/scribe/internal/core/toast"
	"github.com/colonyops/scribe/internal/integration/identity/memidentity"
)

const testCode = "424242"

var testStart = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// manualTimers collects dismissal callbacks so tests decide when they fire.
type manualTimers struct {
	mu  sync.Mutex
	fns []func()
}

type manualTimer struct {
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.stopped = true
	return true
}

func (m *manualTimers) AfterFunc(_ time.Duration, fn func()) toast.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns = append(m.fns, fn)
	return &manualTimer{}
}

// FireLast runs the most recently scheduled callback.
func (m *manualTimers) FireLast() {
	m.mu.Lock()
	fn := m.fns[len(m.fns)-1]
	m.mu.Unlock()
	fn()
}

func newTestEngine() (*toast.Engine, *time.Time, *manualTimers) {
	now := testStart
	timers := &manualTimers{}
	e := toast.NewEngine(
		toast.WithClock(func() time.Time { return now }),
		toast.WithAfterFunc(timers.AfterFunc),
	)
	return e, &now, timers
}

// memStore is an in-memory script history, newest last.
type memStore struct {
	mu      sync.Mutex
	scripts []script.Script
}

func (s *memStore) Save(_ context.Context, sc script.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, sc)
	return nil
}

func (s *memStore) List(_ context.Context, limit int) ([]script.Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.scripts)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, id string) (script.Script, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.scripts {
		if sc.ID == id {
			return sc, nil
		}
	}
	return script.Script{}, script.ErrNotFound
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sc := range s.scripts {
		if sc.ID == id {
			s.scripts = slices.Delete(s.scripts, i, i+1)
			return nil
		}
	}
	return script.ErrNotFound
}

// stubGenerator returns a fixed script, or blocks until ctx is done when
// block is set.
type stubGenerator struct {
	block bool
}

func (g stubGenerator) Generate(ctx context.Context, _ string) (script.Result, error) {
	if g.block {
		<-ctx.Done()
		return script.Result{}, ctx.Err()
	}
	return script.Result{Title: "Stub title", Body: "Hook.\n\nBody.", Model: "stub"}, nil
}

type testEnv struct {
	*env
	provider *memidentity.Provider
	store    *memStore
	timers   *manualTimers
	now      *time.Time
	copied   []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, stubGenerator{})
}

func newTestEnvWith(t *testing.T, gen script.Generator) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	p, err := memidentity.New(
		memidentity.WithArgon2Params(memidentity.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}),
		memidentity.WithCodeGenerator(func() (string, error) { return testCode, nil }),
	)
	require.NoError(t, err)

	engine, now, timers := newTestEngine()
	store := &memStore{}
	clock := func() time.Time { return *now }

	te := &testEnv{provider: p, store: store, timers: timers, now: now}
	te.env = &env{
		ctx:     context.Background(),
		cfg:     &cfg,
		auth:    auth.NewService(p, auth.DefaultPolicies(), zerolog.Nop(), throttle.WithClock(clock)),
		scripts: script.NewService(gen, store, script.WithClock(clock)),
		toasts:  engine,
		openURL: func(string) error { return errNoBrowser },
	}
	te.clipboard = func(text string) error {
		te.copied = append(te.copied, text)
		return nil
	}
	return te
}

// toastMessage returns the visible toast text, or "".
func (te *testEnv) toastMessage() string {
	n, ok := te.toasts.Current()
	if !ok {
		return ""
	}
	return n.Message
}

// run executes cmd and any batched commands, returning every message
// produced. Commands that wait on timers must not be passed here.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// find returns the first message of type T.
func find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// feed sends msgs to s in order and returns the final screen and the
// command of the last message.
func feed(s screen, msgs ...tea.Msg) (screen, tea.Cmd) {
	var cmd tea.Cmd
	for _, m := range msgs {
		s, cmd = s.Update(m)
	}
	return s, cmd
}
