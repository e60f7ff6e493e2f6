package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/scribe/internal/core/logging"
	"github.com/colonyops/scribe/pkg/tmpl"
)

const DefaultTimeout = 2 * time.Minute

// Service generates scripts and records them in the history store.
type Service struct {
	gen     Generator
	store   Store
	prompt  *tmpl.Template
	timeout time.Duration
	keep    int
	now     func() time.Time
	newID   func() string
	log     zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTimeout bounds each generator call. Non-positive values disable it.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithPromptTemplate replaces the built-in prompt. See ParsePromptTemplate.
func WithPromptTemplate(t *tmpl.Template) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.prompt = t
		}
	}
}

// WithHistoryLimit keeps at most n scripts after each save. Zero keeps all.
func WithHistoryLimit(n int) ServiceOption {
	return func(s *Service) { s.keep = n }
}

// WithClock replaces the clock used for CreatedAt.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDFunc replaces the script ID generator.
func WithIDFunc(fn func() string) ServiceOption {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a service. store may be nil, in which case history
// operations report ErrNotFound or an empty list. A nil gen makes Generate
// fail with ErrNotConfigured.
func NewService(gen Generator, store Store, opts ...ServiceOption) *Service {
	s := &Service{
		gen:     gen,
		store:   store,
		prompt:  promptTemplate,
		timeout: DefaultTimeout,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
		log:     logging.Component("script"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate builds the prompt for topic, calls the generator and saves the
// result. Cancelling ctx stops the generation and returns ErrStopped.
func (s *Service) Generate(ctx context.Context, topic string, opts Options) (Script, error) {
	topic = strings.TrimSpace(topic)
	prompt, err := renderPrompt(s.prompt, topic, opts)
	if err != nil {
		return Script{}, err
	}

	if s.gen == nil {
		return Script{}, ErrNotConfigured
	}

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	res, err := s.gen.Generate(genCtx, prompt)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			s.log.Info().Str("topic", topic).Msg("generation stopped")
			return Script{}, ErrStopped
		}
		return Script{}, fmt.Errorf("generate script: %w", err)
	}

	body := strings.TrimSpace(res.Body)
	if body == "" {
		return Script{}, ErrEmptyResult
	}

	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = topic
	}

	sc := Script{
		ID:        s.newID(),
		Topic:     topic,
		Title:     title,
		Body:      body,
		Options:   opts,
		Model:     res.Model,
		CreatedAt: s.now(),
	}

	s.log.Info().
		Str("script_id", sc.ID).
		Str("model", sc.Model).
		Dur("elapsed", sc.CreatedAt.Sub(start)).
		Msg("script generated")

	if s.store != nil {
		if err := s.store.Save(ctx, sc); err != nil {
			return sc, fmt.Errorf("save script: %w", err)
		}
		if s.keep > 0 {
			if _, err := s.Prune(ctx, s.keep); err != nil {
				s.log.Warn().Err(err).Msg("prune history")
			}
		}
	}
	return sc, nil
}

// Regenerate produces a new script for the topic and options of prev.
func (s *Service) Regenerate(ctx context.Context, prev Script) (Script, error) {
	return s.Generate(ctx, prev.Topic, prev.Options)
}

// History lists the most recent scripts, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Script, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx, limit)
}

// Get loads a script from history.
func (s *Service) Get(ctx context.Context, id string) (Script, error) {
	if s.store == nil {
		return Script{}, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// Delete removes a script from history.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNotFound
	}
	return s.store.Delete(ctx, id)
}

// Search lists scripts whose topic or title contains query. Stores without
// search support fall back to History.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Script, error) {
	query = strings.TrimSpace(query)
	searcher, ok := s.store.(Searcher)
	if query == "" || !ok {
		return s.History(ctx, limit)
	}
	return searcher.Search(ctx, query, limit)
}

// Prune keeps the newest keep scripts and returns how many were removed.
func (s *Service) Prune(ctx context.Context, keep int) (int64, error) {
	pruner, ok := s.store.(Pruner)
	if !ok {
		return 0, nil
	}
	n, err := pruner.Prune(ctx, keep)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("removed", n).Int("keep", keep).Msg("history pruned")
	}
	return n, nil
}
