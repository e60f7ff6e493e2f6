// Package script turns a topic and presentation options into a generated
// video script and keeps a history of generated scripts.
package script

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyTopic  = errors.New("please enter a topic before generating")
	ErrEmptyResult = errors.New("generator returned an empty script")
	ErrStopped     = errors.New("generation stopped")
	ErrNotFound    = errors.New("script not found")

	// ErrNotConfigured is returned by a Service built without a Generator.
	ErrNotConfigured = errors.New("missing API key configuration")
)

// Script is a generated script.
type Script struct {
	ID        string
	Topic     string
	Title     string
	Body      string
	Options   Options
	Model     string
	CreatedAt time.Time
}

// Markdown renders the script as a standalone markdown document.
func (s Script) Markdown() string {
	if s.Title == "" {
		return s.Body + "\n"
	}
	return "# " + s.Title + "\n\n" + s.Body + "\n"
}

// Result is the raw output of a Generator.
type Result struct {
	Title string
	Body  string
	Model string
}

// Generator produces script text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Result, error)
}

// Store persists generated scripts.
type Store interface {
	Save(ctx context.Context, s Script) error
	List(ctx context.Context, limit int) ([]Script, error)
	Get(ctx context.Context, id string) (Script, error)
	Delete(ctx context.Context, id string) error
}

// Searcher is implemented by stores that can filter history by text.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Script, error)
}

// Pruner is implemented by stores that can drop old history.
type Pruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}
