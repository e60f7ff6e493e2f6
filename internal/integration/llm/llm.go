// Package llm generates scripts through an OpenAI-compatible chat completions
// API. The default endpoint is Gemini's OpenAI-compatible surface.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"github.com/colonyops/scribe/internal/core/logging"
	"github.com/colonyops/scribe/internal/core/script"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-1.5-flash"
)

var ErrMissingAPIKey = errors.New("missing API key configuration")

// Config configures the generator.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	// Structured requests a JSON {title, script} reply. When false the reply
	// is used verbatim as the script body.
	Structured bool
	MaxRetries int
}

// scriptResponse is the structured reply.
type scriptResponse struct {
	Title  string `json:"title" jsonschema_description:"A short, catchy title for the video"`
	Script string `json:"script" jsonschema_description:"The full video script formatted in markdown"`
}

// GenerateSchema reflects a JSON schema for structured outputs.
func GenerateSchema[T any]() any {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var scriptResponseSchema = GenerateSchema[scriptResponse]()

// Generator implements script.Generator.
type Generator struct {
	client openai.Client
	cfg    Config
	log    zerolog.Logger
}

var _ script.Generator = (*Generator)(nil)

// New creates a generator. It fails when no API key is configured.
func New(cfg Config, opts ...option.RequestOption) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	reqOpts = append(reqOpts, opts...)

	return &Generator{
		client: openai.NewClient(reqOpts...),
		cfg:    cfg,
		log:    logging.Component("llm").With().Str("model", cfg.Model).Logger(),
	}, nil
}

// Generate sends prompt and returns the generated script.
func (g *Generator) Generate(ctx context.Context, prompt string) (script.Result, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: g.cfg.Model,
	}
	if g.cfg.Temperature > 0 {
		params.Temperature = openai.Float(g.cfg.Temperature)
	}
	if g.cfg.Structured {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "video_script",
					Description: openai.String("A video script with its title"),
					Schema:      scriptResponseSchema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	g.log.Debug().Int("prompt_len", len(prompt)).Bool("structured", g.cfg.Structured).Msg("requesting completion")

	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return script.Result{}, classify(err)
	}
	if len(completion.Choices) == 0 {
		return script.Result{}, errors.New("no choices in completion")
	}

	raw := completion.Choices[0].Message.Content
	if strings.TrimSpace(raw) == "" {
		return script.Result{}, fmt.Errorf("empty completion, finish reason: %s", completion.Choices[0].FinishReason)
	}

	model := completion.Model
	if model == "" {
		model = g.cfg.Model
	}

	if !g.cfg.Structured {
		return script.Result{Body: raw, Model: model}, nil
	}

	var resp scriptResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return script.Result{}, fmt.Errorf("parse structured completion: %w", err)
	}
	return script.Result{Title: resp.Title, Body: resp.Script, Model: model}, nil
}

// ErrUnauthorized reports a rejected API key.
var ErrUnauthorized = errors.New("API key was rejected")

// ErrRateLimited reports the provider throttled the request.
var ErrRateLimited = errors.New("generation rate limit reached")

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}
	return fmt.Errorf("chat completion: %w", err)
}
