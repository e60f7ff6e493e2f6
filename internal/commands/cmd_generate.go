package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/scribe/internal/core/logging"
	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/printer"
	"github.com/colonyops/scribe/internal/scribe"
	"github.com/colonyops/scribe/pkg/iojson"
)

// GenerateRequest is the JSON accepted by `scribe generate -f`.
type GenerateRequest struct {
	Topic   string            `json:"topic"`
	Options map[string]string `json:"options,omitempty"`
}

type GenerateCmd struct {
	flags *Flags
	app   *scribe.App

	// flags
	topic      string
	options    map[script.OptionKey]*string
	raw        bool
	jsonOutput bool
	out        string
	input      iojson.FileReader[GenerateRequest]
}

// NewGenerateCmd creates a new generate command
func NewGenerateCmd(flags *Flags, app *scribe.App) *GenerateCmd {
	cmd := &GenerateCmd{
		flags:   flags,
		app:     app,
		options: map[script.OptionKey]*string{},
	}
	for _, k := range script.OptionKeys() {
		cmd.options[k] = new(string)
	}
	return cmd
}

// Register adds the generate command to the application
func (cmd *GenerateCmd) Register(app *cli.Command) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "topic",
			Aliases:     []string{"t"},
			Usage:       "what the video is about",
			Destination: &cmd.topic,
		},
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "print markdown without terminal rendering",
			Destination: &cmd.raw,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print the saved script as JSON",
			Destination: &cmd.jsonOutput,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "also write the script to this file or directory",
			Destination: &cmd.out,
		},
		cmd.input.Flag(),
	}
	for _, k := range script.OptionKeys() {
		flags = append(flags, &cli.StringFlag{
			Name:        k.String(),
			Usage:       fmt.Sprintf("%s (%s)", k.Label(), strings.Join(k.Choices(), ", ")),
			Destination: cmd.options[k],
		})
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Generate a script without the interactive UI",
		UsageText: "scribe generate --topic <topic> [options]",
		Description: `Generates a video script for a topic and saves it to history.

Options not given use their first choice. A JSON request of the form
{"topic": "...", "options": {"style": "Humorous"}} can be passed with -f or
piped on stdin; flags override its values.`,
		Flags:  flags,
		Action: cmd.run,
	})

	return app
}

func (cmd *GenerateCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	req, err := cmd.request()
	if err != nil {
		return err
	}

	ctx = logging.WithFlow(ctx, "cli.generate")
	start := time.Now()
	p.Infof("Generating script for %q", req.Topic)

	opts, err := cmd.resolveOptions(req)
	if err != nil {
		return err
	}

	sc, err := cmd.app.Scripts.Generate(ctx, req.Topic, opts)
	switch {
	case errors.Is(err, script.ErrNotConfigured):
		return fmt.Errorf("%w: set llm.api_key or $%s", err, cmd.app.Config.LLM.APIKeyEnv)
	case err != nil && sc.ID == "":
		return err
	case err != nil:
		p.Warnf("Script generated but not saved: %v", err)
	default:
		p.Successf("Generated %q in %s", sc.Title, time.Since(start).Round(100*time.Millisecond))
	}

	if cmd.out != "" {
		path, err := script.Export(cmd.out, sc)
		if err != nil {
			return err
		}
		p.Successf("Exported to %s", path)
	}

	return writeScript(c.Root().Writer, sc, cmd.jsonOutput, cmd.raw)
}

func (cmd *GenerateCmd) request() (GenerateRequest, error) {
	var req GenerateRequest
	if cmd.topic == "" && cmd.input.Provided() {
		r, err := cmd.input.Read()
		if err != nil {
			return req, err
		}
		req = r
	}
	if cmd.topic != "" {
		req.Topic = cmd.topic
	}
	if strings.TrimSpace(req.Topic) == "" {
		return req, script.ErrEmptyTopic
	}
	return req, nil
}

func (cmd *GenerateCmd) resolveOptions(req GenerateRequest) (script.Options, error) {
	var opts script.Options
	for name, v := range req.Options {
		k, err := script.ParseOptionKey(name)
		if err != nil {
			return opts, err
		}
		if err := opts.SelectValue(k, v); err != nil {
			return opts, err
		}
	}
	for k, v := range cmd.options {
		if *v == "" {
			continue
		}
		if err := opts.SelectValue(k, *v); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// scriptInfo is the JSON output format for generate and history.
type scriptInfo struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	Options   map[string]string `json:"options"`
	Model     string            `json:"model,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func newScriptInfo(sc script.Script, withBody bool) scriptInfo {
	info := scriptInfo{
		ID:        sc.ID,
		Topic:     sc.Topic,
		Title:     sc.Title,
		Options:   sc.Options.Values(),
		Model:     sc.Model,
		CreatedAt: sc.CreatedAt,
	}
	if withBody {
		info.Body = sc.Body
	}
	return info
}

// writeScript prints sc as JSON, raw markdown, or rendered markdown when w is
// a terminal.
func writeScript(w io.Writer, sc script.Script, asJSON, raw bool) error {
	if asJSON {
		return iojson.WriteWith(w, os.Stderr, newScriptInfo(sc, true))
	}

	width, tty := terminalWidth(w)
	if raw || !tty {
		_, err := io.WriteString(w, sc.Markdown())
		return err
	}

	out, err := styles.RenderMarkdown(sc.Markdown(), width)
	if err != nil {
		return fmt.Errorf("render script: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80, true
	}
	return min(width, 100), true
}
