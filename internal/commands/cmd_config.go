package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/printer"
	"github.com/colonyops/scribe/pkg/iojson"
)

const redacted = "********"

type ConfigCmd struct {
	flags  *Flags
	format string
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "scribe config validate [options]",
				Description: "Validates the configuration file, checking the prompt template, theme name and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.runValidate,
			},
			{
				Name:        "show",
				Usage:       "Print the effective configuration",
				UsageText:   "scribe config show",
				Description: "Prints the loaded configuration with defaults applied. Secrets are redacted.",
				Action:      cmd.runShow,
			},
		},
	})

	return app
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validationReport struct {
	Valid    bool                       `json:"valid"`
	Config   string                     `json:"config"`
	Errors   []validationError          `json:"errors,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigCmd) report() validationReport {
	cfg := cmd.flags.Config
	r := validationReport{
		Config:   cmd.flags.ConfigPath,
		Warnings: cfg.Warnings(),
	}

	if err := cfg.ValidateDeep(cmd.flags.ConfigPath); err != nil {
		var fields criterio.FieldErrors
		if errors.As(err, &fields) {
			for _, fe := range fields {
				r.Errors = append(r.Errors, validationError{Field: fe.Field, Message: fe.Err.Error()})
			}
		} else {
			r.Errors = append(r.Errors, validationError{Message: err.Error()})
		}
	}

	r.Valid = len(r.Errors) == 0
	return r
}

func (cmd *ConfigCmd) runValidate(ctx context.Context, c *cli.Command) error {
	r := cmd.report()

	switch cmd.format {
	case "json":
		if err := iojson.WriteWith(c.Root().Writer, os.Stderr, r); err != nil {
			return err
		}
		if !r.Valid {
			return cli.Exit("", 1)
		}
		return nil
	case "text":
	default:
		return fmt.Errorf("unknown format %q (text, json)", cmd.format)
	}

	p := printer.Ctx(ctx)

	for _, w := range r.Warnings {
		p.WarnItem(w.Category, w.Message)
	}
	for _, e := range r.Errors {
		p.FailItem(e.Field, e.Message)
	}

	p.Printf("")
	if r.Valid {
		p.Successf("Configuration is valid")
		return nil
	}

	p.Errorf("%d error(s) found", len(r.Errors))
	return cli.Exit("", 1)
}

func (cmd *ConfigCmd) runShow(_ context.Context, c *cli.Command) error {
	cfg := redact(*cmd.flags.Config)

	enc := yaml.NewEncoder(c.Root().Writer)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// redact blanks secrets in a copy of cfg.
func redact(cfg config.Config) config.Config {
	hide := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	hide(&cfg.LLM.APIKey)
	hide(&cfg.Identity.APIKey)
	hide(&cfg.Identity.SigningKey)
	hide(&cfg.OAuth.Google.ClientSecret)
	return cfg
}
