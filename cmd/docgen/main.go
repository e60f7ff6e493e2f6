// Command docgen generates CLI reference documentation from the scribe
// command definitions. Output is written to docs/cli-reference.md.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	docs "github.com/urfave/cli-docs/v3"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/commands"
	"github.com/colonyops/scribe/internal/scribe"
)

func main() {
	flags := &commands.Flags{}
	app := &scribe.App{}

	root := &cli.Command{
		Name:      "scribe",
		Usage:     "Generate video scripts with AI",
		UsageText: "scribe [global options] command [command options]",
		Description: `Scribe turns a topic into a ready-to-record video script.

Sign in, describe your video, pick an audience, style, language and
platform, and scribe drafts the script. Every script is saved to a local
history you can browse, copy and export.

Run 'scribe' with no arguments to open the interactive app.
Run 'scribe generate --topic "..."' to generate from the command line.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("SCRIBE_LOG_LEVEL"),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "path to log file (defaults to <data-dir>/scribe.log)",
				Sources: cli.EnvVars("SCRIBE_LOG_FILE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars("SCRIBE_CONFIG"),
				Value:   "~/.config/scribe/config.yaml",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "path to data directory",
				Sources: cli.EnvVars("SCRIBE_DATA_DIR"),
				Value:   "~/.local/share/scribe",
			},
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, app)
	root.Flags = append(root.Flags, tuiCmd.Flags()...)

	root = commands.NewGenerateCmd(flags, app).Register(root)
	root = commands.NewHistoryCmd(flags, app).Register(root)
	root = commands.NewConfigCmd(flags).Register(root)
	root = commands.NewIdentityCmd(flags, app).Register(root)
	root = commands.NewDoctorCmd(flags, app).Register(root)

	md, err := docs.ToMarkdown(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating docs: %v\n", err)
		os.Exit(1)
	}

	outPath := "docs/cli-reference.md"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating %s: %v\n", filepath.Dir(outPath), err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outPath)
}
