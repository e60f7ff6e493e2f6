package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/printer"
	"github.com/colonyops/scribe/internal/scribe"
	"github.com/colonyops/scribe/pkg/iojson"
)

const shortIDLen = 8

type HistoryCmd struct {
	flags *Flags
	app   *scribe.App

	// flags
	limit      int
	search     string
	jsonOutput bool
	raw        bool
	keep       int
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags, app *scribe.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "List and manage generated scripts",
		UsageText: "scribe history [--search <text>] [--limit <n>] [--json]",
		Description: `Lists saved scripts, newest first.

Scripts can be referenced by their full ID or any unique prefix.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "maximum number of scripts to list (defaults to history.page_size)",
				Destination: &cmd.limit,
			},
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"s"},
				Usage:       "only list scripts whose topic or title contains this text",
				Destination: &cmd.search,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runList,
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print a saved script",
				UsageText: "scribe history show <id> [--raw] [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "raw",
						Usage:       "print markdown without terminal rendering",
						Destination: &cmd.raw,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				ShellComplete: ScriptIDCompleter(cmd.app),
				Action:        cmd.runShow,
			},
			{
				Name:          "rm",
				Aliases:       []string{"delete"},
				Usage:         "Delete a saved script",
				UsageText:     "scribe history rm <id>",
				ShellComplete: ScriptIDCompleter(cmd.app),
				Action:        cmd.runDelete,
			},
			{
				Name:      "prune",
				Usage:     "Delete all but the newest scripts",
				UsageText: "scribe history prune [--keep <n>]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "keep",
						Usage:       "number of scripts to keep (defaults to history.max_entries)",
						Value:       -1,
						Destination: &cmd.keep,
					},
				},
				Action: cmd.runPrune,
			},
		},
	})

	return app
}

func (cmd *HistoryCmd) runList(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() > 0 {
		return fmt.Errorf("unknown history command %q", c.Args().First())
	}

	limit := cmd.limit
	if limit <= 0 {
		limit = cmd.app.Config.History.PageSize
	}

	scripts, err := cmd.app.Scripts.Search(ctx, cmd.search, limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if len(scripts) == 0 {
		if !cmd.jsonOutput {
			printer.Ctx(ctx).Infof("No scripts found")
		}
		return nil
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, sc := range scripts {
			if err := iojson.WriteLine(out, newScriptInfo(sc, false)); err != nil {
				return fmt.Errorf("encode script: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tTITLE\tTOPIC")
	for _, sc := range scripts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			shortID(sc.ID),
			sc.CreatedAt.Local().Format("2006-01-02 15:04"),
			truncate(sc.Title, 40),
			truncate(sc.Topic, 40),
		)
	}
	return w.Flush()
}

func (cmd *HistoryCmd) runShow(ctx context.Context, c *cli.Command) error {
	sc, err := cmd.resolve(ctx, c.Args().First())
	if err != nil {
		return err
	}
	return writeScript(c.Root().Writer, sc, cmd.jsonOutput, cmd.raw)
}

func (cmd *HistoryCmd) runDelete(ctx context.Context, c *cli.Command) error {
	sc, err := cmd.resolve(ctx, c.Args().First())
	if err != nil {
		return err
	}
	if err := cmd.app.Scripts.Delete(ctx, sc.ID); err != nil {
		return fmt.Errorf("delete script: %w", err)
	}
	printer.Ctx(ctx).Successf("Deleted %q", sc.Title)
	return nil
}

func (cmd *HistoryCmd) runPrune(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)

	keep := cmd.keep
	if keep < 0 {
		keep = cmd.app.Config.History.MaxEntries
		if keep == 0 {
			p.Infof("History is unbounded; pass --keep to prune")
			return nil
		}
	}

	removed, err := cmd.app.Scripts.Prune(ctx, keep)
	if err != nil {
		return err
	}
	if removed == 0 {
		p.Infof("Nothing to prune")
		return nil
	}
	p.Successf("Pruned %d script(s)", removed)
	return nil
}

// resolve finds a script by ID or unique ID prefix.
func (cmd *HistoryCmd) resolve(ctx context.Context, ref string) (script.Script, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return script.Script{}, errors.New("script id is required")
	}

	sc, err := cmd.app.Scripts.Get(ctx, ref)
	if err == nil {
		return sc, nil
	}
	if !errors.Is(err, script.ErrNotFound) {
		return script.Script{}, err
	}

	all, err := cmd.app.Scripts.History(ctx, 0)
	if err != nil {
		return script.Script{}, err
	}
	var matches []script.Script
	for _, s := range all {
		if strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return script.Script{}, fmt.Errorf("%s: %w", ref, script.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		fmt.Fprintf(os.Stderr, "%q matches %d scripts:\n", ref, len(matches))
		for _, m := range matches {
			fmt.Fprintf(os.Stderr, "  %s  %s\n", m.ID, m.Title)
		}
		return script.Script{}, fmt.Errorf("ambiguous script id %q", ref)
	}
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
