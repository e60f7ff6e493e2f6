package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/core/doctor"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/printer"
	"github.com/colonyops/scribe/internal/scribe"
	"github.com/colonyops/scribe/pkg/iojson"
)

type DoctorCmd struct {
	flags   *Flags
	app     *scribe.App
	format  string
	autofix bool
}

func NewDoctorCmd(flags *Flags, app *scribe.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your scribe setup",
		UsageText:   "scribe doctor [options]",
		Description: "Checks configuration, the API key, the identity backend, storage and the clipboard.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "automatically fix issues (e.g., prune history over the limit)",
				Destination: &cmd.autofix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := cmd.app.Doctor.RunChecks(ctx, cmd.flags.ConfigPath, cmd.autofix)

	switch cmd.format {
	case "json":
		return cmd.outputJSON(c, results)
	case "text":
		return cmd.outputText(ctx, results)
	default:
		return fmt.Errorf("unknown format %q (text, json)", cmd.format)
	}
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	tally := doctor.Summarize(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary doctor.Tally    `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: tally.Healthy(),
		Summary: tally,
		Checks:  results,
	}

	if err := iojson.WriteWith(c.Root().Writer, os.Stderr, out); err != nil {
		return err
	}
	if !tally.Healthy() {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) outputText(ctx context.Context, results []doctor.Result) error {
	p := printer.Ctx(ctx)

	for _, result := range results {
		p.Section(result.Name)
		for _, item := range result.Items {
			switch item.Status {
			case doctor.StatusPass:
				p.CheckItem(item.Label, item.Detail)
			case doctor.StatusWarn:
				p.WarnItem(item.Label, item.Detail)
			case doctor.StatusFail:
				p.FailItem(item.Label, item.Detail)
			}
		}
		p.Printf("")
	}

	tally := doctor.Summarize(results)
	p.Printf("%s  %s  %s",
		styles.SuccessTextStyle.Render(fmt.Sprintf("%d passed", tally.Passed)),
		styles.WarningTextStyle.Render(fmt.Sprintf("%d warnings", tally.Warned)),
		styles.ErrorTextStyle.Render(fmt.Sprintf("%d failed", tally.Failed)),
	)

	if !cmd.autofix && tally.Fixable > 0 {
		p.Printf("")
		p.Printf("%s", styles.MutedStyle.Render(fmt.Sprintf("Run 'scribe doctor --autofix' to fix %d issue(s)", tally.Fixable)))
	}

	if !tally.Healthy() {
		return cli.Exit("", 1)
	}
	return nil
}
