package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/scribe"
)

// ScriptIDCompleter returns a ShellCompleteFunc that suggests short IDs of
// recent scripts as positional completions. Set this as the ShellComplete
// field on any cli.Command that accepts a script ID.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func ScriptIDCompleter(app *scribe.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		// Delegate to default flag completion when typing a flag
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Scripts == nil {
			return
		}
		scripts, err := app.Scripts.History(ctx, app.Config.History.PageSize)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, s := range scripts {
			_, _ = fmt.Fprintln(w, shortID(s.ID))
		}
	}
}
