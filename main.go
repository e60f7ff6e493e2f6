package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/commands"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/data/db"
	"github.com/colonyops/scribe/internal/printer"
	"github.com/colonyops/scribe/internal/profiler"
	"github.com/colonyops/scribe/internal/scribe"
	"github.com/colonyops/scribe/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() falls back
	// to runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func buildInfo() scribe.BuildInfo {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	return scribe.BuildInfo{Version: v, Commit: c, Date: d}
}

func build() string {
	b := buildInfo()
	short := b.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s) %s", b.Version, short, b.Date)
}

func main() {
	// A .env in the working directory may carry GEMINI_API_KEY and SCRIBE_*
	// settings. Variables already set in the environment win.
	_ = godotenv.Load()

	ctx := printer.NewContext(context.Background(), printer.New(os.Stderr))

	var (
		logCloser func()
		scribeApp = &scribe.App{}
		database  *db.DB
		prof      *profiler.Server
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "scribe",
		Usage:     "Generate video scripts with AI",
		UsageText: "scribe [global options] command [command options]",
		Description: `Scribe turns a topic into a ready-to-record video script.

Sign in, describe your video, pick an audience, style, language and
platform, and scribe drafts the script. Every script is saved to a local
history you can browse, copy and export.

Run 'scribe' with no arguments to open the interactive app.
Run 'scribe generate --topic "..."' to generate from the command line.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("SCRIBE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/scribe.log)",
				Sources:     cli.EnvVars("SCRIBE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("SCRIBE_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("SCRIBE_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "profile-addr",
				Usage:       "serve pprof on this address (e.g. 127.0.0.1:6060)",
				Sources:     cli.EnvVars("SCRIBE_PROFILE_ADDR"),
				Hidden:      true,
				Destination: &flags.ProfileAddr,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Always log to a file so the TUI and script output stay clean;
			// use explicit path or default to <datadir>/scribe.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = cfg.LogFile()
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			if flags.ProfileAddr != "" {
				prof = profiler.New(flags.ProfileAddr)
				if err := prof.Start(ctx); err != nil {
					return ctx, err
				}
			}

			// Apply configured theme (validation ensures name is valid)
			if palette, ok := styles.GetPalette(cfg.TUI.Theme); ok {
				styles.SetTheme(palette)
			}

			// Open database connection
			database, err = db.Open(cfg.DataDir, db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeout,
			})
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			a, err := scribe.NewApp(cfg, database, buildInfo())
			if err != nil {
				return ctx, err
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*scribeApp = *a

			log.Debug().
				Str("version", a.Build.Version).
				Str("identity", cfg.Identity.Backend).
				Str("model", cfg.LLM.Model).
				Msg("scribe started")

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			scribeApp.Close()

			if prof != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := prof.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("failed to stop profiler")
				}
			}

			// Close database connection
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, scribeApp)

	app = commands.NewGenerateCmd(flags, scribeApp).Register(app)
	app = commands.NewHistoryCmd(flags, scribeApp).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)
	app = commands.NewIdentityCmd(flags, scribeApp).Register(app)
	app = commands.NewDoctorCmd(flags, scribeApp).Register(app)

	// Register TUI flags on root command
	app.Flags = append(app.Flags, tuiCmd.Flags()...)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'scribe --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
