package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/logging"
	"github.com/colonyops/scribe/internal/integration/identity/httpidentity"
	"github.com/colonyops/scribe/internal/printer"
	"github.com/colonyops/scribe/internal/scribe"
)

const shutdownTimeout = 5 * time.Second

type IdentityCmd struct {
	flags *Flags
	app   *scribe.App

	// flags
	listen string
}

// NewIdentityCmd creates a new identity command
func NewIdentityCmd(flags *Flags, app *scribe.App) *IdentityCmd {
	return &IdentityCmd{flags: flags, app: app}
}

// Register adds the identity command to the application
func (cmd *IdentityCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "identity",
		Usage: "Identity service commands",
		Commands: []*cli.Command{
			{
				Name:      "serve",
				Usage:     "Serve the in-memory identity backend over HTTP",
				UsageText: "scribe identity serve [--listen <addr>]",
				Description: `Runs a development identity service speaking the JSON API used by the
http backend. Accounts live in memory and verification codes are written to
the log. Point another scribe at it with identity.backend: http.

When identity.api_key is set, clients must send it as a bearer token.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "listen",
						Usage:       "address to listen on (defaults to identity.listen)",
						Sources:     cli.EnvVars("SCRIBE_IDENTITY_LISTEN"),
						Destination: &cmd.listen,
					},
				},
				Action: cmd.runServe,
			},
		},
	})

	return app
}

func (cmd *IdentityCmd) runServe(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.app.Config.Identity
	addr := cmd.listen
	if addr == "" {
		addr = cfg.Listen
	}

	provider, err := cmd.servedProvider()
	if err != nil {
		return err
	}

	var opts []httpidentity.HandlerOption
	if cfg.APIKey != "" {
		opts = append(opts, httpidentity.RequireAPIKey(cfg.APIKey))
	}

	log := logging.Component("identity")
	srv := &http.Server{
		Handler:           httpidentity.NewHandler(provider, log, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	printer.Ctx(ctx).Successf("Identity service listening on http://%s", ln.Addr())
	log.Info().Str("addr", ln.Addr().String()).Bool("api_key", cfg.APIKey != "").Msg("identity service started")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("identity service stopped")
	return nil
}

// servedProvider returns the app's in-memory provider. An http backend would
// proxy to itself, so a fresh memory provider is served instead.
func (cmd *IdentityCmd) servedProvider() (auth.Provider, error) {
	if cmd.app.Config.Identity.Backend == config.BackendMemory {
		return cmd.app.Identity, nil
	}
	cfg := *cmd.app.Config
	cfg.Identity.Backend = config.BackendMemory
	return scribe.NewIdentity(&cfg)
}
