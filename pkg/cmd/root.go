package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/adpt/pkg/config"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Version    *Version
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run creates the adpt CLI application and registers it with the fx lifecycle.
//
// The CLI runs in the background once the application has started and shuts
// the application down with exit code 0 on success or 1 on failure. Stopping
// the application (e.g. on SIGINT) cancels the command's context and waits for
// it to return, which gives an in-flight upload the chance to abort its remote
// session.
//
// Global Flags:
//   - --verbose, -v: Enable debug logging on stderr
//   - --version, -V: Print the version
//
// Example usage:
//
//	adpt upload --usecase support-bot train.jsonl
//	adpt --verbose run grpo -- --epochs 3
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Root().Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Root().Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Root().Writer, "Date:", p.Version.Timestamp)
	}

	app := newApp(p.Version.Version, p.Commands)

	ctx, cancel := context.WithCancel(p.Ctx)
	done := make(chan struct{})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)

				code := 0
				if err := app.Run(ctx, p.Args); err != nil {
					slog.Error("Error running command", "err", err)
					code = 1
				}

				_ = p.Shutdowner.Shutdown(fx.ExitCode(code))
			}()

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()

			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func newApp(version string, commands []*cli.Command) *cli.Command {
	// -v belongs to --verbose.
	cli.VersionFlag = &cli.BoolFlag{
		Name:        "version",
		Aliases:     []string{"V"},
		Usage:       "print the version",
		HideDefault: true,
		Local:       true,
	}

	return &cli.Command{
		Name:  "adpt",
		Usage: "A command line client for the Adaptive ML platform",
		Description: `adpt manages datasets, recipes and jobs on the Adaptive platform.

Run "adpt config" once to set the platform URL, API key and default use case.
Settings can also be provided through ADAPTIVE_BASE_URL, ADAPTIVE_API_KEY and
DEFAULT_USE_CASE, or a .env file in the working directory.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("ADPT_VERBOSE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := slog.LevelInfo
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: level})))
			return ctx, nil
		},
		Commands: commands,
	}
}

// requireClient fails the command early when the platform can't be reached
// with the current configuration.
func requireClient(cfg *config.Config) func(context.Context, *cli.Command) (context.Context, error) {
	return func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if cfg == nil {
			return ctx, errors.New("configuration not loaded")
		}

		return ctx, cfg.Validate()
	}
}
