package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pseudomuto/adpt/pkg/cmd"
	"github.com/pseudomuto/adpt/pkg/config"
	"github.com/pseudomuto/adpt/pkg/platform"
	"go.uber.org/fx"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

// Long enough for an interrupted upload to abort its remote session.
const stopTimeout = 45 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fx.New(
		fx.NopLogger,
		fx.StopTimeout(stopTimeout),
		fx.Supply(
			os.Args,
			&cmd.Version{
				Version:   version,
				Commit:    commit,
				Timestamp: date,
			},
		),
		fx.Provide(func() context.Context { return ctx }),
		config.Module,
		platform.Module,
		cmd.Module,
	).Run()
}
