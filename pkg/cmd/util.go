package cmd

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/adpt/pkg/config"
	"github.com/pseudomuto/adpt/pkg/platform"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

// clientParams is shared by every command that talks to the platform.
type clientParams struct {
	fx.In

	Config *config.Config
	Client *platform.Client
}

func useCaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "usecase",
		Aliases: []string{"u"},
		Usage:   "the use case to operate on (defaults to the configured default use case)",
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}
}

func nameFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "name",
		Aliases: []string{"n"},
		Usage:   usage,
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}
}

func keyFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "key",
		Aliases: []string{"k"},
		Usage:   usage,
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}
}

// requireArg returns the first positional argument or a usage error naming it.
func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.Args().First())
	if v == "" {
		return "", errors.Errorf("missing required argument <%s>", name)
	}

	return v, nil
}

// defaultName derives a name from a file path and a timestamp,
// e.g. train.jsonl -> train-1700000000.
func defaultName(path string, now time.Time) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}

	return stem + "-" + strconv.FormatInt(now.Unix(), 10)
}
