package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/adpt/pkg/config"
	"github.com/pseudomuto/adpt/pkg/consts"
	"github.com/pseudomuto/adpt/pkg/credentials"
	"github.com/pseudomuto/adpt/pkg/ui"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type configParams struct {
	fx.In

	Config *config.Config
	Keys   credentials.Store
}

// configCmd interactively writes the config file and stores the API key in
// the OS keyring.
//
// Existing values are offered as defaults. Leaving the API key empty keeps the
// stored key.
func configCmd(p configParams) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configure the platform URL, API key and default use case",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := p.Config.Path

			f, err := config.LoadFilePath(path)
			switch {
			case err == nil:
			case errors.Is(err, os.ErrNotExist):
				f = &config.File{}
			default:
				return err
			}

			baseURL := f.BaseURL
			if baseURL == "" {
				baseURL = consts.DefaultBaseURL
			}

			prompt := ui.NewPrompter(cmd.Root().Reader, cmd.Root().Writer)

			if baseURL, err = prompt.Ask("Adaptive base URL", baseURL); err != nil {
				return err
			}

			if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
				return errors.Errorf("invalid base URL: %s", baseURL)
			}

			apiKey, err := prompt.AskSecret("API key (leave empty to keep the current key)")
			if err != nil {
				return err
			}

			useCase, err := prompt.Ask("Default use case", f.DefaultUseCase)
			if err != nil {
				return err
			}

			if apiKey != "" {
				if err := p.Keys.Set(apiKey); err != nil {
					return err
				}
			}

			f.BaseURL = baseURL
			f.DefaultUseCase = useCase
			if err := f.Save(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "Configuration saved to %s\n", path)
			return nil
		},
	}
}

func setAPIKeyCmd(p configParams) *cli.Command {
	return &cli.Command{
		Name:      "set-api-key",
		Usage:     "Store the API key in the OS keyring",
		ArgsUsage: "<api key>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			key, err := requireArg(cmd, "api key")
			if err != nil {
				return err
			}

			if err := p.Keys.Set(key); err != nil {
				return err
			}

			fmt.Fprintln(cmd.Root().Writer, "API key saved to the OS keyring")
			return nil
		},
	}
}
