package cmd

import (
	"context"

	"github.com/pseudomuto/adpt/pkg/ui"
	"github.com/urfave/cli/v3"
)

func modelsCmd(p clientParams) *cli.Command {
	return &cli.Command{
		Name:   "models",
		Usage:  "List models deployed in a use case",
		Before: requireClient(p.Config),
		Flags: []cli.Flag{
			useCaseFlag(),
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "list every model in the registry instead",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("all") {
				models, err := p.Client.ListModels(ctx)
				if err != nil {
					return err
				}

				return ui.Models(cmd.Root().Writer, models)
			}

			useCase, err := p.Config.UseCase(cmd.String("usecase"))
			if err != nil {
				return err
			}

			services, err := p.Client.ListModelServices(ctx, useCase)
			if err != nil {
				return err
			}

			return ui.ModelServices(cmd.Root().Writer, services)
		},
	}
}
