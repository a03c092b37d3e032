package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// publishCmd uploads a recipe file as a custom recipe.
//
// Example usage:
//
//	adpt publish --name "GRPO tuned" grpo.py
func publishCmd(p clientParams) *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish a custom recipe",
		ArgsUsage: "<recipe file>",
		Before:    requireClient(p.Config),
		Flags: []cli.Flag{
			useCaseFlag(),
			nameFlag("name of the recipe"),
			keyFlag("key of the recipe"),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "recipe file")
			if err != nil {
				return err
			}

			useCase, err := p.Config.UseCase(cmd.String("usecase"))
			if err != nil {
				return err
			}

			info, err := os.Stat(path)
			if err != nil {
				return errors.Wrapf(err, "failed to read recipe %s", path)
			}

			if info.IsDir() {
				return errors.Errorf("recipe must be a single file: %s", path)
			}

			recipe, err := p.Client.PublishRecipe(ctx, useCase, cmd.String("name"), cmd.String("key"), path)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "Recipe published successfully with ID: %s\n", recipe.ID)
			return nil
		},
	}
}
