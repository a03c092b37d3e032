package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/adpt/pkg/platform"
	"github.com/pseudomuto/adpt/pkg/recipe"
	"github.com/pseudomuto/adpt/pkg/ui"
	"github.com/urfave/cli/v3"
)

func recipesCmd(p clientParams) *cli.Command {
	return &cli.Command{
		Name:   "recipes",
		Usage:  "List custom recipes in a use case",
		Before: requireClient(p.Config),
		Flags:  []cli.Flag{useCaseFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			useCase, err := p.Config.UseCase(cmd.String("usecase"))
			if err != nil {
				return err
			}

			recipes, err := p.Client.ListRecipes(ctx, useCase)
			if err != nil {
				return err
			}

			return ui.Recipes(cmd.Root().Writer, recipes)
		},
	}
}

// schemaCmd prints a recipe's input JSON schema, highlighted when stdout is a
// terminal. With --params the schema is summarized as the flags `adpt run`
// accepts for the recipe.
func schemaCmd(p clientParams) *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Show the input schema of a recipe",
		ArgsUsage: "<recipe>",
		Before:    requireClient(p.Config),
		Flags: []cli.Flag{
			useCaseFlag(),
			&cli.BoolFlag{
				Name:  "params",
				Usage: "list the recipe's parameters instead of the raw schema",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			idOrKey, err := requireArg(cmd, "recipe")
			if err != nil {
				return err
			}

			useCase, err := p.Config.UseCase(cmd.String("usecase"))
			if err != nil {
				return err
			}

			r, err := p.Client.GetRecipe(ctx, useCase, idOrKey)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			if cmd.Bool("params") {
				schema, err := recipe.ParseSchema(r.JSONSchema)
				if err != nil {
					return err
				}

				return ui.Parameters(w, schema.Parameters())
			}

			raw := []byte(r.JSONSchema)
			if len(raw) == 0 || string(raw) == "null" {
				raw = []byte("{}")
			}

			return ui.JSON(w, raw, ui.IsTerminal(w))
		},
	}
}

// runCmd starts a custom recipe.
//
// Parameters come either from a JSON file (--parameters) or from arguments
// after "--", which are typed and checked against the recipe's schema.
//
// Example usage:
//
//	adpt run grpo -- --model llama-3 --epochs 3 --lora
//	adpt run --parameters params.json --gpus 8 grpo
func runCmd(p clientParams) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a custom recipe",
		ArgsUsage: "<recipe> [-- --param value ...]",
		Before:    requireClient(p.Config),
		Flags: []cli.Flag{
			useCaseFlag(),
			nameFlag("name of the job"),
			&cli.StringFlag{
				Name:    "parameters",
				Aliases: []string{"p"},
				Usage:   "JSON file with the recipe parameters",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "compute-pool",
				Usage: "compute pool to run the job on",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.IntFlag{
				Name:  "gpus",
				Usage: "number of GPUs to allocate",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 || args[0] == "" {
				return errors.New("missing required argument <recipe>")
			}

			idOrKey, extra := args[0], args[1:]
			if len(extra) > 0 && extra[0] == "--" {
				extra = extra[1:]
			}

			if cmd.String("parameters") != "" && len(extra) > 0 {
				return errors.New("recipe parameters can be given with --parameters or as arguments, not both")
			}

			gpus := cmd.Int("gpus")
			if gpus < 0 {
				return errors.Errorf("invalid number of GPUs: %d", gpus)
			}

			useCase, err := p.Config.UseCase(cmd.String("usecase"))
			if err != nil {
				return err
			}

			r, err := p.Client.GetRecipe(ctx, useCase, idOrKey)
			if err != nil {
				return err
			}

			schema, err := recipe.ParseSchema(r.JSONSchema)
			if err != nil {
				return err
			}

			var params map[string]any
			if path := cmd.String("parameters"); path != "" {
				params, err = readParameters(path)
			} else {
				params, err = schema.ParseArgs(extra)
			}
			if err != nil {
				return err
			}

			if err := schema.Validate(params); err != nil {
				return err
			}

			job, err := p.Client.RunRecipe(ctx, platform.RunRequest{
				UseCase:     useCase,
				Recipe:      r.ID,
				Parameters:  params,
				Name:        cmd.String("name"),
				ComputePool: cmd.String("compute-pool"),
				GPUs:        uint32(gpus),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "Job started with ID: %s\n", job.ID)
			return nil
		},
	}
}

func readParameters(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read parameters file %s", path)
	}

	params := map[string]any{}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, errors.Wrapf(err, "failed to parse parameters file %s", path)
	}

	return params, nil
}
