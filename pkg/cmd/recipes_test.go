package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pseudomuto/adpt/pkg/cmd/testutil"
	"github.com/pseudomuto/adpt/pkg/consts"
	"github.com/stretchr/testify/require"
)

var grpoSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"model":  map[string]any{"type": "string", "description": "model to tune"},
		"epochs": map[string]any{"type": "integer", "default": 1},
		"lora":   map[string]any{"type": "boolean"},
	},
	"required": []string{"model"},
}

func recipePlatform(t *testing.T) *testutil.PlatformFixture {
	t.Helper()

	return testutil.TestPlatform(t).
		Respond("GetCustomRecipes", map[string]any{"customRecipes": []map[string]any{
			{"id": "r1", "key": "grpo", "name": "GRPO", "description": "Group relative policy optimization"},
		}}).
		Handle("GetRecipe", func(vars map[string]any) (any, error) {
			if vars["idOrKey"] != "grpo" {
				return map[string]any{"customRecipe": nil}, nil
			}

			return map[string]any{"customRecipe": map[string]any{
				"id":         "r1",
				"key":        "grpo",
				"name":       "GRPO",
				"jsonSchema": grpoSchema,
			}}, nil
		})
}

func TestRecipesCommand(t *testing.T) {
	fake := recipePlatform(t)

	out, err := testutil.RunCommandWithOutput(t, recipesCmd(clientParams{Config: fake.Config(), Client: fake.Client()}), "")
	require.NoError(t, err)
	require.Contains(t, out.Stdout, "GRPO")
	require.Contains(t, out.Stdout, "Group relative policy optimization")
}

func TestSchemaCommand(t *testing.T) {
	fake := recipePlatform(t)
	p := clientParams{Config: fake.Config(), Client: fake.Client()}

	t.Run("raw", func(t *testing.T) {
		out, err := testutil.RunCommandWithOutput(t, schemaCmd(p), "", "grpo")
		require.NoError(t, err)
		require.Contains(t, out.Stdout, `"required": [`)
		require.Contains(t, out.Stdout, `"epochs": {`)
		require.NotContains(t, out.Stdout, "\x1b[")
	})

	t.Run("params", func(t *testing.T) {
		out, err := testutil.RunCommandWithOutput(t, schemaCmd(p), "", "--params", "grpo")
		require.NoError(t, err)
		require.Contains(t, out.Stdout, "--epochs")
		require.Contains(t, out.Stdout, "--model")
		require.Contains(t, out.Stdout, "model to tune")
	})

	t.Run("not found", func(t *testing.T) {
		_, err := testutil.RunCommandWithOutput(t, schemaCmd(p), "", "sft")
		require.EqualError(t, err, "recipe sft not found in use case "+testutil.UseCase)
	})
}

func TestRunCommand(t *testing.T) {
	runJobID := uuid.MustParse("5f1c4a57-9a3e-4d8e-bb6f-0d0d3f3f9e01")

	setup := func(t *testing.T) (*testutil.PlatformFixture, *map[string]any) {
		t.Helper()

		var input map[string]any
		fake := recipePlatform(t).Handle("RunCustomRecipe", func(vars map[string]any) (any, error) {
			input, _ = vars["input"].(map[string]any)
			return map[string]any{"createJob": map[string]any{"id": runJobID.String(), "name": "run", "status": "PENDING"}}, nil
		})

		return fake, &input
	}

	t.Run("trailing arguments", func(t *testing.T) {
		fake, input := setup(t)
		cmd := runCmd(clientParams{Config: fake.Config(), Client: fake.Client()})

		out, err := testutil.RunCommandWithOutput(t, cmd, "",
			"--name", "nightly", "grpo", "--", "--model", "llama", "--epochs", "3", "--lora",
		)
		require.NoError(t, err)
		require.Equal(t, "Job started with ID: "+runJobID.String()+"\n", out.Stdout)

		require.Equal(t, map[string]any{
			"useCase":     testutil.UseCase,
			"recipe":      "r1",
			"args":        map[string]any{"model": "llama", "epochs": float64(3), "lora": true},
			"name":        "nightly",
			"computePool": nil,
			"numGpus":     float64(1),
		}, *input)
	})

	t.Run("parameters file", func(t *testing.T) {
		fake, input := setup(t)
		cmd := runCmd(clientParams{Config: fake.Config(), Client: fake.Client()})

		path := filepath.Join(t.TempDir(), "params.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"model":"llama","epochs":2}`), consts.ModeFile))

		_, err := testutil.RunCommandWithOutput(t, cmd, "",
			"--parameters", path, "--gpus", "8", "--compute-pool", "a100", "grpo",
		)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"model": "llama", "epochs": float64(2)}, (*input)["args"])
		require.Equal(t, float64(8), (*input)["numGpus"])
		require.Equal(t, "a100", (*input)["computePool"])
		require.Nil(t, (*input)["name"])
	})

	t.Run("errors", func(t *testing.T) {
		badParams := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(badParams, []byte(`{"epochs":"three"}`), consts.ModeFile))

		tests := []struct {
			name string
			args []string
			err  string
		}{
			{
				name: "missing recipe",
				err:  "missing required argument <recipe>",
			},
			{
				name: "parameters and arguments",
				args: []string{"--parameters", badParams, "grpo", "--", "--model", "llama"},
				err:  "not both",
			},
			{
				name: "missing required parameter",
				args: []string{"grpo", "--", "--epochs", "3"},
				err:  "missing required recipe parameters: --model",
			},
			{
				name: "unknown parameter",
				args: []string{"grpo", "--", "--model", "llama", "--lr", "0.1"},
				err:  "unknown recipe parameter --lr",
			},
			{
				name: "invalid parameters file",
				args: []string{"--parameters", badParams, "grpo"},
				err:  "invalid recipe parameters",
			},
			{
				name: "negative gpus",
				args: []string{"--gpus=-1", "grpo"},
				err:  "invalid number of GPUs: -1",
			},
			{
				name: "unknown recipe",
				args: []string{"sft"},
				err:  "recipe sft not found",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fake, input := setup(t)
				cmd := runCmd(clientParams{Config: fake.Config(), Client: fake.Client()})

				_, err := testutil.RunCommandWithOutput(t, cmd, "", tt.args...)
				require.ErrorContains(t, err, tt.err)
				require.Nil(t, *input)
			})
		}
	})
}
