// Package cmd provides CLI commands for the adpt tool.
//
// This package implements the command-line interface for the Adaptive ML
// platform. Each command is built from its fx dependencies and registered in
// the "commands" value group; Run assembles them into the root command and
// executes it as part of the fx application lifecycle.
//
// # Available Commands
//
//   - upload: Upload a dataset, chunked for files larger than 5 MB
//   - publish: Publish a custom recipe file
//   - recipes: List custom recipes in a use case
//   - schema: Show a recipe's input schema or parameters
//   - run: Start a custom recipe with typed parameters
//   - jobs: List running and pending jobs
//   - job: Show (and optionally follow) a single job
//   - cancel: Cancel a job
//   - models: List models in a use case or the whole registry
//   - config: Interactively configure the platform URL, API key and use case
//   - set-api-key: Store the API key in the OS keyring
//
// # Use Cases
//
// Commands that operate on a use case accept --usecase (-u). When it's
// omitted the configured default use case is used.
//
// # Example Usage
//
//	adpt config                                   # First time setup
//	adpt upload train.jsonl                       # Upload a dataset
//	adpt schema --params grpo                     # Show recipe parameters
//	adpt run grpo -- --model llama-3 --epochs 3   # Start a job
//	adpt job --follow <job id>                    # Watch it run
package cmd
