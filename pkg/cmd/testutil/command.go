package testutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
)

// Output holds what a command wrote while running.
type Output struct {
	Stdout string
	Stderr string
}

// RunCommand executes a command with a background context, discarding its
// output.
func RunCommand(t *testing.T, command *cli.Command, args []string) error {
	t.Helper()

	_, err := run(context.Background(), command, "", args)
	return err
}

// RunCommandWithContext executes a command with a custom context, discarding
// its output.
func RunCommandWithContext(ctx context.Context, t *testing.T, command *cli.Command, args []string) error {
	t.Helper()

	_, err := run(ctx, command, "", args)
	return err
}

// RunCommandWithOutput executes a command reading stdin from the given string
// and returns everything it wrote to stdout and stderr.
func RunCommandWithOutput(t *testing.T, command *cli.Command, stdin string, args ...string) (Output, error) {
	t.Helper()

	return run(context.Background(), command, stdin, args)
}

func run(ctx context.Context, command *cli.Command, stdin string, args []string) (Output, error) {
	var stdout, stderr bytes.Buffer

	app := &cli.Command{
		Name:      "test",
		Commands:  []*cli.Command{command},
		Reader:    strings.NewReader(stdin),
		Writer:    &stdout,
		ErrWriter: &stderr,
	}

	// Prepend command name to args
	fullArgs := append([]string{"test", command.Name}, args...)

	err := app.Run(ctx, fullArgs)
	return Output{Stdout: stdout.String(), Stderr: stderr.String()}, err
}
