package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pseudomuto/adpt/pkg/platform"
	"github.com/pseudomuto/adpt/pkg/ui"
	"github.com/urfave/cli/v3"
)

const defaultFollowInterval = 2 * time.Second

func jobsCmd(p clientParams) *cli.Command {
	return &cli.Command{
		Name:   "jobs",
		Usage:  "List running and pending jobs",
		Before: requireClient(p.Config),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			jobs, err := p.Client.ListActiveJobs(ctx)
			if err != nil {
				return err
			}

			return ui.Jobs(cmd.Root().Writer, jobs)
		},
	}
}

// jobCmd shows a single job and its stages.
//
// With --follow the job is polled until it reaches a terminal status. The job
// is only printed again when something about it changed.
//
// Example usage:
//
//	adpt job --follow 5f1c4a57-9a3e-4d8e-bb6f-0d0d3f3f9e01
func jobCmd(p clientParams) *cli.Command {
	return &cli.Command{
		Name:      "job",
		Usage:     "Show the status of a job",
		ArgsUsage: "<job id>",
		Before:    requireClient(p.Config),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "poll the job until it finishes",
			},
			&cli.DurationFlag{
				Name:   "interval",
				Usage:  "polling interval used with --follow",
				Value:  defaultFollowInterval,
				Hidden: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := jobID(cmd)
			if err != nil {
				return err
			}

			if !cmd.Bool("follow") {
				job, err := p.Client.GetJob(ctx, id)
				if err != nil {
					return err
				}

				return ui.Job(cmd.Root().Writer, job)
			}

			return followJob(ctx, p.Client, id, cmd.Duration("interval"), cmd.Root().Writer)
		},
	}
}

func followJob(ctx context.Context, client *platform.Client, id uuid.UUID, interval time.Duration, w io.Writer) error {
	var last string

	for {
		job, err := client.GetJob(ctx, id)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := ui.Job(&buf, job); err != nil {
			return err
		}

		if out := buf.String(); out != last {
			if last != "" {
				fmt.Fprintln(w)
			}

			if _, err := io.WriteString(w, out); err != nil {
				return err
			}
			last = out
		}

		if !job.Status.Active() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func cancelCmd(p clientParams) *cli.Command {
	return &cli.Command{
		Name:      "cancel",
		Usage:     "Cancel a job",
		ArgsUsage: "<job id>",
		Before:    requireClient(p.Config),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := jobID(cmd)
			if err != nil {
				return err
			}

			job, err := p.Client.CancelJob(ctx, id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Root().Writer, "Job %s is %s\n", job.ID, ui.JobStatus(job.Status))
			return nil
		},
	}
}

func jobID(cmd *cli.Command) (uuid.UUID, error) {
	arg, err := requireArg(cmd, "job id")
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "invalid job id %q", arg)
	}

	return id, nil
}
