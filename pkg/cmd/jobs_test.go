package cmd

import (
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/pseudomuto/adpt/pkg/cmd/testutil"
	"github.com/stretchr/testify/require"
)

var testJobID = uuid.MustParse("5f1c4a57-9a3e-4d8e-bb6f-0d0d3f3f9e01")

func job(status string, stages ...map[string]any) map[string]any {
	return map[string]any{
		"job": map[string]any{
			"id":     testJobID.String(),
			"name":   "fine-tune",
			"status": status,
			"stages": stages,
		},
	}
}

func TestJobsCommand(t *testing.T) {
	t.Run("active jobs", func(t *testing.T) {
		var pages int
		fake := testutil.TestPlatform(t).Handle("ListJobs", func(vars map[string]any) (any, error) {
			pages++

			page, _ := vars["page"].(map[string]any)
			if page["after"] == nil {
				return map[string]any{"jobs": map[string]any{
					"nodes":    []map[string]any{{"id": testJobID.String(), "name": "nightly", "status": "RUNNING"}},
					"pageInfo": map[string]any{"hasNextPage": true, "endCursor": "c1"},
				}}, nil
			}

			return map[string]any{"jobs": map[string]any{
				"nodes":    []map[string]any{{"id": uuid.NewString(), "name": "weekly", "status": "PENDING"}},
				"pageInfo": map[string]any{"hasNextPage": false},
			}}, nil
		})

		out, err := testutil.RunCommandWithOutput(t, jobsCmd(clientParams{Config: fake.Config(), Client: fake.Client()}), "")
		require.NoError(t, err)
		require.Equal(t, 2, pages)
		require.Contains(t, out.Stdout, testJobID.String())
		require.Contains(t, out.Stdout, "● Running")
		require.Contains(t, out.Stdout, "○ Pending")
	})

	t.Run("no jobs", func(t *testing.T) {
		fake := testutil.TestPlatform(t).Respond("ListJobs", map[string]any{"jobs": map[string]any{
			"nodes":    []any{},
			"pageInfo": map[string]any{"hasNextPage": false},
		}})

		out, err := testutil.RunCommandWithOutput(t, jobsCmd(clientParams{Config: fake.Config(), Client: fake.Client()}), "")
		require.NoError(t, err)
		require.Equal(t, "No running or pending jobs.\n", out.Stdout)
	})
}

func TestJobCommand(t *testing.T) {
	t.Run("show", func(t *testing.T) {
		fake := testutil.TestPlatform(t).Respond("GetJob", job("COMPLETED",
			map[string]any{"name": "train", "status": "DONE", "info": map[string]any{
				"__typename":          "TrainingJobStageOutput",
				"processedNumSamples": 200,
				"totalNumSamples":     200,
			}},
		))

		out, err := testutil.RunCommandWithOutput(t, jobCmd(clientParams{Config: fake.Config(), Client: fake.Client()}), "",
			testJobID.String(),
		)
		require.NoError(t, err)
		require.Contains(t, out.Stdout, "✓ Completed")
		require.Contains(t, out.Stdout, "train")
		require.Contains(t, out.Stdout, "200/200 (100%)")
	})

	t.Run("follow", func(t *testing.T) {
		var calls atomic.Int32
		fake := testutil.TestPlatform(t).Handle("GetJob", func(map[string]any) (any, error) {
			if calls.Add(1) < 3 {
				return job("RUNNING"), nil
			}

			return job("FAILED"), nil
		})

		out, err := testutil.RunCommandWithOutput(t, jobCmd(clientParams{Config: fake.Config(), Client: fake.Client()}), "",
			"--follow", "--interval", "1ms", testJobID.String(),
		)
		require.NoError(t, err)
		require.Equal(t, int32(3), calls.Load())

		// The unchanged second poll isn't printed again.
		require.Equal(t, 2, strings.Count(out.Stdout, "Status:"))
		require.Contains(t, out.Stdout, "● Running")
		require.Contains(t, out.Stdout, "✗ Failed")
	})

	t.Run("errors", func(t *testing.T) {
		fake := testutil.TestPlatform(t).Respond("GetJob", map[string]any{"job": nil})
		p := clientParams{Config: fake.Config(), Client: fake.Client()}

		_, err := testutil.RunCommandWithOutput(t, jobCmd(p), "")
		require.EqualError(t, err, "missing required argument <job id>")

		_, err = testutil.RunCommandWithOutput(t, jobCmd(p), "", "not-a-uuid")
		require.ErrorContains(t, err, `invalid job id "not-a-uuid"`)

		_, err = testutil.RunCommandWithOutput(t, jobCmd(p), "", testJobID.String())
		require.EqualError(t, err, "job "+testJobID.String()+" not found")
	})
}

func TestCancelCommand(t *testing.T) {
	var canceled any
	fake := testutil.TestPlatform(t).Handle("CancelJob", func(vars map[string]any) (any, error) {
		canceled = vars["jobId"]
		return map[string]any{"cancelJob": map[string]any{"id": testJobID.String(), "status": "CANCELED"}}, nil
	})

	out, err := testutil.RunCommandWithOutput(t, cancelCmd(clientParams{Config: fake.Config(), Client: fake.Client()}), "",
		testJobID.String(),
	)
	require.NoError(t, err)
	require.Equal(t, testJobID.String(), canceled)
	require.Equal(t, "Job "+testJobID.String()+" is ⊘ Canceled\n", out.Stdout)
}
