package platform

import (
	"context"

	"github.com/google/uuid"
	"github.com/machinebox/graphql"
	"github.com/pkg/errors"
)

// JobsPageSize is the number of jobs requested per page.
const JobsPageSize = 20

func (c *Client) run(ctx context.Context, query string, vars map[string]any, out any) error {
	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	c.authorize(req.Header)

	if err := c.gql.Run(ctx, req, out); err != nil {
		return errors.Wrap(err, "graphql request failed")
	}

	return nil
}

// ListRecipes returns the custom recipes of a use case.
func (c *Client) ListRecipes(ctx context.Context, useCase string) ([]Recipe, error) {
	var resp struct {
		Recipes []Recipe `json:"customRecipes"`
	}

	if err := c.run(ctx, listRecipesQuery, map[string]any{"usecase": useCase}, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to list recipes")
	}

	return resp.Recipes, nil
}

// GetRecipe looks up a custom recipe by id or key.
func (c *Client) GetRecipe(ctx context.Context, useCase, idOrKey string) (*Recipe, error) {
	var resp struct {
		Recipe *Recipe `json:"customRecipe"`
	}

	vars := map[string]any{"usecase": useCase, "idOrKey": idOrKey}
	if err := c.run(ctx, getRecipeQuery, vars, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to get recipe %s", idOrKey)
	}

	if resp.Recipe == nil {
		return nil, errors.Errorf("recipe %s not found in use case %s", idOrKey, useCase)
	}

	return resp.Recipe, nil
}

// GetJob returns a job with its stages.
func (c *Client) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	var resp struct {
		Job *Job `json:"job"`
	}

	if err := c.run(ctx, getJobQuery, map[string]any{"id": id.String()}, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to get job %s", id)
	}

	if resp.Job == nil {
		return nil, errors.Errorf("job %s not found", id)
	}

	return resp.Job, nil
}

// ListActiveJobs returns every pending or running custom recipe job, following
// pagination cursors until the last page.
func (c *Client) ListActiveJobs(ctx context.Context) ([]Job, error) {
	var (
		jobs   []Job
		cursor *string
	)

	for {
		var resp struct {
			Jobs struct {
				Nodes    []Job `json:"nodes"`
				PageInfo struct {
					HasNextPage bool    `json:"hasNextPage"`
					EndCursor   *string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"jobs"`
		}

		page := map[string]any{"first": JobsPageSize}
		if cursor != nil {
			page["after"] = *cursor
		}

		vars := map[string]any{
			"filter": map[string]any{
				"kind":   []string{"CUSTOM"},
				"status": []string{string(JobRunning), string(JobPending)},
			},
			"page":  page,
			"order": []map[string]any{{"field": "created_at", "order": "DESC"}},
		}

		if err := c.run(ctx, listJobsQuery, vars, &resp); err != nil {
			return nil, errors.Wrap(err, "failed to list jobs")
		}

		jobs = append(jobs, resp.Jobs.Nodes...)
		if !resp.Jobs.PageInfo.HasNextPage || resp.Jobs.PageInfo.EndCursor == nil {
			return jobs, nil
		}

		cursor = resp.Jobs.PageInfo.EndCursor
	}
}

// CancelJob requests cancellation of a job.
func (c *Client) CancelJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	var resp struct {
		Job Job `json:"cancelJob"`
	}

	if err := c.run(ctx, cancelJobMutation, map[string]any{"jobId": id.String()}, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to cancel job %s", id)
	}

	return &resp.Job, nil
}

// ListModelServices returns the models deployed in a use case.
func (c *Client) ListModelServices(ctx context.Context, useCase string) ([]ModelService, error) {
	var resp struct {
		UseCase *struct {
			ModelServices []ModelService `json:"modelServices"`
		} `json:"useCase"`
	}

	if err := c.run(ctx, listModelsQuery, map[string]any{"usecase": useCase}, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to list models")
	}

	if resp.UseCase == nil {
		return nil, errors.Errorf("use case %s not found", useCase)
	}

	return resp.UseCase.ModelServices, nil
}

// ListModels returns every model in the registry.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var resp struct {
		Models []Model `json:"models"`
	}

	if err := c.run(ctx, listAllModelsQuery, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to list models")
	}

	return resp.Models, nil
}

// RunRecipe starts a job for a custom recipe.
func (c *Client) RunRecipe(ctx context.Context, req RunRequest) (*Job, error) {
	var resp struct {
		Job Job `json:"createJob"`
	}

	input := map[string]any{
		"useCase":     req.UseCase,
		"recipe":      req.Recipe,
		"args":        req.Parameters,
		"name":        nilIfEmpty(req.Name),
		"computePool": nilIfEmpty(req.ComputePool),
		"numGpus":     req.GPUs,
	}

	if err := c.run(ctx, runRecipeMutation, map[string]any{"input": input}, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to run recipe %s", req.Recipe)
	}

	return &resp.Job, nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}

	return s
}
