package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type (
	graphqlError struct {
		Message string `json:"message"`
	}

	graphqlResponse struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
)

// UploadDataset uploads a small dataset file in a single request.
func (c *Client) UploadDataset(ctx context.Context, useCase, name, key, path string) (*Dataset, error) {
	var resp struct {
		Dataset *Dataset `json:"createDataset"`
	}

	contentType, err := DatasetContentType(path)
	if err != nil {
		return nil, err
	}

	vars := map[string]any{"usecase": useCase, "name": name, "key": key}
	if err := c.uploadFile(ctx, uploadDatasetMutation, vars, path, contentType, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to upload dataset %s", path)
	}

	if resp.Dataset == nil {
		return nil, errors.New("no dataset returned from upload")
	}

	return resp.Dataset, nil
}

// PublishRecipe uploads a single recipe file as a custom recipe.
func (c *Client) PublishRecipe(ctx context.Context, useCase, name, key, path string) (*Recipe, error) {
	var resp struct {
		Recipe *Recipe `json:"createCustomRecipe"`
	}

	vars := map[string]any{"usecase": useCase, "name": nilIfEmpty(name), "key": nilIfEmpty(key)}
	if err := c.uploadFile(ctx, publishRecipeMutation, vars, path, "text/x-python", &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to publish recipe %s", path)
	}

	if resp.Recipe == nil {
		return nil, errors.New("no recipe returned from publish")
	}

	return resp.Recipe, nil
}

// uploadFile sends a GraphQL multipart request with the file bound to the
// $file variable.
func (c *Client) uploadFile(
	ctx context.Context,
	query string,
	vars map[string]any,
	path string,
	contentType string,
	out any,
) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	vars["file"] = nil
	operations, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		return errors.Wrap(err, "failed to encode operations")
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	if err := form.WriteField("operations", string(operations)); err != nil {
		return errors.Wrap(err, "failed to write operations")
	}

	if err := form.WriteField("map", `{"0": ["variables.file"]}`); err != nil {
		return errors.Wrap(err, "failed to write map")
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="0"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", contentType)

	part, err := form.CreatePart(header)
	if err != nil {
		return errors.Wrap(err, "failed to create file part")
	}

	if _, err := io.Copy(part, f); err != nil {
		return errors.Wrapf(err, "failed to read file: %s", path)
	}

	if err := form.Close(); err != nil {
		return errors.Wrap(err, "failed to finish multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(graphqlRoute), body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", form.FormDataContentType())
	c.authorize(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "upload request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return err
	}

	var gr graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	if len(gr.Errors) > 0 {
		return errors.Errorf("graphql: %s", gr.Errors[0].Message)
	}

	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return errors.New("no data returned")
	}

	return errors.Wrap(json.Unmarshal(gr.Data, out), "failed to decode response data")
}
