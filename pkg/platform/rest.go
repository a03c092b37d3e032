package platform

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pseudomuto/adpt/pkg/upload"
)

const (
	initUploadRoute  = "v1/upload/init"
	uploadPartRoute  = "v1/upload/part"
	abortUploadRoute = "v1/upload/abort"
)

var _ upload.Remote = (*Client)(nil)

type (
	initUploadRequest struct {
		ContentType     string         `json:"content_type"`
		Metadata        map[string]any `json:"metadata,omitempty"`
		TotalPartsCount uint64         `json:"total_parts_count"`
	}

	initUploadResponse struct {
		SessionID string `json:"session_id"`
	}

	abortUploadRequest struct {
		SessionID string `json:"session_id"`
	}
)

// InitUpload opens a chunked upload session.
func (c *Client) InitUpload(ctx context.Context, req upload.InitRequest) (string, error) {
	var resp initUploadResponse
	err := c.doJSON(ctx, http.MethodPost, initUploadRoute, initUploadRequest{
		ContentType:     req.ContentType,
		Metadata:        req.Metadata,
		TotalPartsCount: req.TotalParts,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.SessionID == "" {
		return "", errors.New("upload init response is missing session_id")
	}

	return resp.SessionID, nil
}

// UploadPart streams a single part of an open session.
func (c *Client) UploadPart(
	ctx context.Context,
	sessionID string,
	partNumber uint64,
	body io.Reader,
	size int64,
) error {
	u, err := url.Parse(c.endpoint(uploadPartRoute))
	if err != nil {
		return errors.Wrap(err, "failed to build part URL")
	}

	q := u.Query()
	q.Set("session_id", sessionID)
	q.Set("part_number", strconv.FormatUint(partNumber, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), io.NopCloser(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to send part %d", partNumber)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &upload.PartError{
			PartNumber: partNumber,
			Status:     resp.StatusCode,
			Body:       responseMessage(resp),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// AbortUpload cancels an open session.
func (c *Client) AbortUpload(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, abortUploadRoute, abortUploadRequest{SessionID: sessionID}, nil)
}

// FinalizeUpload creates a dataset from a fully uploaded session.
func (c *Client) FinalizeUpload(ctx context.Context, req upload.FinalizeRequest) (*upload.Artifact, error) {
	var resp struct {
		Dataset struct {
			DatasetID string  `json:"datasetId"`
			Key       *string `json:"key"`
		} `json:"createDatasetFromMultipartUpload"`
	}

	input := map[string]any{
		"useCase":         req.UseCase,
		"name":            req.Name,
		"key":             req.Key,
		"source":          nil,
		"uploadSessionId": req.SessionID,
	}

	if err := c.run(ctx, createDatasetFromMultipartMutation, map[string]any{"input": input}, &resp); err != nil {
		return nil, err
	}

	if resp.Dataset.DatasetID == "" {
		return nil, errors.New("no dataset returned from upload session")
	}

	artifact := &upload.Artifact{ID: resp.Dataset.DatasetID, Key: req.Key}
	if resp.Dataset.Key != nil {
		artifact.Key = *resp.Dataset.Key
	}

	return artifact, nil
}
