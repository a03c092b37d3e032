package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/machinebox/graphql"
	"github.com/pkg/errors"
)

const graphqlRoute = "graphql"

type (
	// Client talks to the Adaptive platform. REST endpoints are used for chunked
	// uploads and GraphQL for everything else.
	Client struct {
		baseURL *url.URL
		apiKey  string
		http    *http.Client
		gql     *graphql.Client
	}

	// Option customizes a Client.
	Option func(*Client)

	// APIError is returned for non-success responses from REST endpoints.
	APIError struct {
		Status  int
		Message string
	}
)

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Message)
}

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for the platform at baseURL authenticating with apiKey.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base URL: %s", baseURL)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid base URL: %s", baseURL)
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL: u,
		apiKey:  apiKey,
		http:    &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.gql = graphql.NewClient(c.endpoint(graphqlRoute), graphql.WithHTTPClient(c.http))
	return c, nil
}

// BaseURL returns the root URL of the platform.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(route string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: route}).String()
}

func (c *Client) authorize(h http.Header) {
	h.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) doJSON(ctx context.Context, method, route string, body, out any) error {
	var payload io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		payload = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(route), payload)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, route)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", route)
	}

	return nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return &APIError{Status: resp.StatusCode, Message: responseMessage(resp)}
}

func responseMessage(resp *http.Response) string {
	data, _ := io.ReadAll(resp.Body)
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}

	return resp.Status
}
