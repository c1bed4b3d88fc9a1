package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/banshee-data/station.planner/internal/httputil"
	"github.com/banshee-data/station.planner/internal/kmedian"
)

// Client drives a running planner panel over HTTP.
type Client struct {
	HTTP    httputil.HTTPClient
	BaseURL string
}

// NewClient creates a panel client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient httputil.HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(nil)
	}
	return &Client{HTTP: httpClient, BaseURL: strings.TrimRight(baseURL, "/")}
}

// State fetches the current driver state.
func (c *Client) State(ctx context.Context) (StateResponse, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodGet, "/api/state", nil, &out)
	return out, err
}

// Reset re-seeds the centers.
func (c *Client) Reset(ctx context.Context) (StateResponse, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodPost, "/api/reset", nil, &out)
	return out, err
}

// Run re-seeds and runs to a terminal state.
func (c *Client) Run(ctx context.Context) (RunResponse, error) {
	var out RunResponse
	err := c.do(ctx, http.MethodPost, "/api/run", nil, &out)
	return out, err
}

// Restarts asks the panel for n reset-and-run cycles.
func (c *Client) Restarts(ctx context.Context, n int) (RunResponse, error) {
	var out RunResponse
	q := url.Values{"n": {strconv.Itoa(n)}}
	err := c.do(ctx, http.MethodPost, "/api/restarts?"+q.Encode(), nil, &out)
	return out, err
}

// SetParams replaces the panel's parameters.
func (c *Client) SetParams(ctx context.Context, p kmedian.Params) (StateResponse, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodPost, "/api/params", p, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
