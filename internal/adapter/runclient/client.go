// Package runclient fetches agent run traces from the trace API.
package runclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/xiaot623/agentdesk/internal/domain"
)

// Client is an HTTP client for the trace API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new trace API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListRuns returns every run recorded for an agent as a flat list.
// The API may answer with a bare array or with {"runs": [...]}.
func (c *Client) ListRuns(ctx context.Context, agentID string) ([]domain.AgentRun, error) {
	endpoint := c.baseURL + "/runs?agent_id=" + url.QueryEscape(agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trace api returned status %d: %s", resp.StatusCode, string(body))
	}

	raw := gjson.ParseBytes(body)
	if !raw.IsArray() {
		raw = raw.Get("runs")
	}
	if !raw.IsArray() {
		return nil, fmt.Errorf("unexpected runs payload")
	}

	runs := make([]domain.AgentRun, 0, len(raw.Array()))
	if err := json.Unmarshal([]byte(raw.Raw), &runs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}
	return runs, nil
}
