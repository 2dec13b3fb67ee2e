// Package connector downloads user files from the third-party file connector.
package connector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xiaot623/agentdesk/internal/adapter/apierror"
)

// Client is an HTTP client for the connector file API.
type Client struct {
	baseURL    string
	apiKey     string
	appID      string
	httpClient *http.Client
}

// NewClient creates a new connector client.
func NewClient(baseURL, apiKey, appID string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		appID:   appID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Download fetches the bytes of fileID on behalf of userID.
func (c *Client) Download(ctx context.Context, userID, fileID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/files/%s/download?user_id=%s", c.baseURL, url.PathEscape(fileID), url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("authorization", "Bearer "+c.apiKey)
	}
	if c.appID != "" {
		req.Header.Set("x-app-id", c.appID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierror.StatusError("connector", resp.StatusCode, body)
	}
	return body, nil
}
