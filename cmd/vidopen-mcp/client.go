package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/use-agent/vidopen/models"
)

// apiClient calls the vidopen HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 130 * time.Second},
	}
}

// do sends payload (if any) as JSON and decodes the response into out. Error
// statuses still decode: the API reports failures in the body.
func (c *apiClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

func (c *apiClient) resolve(ctx context.Context, path string, req *models.ResolveRequest) (*models.ResolveResponse, error) {
	var resp models.ResolveResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) selector(ctx context.Context, method string, req *models.SelectorRequest) (*models.SelectorResponse, error) {
	var payload interface{}
	if req != nil {
		payload = req
	}
	var resp models.SelectorResponse
	if err := c.do(ctx, method, "/api/v1/selector", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func errorText(d *models.ErrorDetail, fallback string) string {
	if d == nil {
		return fallback
	}
	msg := fmt.Sprintf("[%s] %s", d.Code, d.Message)
	if d.Hint != "" {
		msg += "\n" + d.Hint
	}
	return msg
}
