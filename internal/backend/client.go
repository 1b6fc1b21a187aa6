// Package backend is the REST client for the external PPE detection
// service. Every call is bounded by the configured request timeout and
// any failure surfaces as a *RequestError; callers keep their cached
// state and treat the service as offline.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/model"
)

// RequestError wraps any transport or non-2xx failure from the
// detection service.
type RequestError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s: HTTP %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("backend %s: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg config.BackendConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health probes liveness. A nil error means the service is online.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) Workers(ctx context.Context) ([]model.Worker, error) {
	var out []model.Worker
	if err := c.doJSON(ctx, http.MethodGet, "/workers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddWorker(ctx context.Context, w model.Worker) error {
	return c.doJSON(ctx, http.MethodPost, "/workers", w, nil)
}

func (c *Client) DeleteWorker(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/workers/"+id, nil, nil)
}

func (c *Client) Violations(ctx context.Context) ([]model.Violation, error) {
	var out []model.Violation
	if err := c.doJSON(ctx, http.MethodGet, "/violations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateViolation(ctx context.Context, id string, fields map[string]any) error {
	return c.doJSON(ctx, http.MethodPut, "/violations/"+id, fields, nil)
}

func (c *Client) Alerts(ctx context.Context) ([]model.Alert, error) {
	var out []model.Alert
	if err := c.doJSON(ctx, http.MethodGet, "/alerts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarkAlertRead(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/alerts/%d/read", id), nil, nil)
}

func (c *Client) DismissAlert(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/alerts/%d", id), nil, nil)
}

func (c *Client) Settings(ctx context.Context) (model.Settings, error) {
	var out model.Settings
	if err := c.doJSON(ctx, http.MethodGet, "/settings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveSettings(ctx context.Context, settings model.Settings) error {
	return c.doJSON(ctx, http.MethodPut, "/settings", settings, nil)
}

func (c *Client) Metrics(ctx context.Context) (*model.Metrics, error) {
	var out model.Metrics
	if err := c.doJSON(ctx, http.MethodGet, "/metrics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Detect submits one frame for PPE inference as multipart form data.
func (c *Client) Detect(ctx context.Context, filename string, frame []byte) (*model.DetectionResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, &RequestError{Endpoint: "/detect", Err: err}
	}
	if _, err := part.Write(frame); err != nil {
		return nil, &RequestError{Endpoint: "/detect", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &RequestError{Endpoint: "/detect", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", &body)
	if err != nil {
		return nil, &RequestError{Endpoint: "/detect", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Endpoint: "/detect", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{Endpoint: "/detect", Status: resp.StatusCode}
	}

	var result model.DetectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RequestError{Endpoint: "/detect", Err: err}
	}
	return &result, nil
}

// ExportViolationsURL is the server-rendered CSV download location.
func (c *Client) ExportViolationsURL() string { return c.baseURL + "/export/violations" }

// ExportWorkersURL is the server-rendered CSV download location.
func (c *Client) ExportWorkersURL() string { return c.baseURL + "/export/workers" }

// LiveStreamURL is the MJPEG live feed location.
func (c *Client) LiveStreamURL() string { return c.baseURL + "/live-feed" }

// doJSON performs one round trip. A nil out discards the body.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return &RequestError{Endpoint: endpoint, Err: err}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &RequestError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Endpoint: endpoint, Err: err}
	}
	return nil
}
