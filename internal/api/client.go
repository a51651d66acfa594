package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"murmur/internal/queue"
	"murmur/internal/services"
)

// ErrUnavailable reports that no daemon answered at the configured address.
var ErrUnavailable = errors.New("murmur API unavailable")

// Error is a non-2xx API response.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// Unwrap maps API error codes back onto the sentinels the store returns, so
// callers can use errors.Is regardless of transport.
func (e *Error) Unwrap() error {
	switch e.Code {
	case "DUPLICATE_FOLDER":
		return queue.ErrDuplicateFolder
	case "FOLDER_NOT_FOUND":
		return queue.ErrFolderNotFound
	case "JOB_NOT_FOUND":
		return queue.ErrJobNotFound
	case "VALIDATION_ERROR", "INVALID_BODY":
		return services.ErrValidation
	}
	return nil
}

// Client calls a running daemon's HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the given bind address or URL.
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		// Scans walk whole folder trees, so allow well beyond a typical request.
		http: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Ping checks that the daemon is answering.
func (c *Client) Ping(ctx context.Context) error {
	var resp HealthResponse
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, &resp)
}

func (c *Client) AddFolder(ctx context.Context, path string) (*queue.Folder, error) {
	var folder queue.Folder
	if err := c.do(ctx, http.MethodPost, "/api/folders", nil, FolderRequest{Path: path}, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

func (c *Client) ListFolders(ctx context.Context) ([]*queue.Folder, error) {
	var folders []*queue.Folder
	err := c.do(ctx, http.MethodGet, "/api/folders", nil, nil, &folders)
	return folders, err
}

func (c *Client) SetMonitoring(ctx context.Context, id int64, enabled bool) (*queue.Folder, error) {
	var folder queue.Folder
	path := "/api/folders/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, nil, MonitoringRequest{MonitoringEnabled: &enabled}, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

func (c *Client) Scan(ctx context.Context) (int, error) {
	var resp ScanResponse
	err := c.do(ctx, http.MethodPost, "/api/scan", nil, nil, &resp)
	return resp.NewJobs, err
}

func (c *Client) ListJobs(ctx context.Context, statuses []string) ([]*queue.Job, error) {
	values := url.Values{}
	for _, status := range statuses {
		if strings.TrimSpace(status) != "" {
			values.Add("status", status)
		}
	}
	var jobs []*queue.Job
	err := c.do(ctx, http.MethodGet, "/api/jobs", values, nil, &jobs)
	return jobs, err
}

func (c *Client) GetJob(ctx context.Context, id int64) (*queue.Job, error) {
	var job queue.Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+strconv.FormatInt(id, 10), nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) RetryJobs(ctx context.Context, ids []int64) (int64, error) {
	var resp RetryResponse
	err := c.do(ctx, http.MethodPost, "/api/jobs/retry", nil, RetryRequest{IDs: ids}, &resp)
	return resp.Updated, err
}

func (c *Client) Logs(ctx context.Context, limit int) ([]*queue.LogEntry, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var entries []*queue.LogEntry
	err := c.do(ctx, http.MethodGet, "/api/logs", values, nil, &entries)
	return entries, err
}

func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var settings Settings
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, nil, &settings)
	return settings, err
}

func (c *Client) UpdateSettings(ctx context.Context, settings Settings) (Settings, error) {
	var updated Settings
	err := c.do(ctx, http.MethodPut, "/api/settings", nil, settings, &updated)
	return updated, err
}

func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var status StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &status)
	return status, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr *net.OpError
		if errors.As(err, &netErr) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return &Error{Status: resp.StatusCode}
		}
		return &Error{Status: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope{Data: out}); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
