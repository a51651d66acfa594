package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"murmur/internal/services"
)

const (
	defaultTimeout     = 10 * time.Minute
	transcribePath     = "/audio/transcriptions"
	responseFormatJSON = "json"
	errorExcerptLimit  = 512
	stageTranscription = "transcription"
)

// Transcriber converts one audio file into text using the named model.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath, model string) (string, error)
}

// Client calls an OpenAI-compatible /audio/transcriptions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option customizes a client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient constructs a client for the endpoint rooted at baseURL, for
// example http://127.0.0.1:8002/v1.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	client := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads filePath and returns the transcribed text.
func (c *Client) Transcribe(ctx context.Context, filePath, model string) (string, error) {
	if c == nil {
		return "", services.Wrap(services.ErrConfiguration, stageTranscription, "client", "nil client", nil)
	}
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return "", services.Wrap(services.ErrValidation, stageTranscription, "request", "empty file path", nil)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return "", services.Wrap(services.ErrValidation, stageTranscription, "request", "empty model name", nil)
	}
	if c.baseURL == "" {
		return "", services.Wrap(services.ErrConfiguration, stageTranscription, "request", "base url not configured", nil)
	}

	file, err := os.Open(filePath)
	if err != nil {
		marker := services.ErrValidation
		if errors.Is(err, os.ErrNotExist) {
			marker = services.ErrNotFound
		}
		return "", services.Wrap(marker, stageTranscription, "open audio", "", err)
	}
	defer file.Close()

	body, contentType := multipartBody(file, filepath.Base(filePath), model)
	defer body.Close()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, body)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, stageTranscription, "build request", "", err)
	}
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(request)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			marker = services.ErrTimeout
		}
		return "", services.Wrap(marker, stageTranscription, "http request", "", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, stageTranscription, "read response", "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(statusMarker(resp.StatusCode), stageTranscription, "http response",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, excerpt(payload)), nil)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		return strings.TrimSpace(string(payload)), nil
	}
	var parsed transcriptionResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", services.Wrap(services.ErrExternalTool, stageTranscription, "decode response", excerpt(payload), err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

// multipartBody streams the form through a pipe so large media files are not
// buffered in memory.
func multipartBody(file io.Reader, fileName, model string) (io.ReadCloser, string) {
	reader, writer := io.Pipe()
	form := multipart.NewWriter(writer)
	go func() {
		writer.CloseWithError(writeForm(form, file, fileName, model))
	}()
	return reader, form.FormDataContentType()
}

func writeForm(form *multipart.Writer, file io.Reader, fileName, model string) error {
	if err := form.WriteField("model", model); err != nil {
		return fmt.Errorf("write model field: %w", err)
	}
	if err := form.WriteField("response_format", responseFormatJSON); err != nil {
		return fmt.Errorf("write response_format field: %w", err)
	}
	field, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("create file field: %w", err)
	}
	if _, err := io.Copy(field, file); err != nil {
		return fmt.Errorf("copy audio: %w", err)
	}
	return form.Close()
}

func statusMarker(code int) error {
	switch {
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return services.ErrTimeout
	case code == http.StatusTooManyRequests || code >= 500:
		return services.ErrTransient
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return services.ErrConfiguration
	default:
		return services.ErrExternalTool
	}
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

func excerpt(payload []byte) string {
	text := strings.TrimSpace(string(payload))
	if len(text) > errorExcerptLimit {
		text = text[:errorExcerptLimit] + "..."
	}
	return text
}
