package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"murmur/internal/config"
)

const userAgent = "murmur/0.1.0"

// Event names a notification trigger.
type Event string

const (
	EventJobCompleted  Event = "job_completed"
	EventJobFailed     Event = "job_failed"
	EventScanCompleted Event = "scan_completed"
	EventTest          Event = "test"
)

// Payload carries event-specific values keyed by name.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventJobCompleted:  cfg.Notifications.JobCompleted,
			EventJobFailed:     cfg.Notifications.JobFailed,
			EventScanCompleted: cfg.Notifications.JobCompleted,
			EventTest:          true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventJobCompleted:
		body := fmt.Sprintf("Transcribed: %s", payload.text("fileName"))
		if out := payload.text("outputPath"); out != "" {
			body = fmt.Sprintf("%s\nTranscript: %s", body, out)
		}
		return message{
			title: "Murmur - Transcription Complete",
			body:  body,
			tags:  []string{"murmur", "transcription", "completed"},
		}, true
	case EventJobFailed:
		return message{
			title:    "Murmur - Transcription Failed",
			body:     fmt.Sprintf("Failed after %s attempts: %s\n%s", payload.text("attempts"), payload.text("fileName"), payload.text("error")),
			tags:     []string{"murmur", "error", "alert"},
			priority: "high",
		}, true
	case EventScanCompleted:
		count := payload.text("newJobs")
		if count == "" || count == "0" {
			return message{}, false
		}
		return message{
			title: "Murmur - New Audio",
			body:  fmt.Sprintf("Queued %s new audio files for transcription", count),
			tags:  []string{"murmur", "scan"},
		}, true
	case EventTest:
		return message{
			title:    "Murmur - Test",
			body:     "Notification system test",
			tags:     []string{"murmur", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
