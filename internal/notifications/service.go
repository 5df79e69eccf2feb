package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"unpakr/internal/config"
	"unpakr/internal/textutil"
)

const userAgent = "unpakr/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyRunCompleted(ctx context.Context, extracted, failed int, duration time.Duration) error
	NotifyRunFailed(ctx context.Context, err error, contextLabel string) error
	NotifyExtractionFailed(ctx context.Context, archive string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		runCompleted: cfg.Notifications.RunCompleted,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	runCompleted bool
	errors       bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, extracted, failed int, duration time.Duration) error {
	if !n.runCompleted {
		return nil
	}

	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "unpakr - Run Complete"
		message = fmt.Sprintf("✅ Run complete: %d archives extracted in %s", extracted, durationText)
	} else {
		title = "unpakr - Run Complete (with errors)"
		message = fmt.Sprintf("Run complete: %d extracted, %d failed in %s", extracted, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"unpakr", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("❌ Run failed")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "unpakr - Run Failed",
		message:  builder.String(),
		tags:     []string{"unpakr", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExtractionFailed(ctx context.Context, archive string, err error) error {
	if !n.errors {
		return nil
	}

	archive = strings.TrimSpace(archive)
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    fmt.Sprintf("unpakr - Extraction Failed: %s", textutil.DisplayTitle(filepath.Dir(archive))),
		message:  fmt.Sprintf("Extraction failed: %s\n%s", archive, detail),
		tags:     []string{"unpakr", "extract", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "unpakr - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"unpakr", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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

func (noopService) NotifyRunCompleted(context.Context, int, int, time.Duration) error { return nil }
func (noopService) NotifyRunFailed(context.Context, error, string) error              { return nil }
func (noopService) NotifyExtractionFailed(context.Context, string, error) error       { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }

// Noop returns a Service that drops every notification. Useful in tests and
// for wiring paths that run before configuration is loaded.
func Noop() Service {
	return noopService{}
}
