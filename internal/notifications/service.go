package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"warden/internal/config"
)

const userAgent = "Warden/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyUpdateStaged(ctx context.Context, current, candidate string) error
	NotifyUpdateApplied(ctx context.Context, candidate, method string) error
	NotifyUpdateFailed(ctx context.Context, candidate string, err error) error
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyUpdateStaged(ctx context.Context, current, candidate string) error {
	data := payload{
		title:   "Warden - Update Staged",
		message: fmt.Sprintf("Newer build staged: %s (running %s)", candidate, current),
		tags:    []string{"warden", "update", "staged"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUpdateApplied(ctx context.Context, candidate, method string) error {
	data := payload{
		title:    "Warden - Update Applied",
		message:  fmt.Sprintf("Restarting into %s via %s", candidate, method),
		tags:     []string{"warden", "update", "applied"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUpdateFailed(ctx context.Context, candidate string, err error) error {
	data := payload{
		title:    "Warden - Update Failed",
		message:  fmt.Sprintf("Failed to apply %s: %v", candidate, err),
		tags:     []string{"warden", "update", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "Warden - Test",
		message: "Notification delivery is working",
		tags:    []string{"warden", "test"},
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

func (noopService) NotifyUpdateStaged(context.Context, string, string) error  { return nil }
func (noopService) NotifyUpdateApplied(context.Context, string, string) error { return nil }
func (noopService) NotifyUpdateFailed(context.Context, string, error) error   { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
