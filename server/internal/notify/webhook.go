package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/obsidianstack/todos/server/internal/config"
)

// Webhooks delivers events to the configured webhook targets.
type Webhooks struct {
	mu      sync.RWMutex
	targets []config.WebhookConfig
	client  *http.Client
	wg      sync.WaitGroup
}

// NewWebhooks creates a Webhooks notifier for the given targets.
func NewWebhooks(targets []config.WebhookConfig) *Webhooks {
	return &Webhooks{
		targets: targets,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetTargets replaces the delivery targets, e.g. after a config reload.
func (w *Webhooks) SetTargets(targets []config.WebhookConfig) {
	w.mu.Lock()
	w.targets = targets
	w.mu.Unlock()
}

// Notify delivers ev asynchronously to every target subscribed to ev.Type.
func (w *Webhooks) Notify(ev Event) {
	w.mu.RLock()
	targets := w.targets
	w.mu.RUnlock()

	for _, wh := range targets {
		if !wh.Wants(ev.Type) {
			continue
		}
		w.wg.Add(1)
		go func(wh config.WebhookConfig) {
			defer w.wg.Done()
			w.deliver(wh, ev)
		}(wh)
	}
}

// Wait blocks until all in-flight deliveries have finished.
func (w *Webhooks) Wait() {
	w.wg.Wait()
}

func (w *Webhooks) deliver(wh config.WebhookConfig, ev Event) {
	url := wh.URL()
	if url == "" {
		return
	}

	var err error
	switch wh.Type {
	case "slack":
		err = w.sendSlack(url, ev)
	case "teams":
		err = w.sendTeams(url, ev)
	case "http":
		err = w.sendHTTP(url, ev)
	default:
		slog.Warn("notify: unknown webhook type, skipping", "type", wh.Type)
		return
	}

	if err != nil {
		slog.Error("notify: webhook delivery failed",
			"type", wh.Type,
			"event", ev.Type,
			"todo_id", ev.Todo.ID,
			"err", err,
		)
		return
	}
	slog.Debug("notify: webhook delivered",
		"type", wh.Type,
		"event", ev.Type,
		"todo_id", ev.Todo.ID,
	)
}

func (w *Webhooks) sendSlack(url string, ev Event) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s", eventLabel(ev.Type), summary(ev)),
	})
	return w.post(url, body)
}

func (w *Webhooks) sendTeams(url string, ev Event) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": eventColor(ev.Type),
		"summary":    ev.Todo.Title,
		"title":      fmt.Sprintf("Todo %s: %s", ev.Type, ev.Todo.Title),
		"text":       summary(ev),
	}
	body, _ := json.Marshal(payload)
	return w.post(url, body)
}

func (w *Webhooks) sendHTTP(url string, ev Event) error {
	body, _ := json.Marshal(map[string]interface{}{"event": ev})
	return w.post(url, body)
}

func (w *Webhooks) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func summary(ev Event) string {
	switch ev.Type {
	case Created:
		return fmt.Sprintf("New todo %q", ev.Todo.Title)
	case Deleted:
		return fmt.Sprintf("Todo %q was deleted", ev.Todo.Title)
	default:
		state := "open"
		if ev.Todo.Completed {
			state = "completed"
		}
		return fmt.Sprintf("Todo %q updated (%s)", ev.Todo.Title, state)
	}
}

func eventLabel(kind string) string {
	switch kind {
	case Created:
		return "[NEW]"
	case Deleted:
		return "[DELETED]"
	default:
		return "[UPDATED]"
	}
}

func eventColor(kind string) string {
	switch kind {
	case Created:
		return "00D4FF"
	case Deleted:
		return "FF4F6A"
	default:
		return "FFAB40"
	}
}
