package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/obsidianstack/todos/server/internal/config"
	"github.com/obsidianstack/todos/server/internal/store"
)

// recorder is a webhook endpoint that keeps every request body it receives.
type recorder struct {
	mu     sync.Mutex
	bodies []string
	status int
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	b, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.bodies = append(r.bodies, string(b))
	status := r.status
	r.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...)
}

func startRecorder(t *testing.T, env string) *recorder {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	t.Setenv(env, srv.URL)
	return rec
}

func event(kind string) Event {
	return Event{
		Type: kind,
		Todo: store.Todo{ID: "id-1", Title: "Buy milk", Content: "2%"},
		At:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhooks_HTTP_SendsEventJSON(t *testing.T) {
	rec := startRecorder(t, "TEST_HOOK_HTTP")
	w := NewWebhooks([]config.WebhookConfig{{Type: "http", URLEnv: "TEST_HOOK_HTTP"}})

	w.Notify(event(Created))
	w.Wait()

	bodies := rec.got()
	if len(bodies) != 1 {
		t.Fatalf("deliveries: got %d, want 1", len(bodies))
	}
	var payload struct {
		Event Event `json:"event"`
	}
	if err := json.Unmarshal([]byte(bodies[0]), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Event.Type != Created || payload.Event.Todo.Title != "Buy milk" {
		t.Errorf("payload: got %+v", payload.Event)
	}
}

func TestWebhooks_Slack_Text(t *testing.T) {
	rec := startRecorder(t, "TEST_HOOK_SLACK")
	w := NewWebhooks([]config.WebhookConfig{{Type: "slack", URLEnv: "TEST_HOOK_SLACK"}})

	w.Notify(event(Deleted))
	w.Wait()

	bodies := rec.got()
	if len(bodies) != 1 {
		t.Fatalf("deliveries: got %d, want 1", len(bodies))
	}
	if !strings.Contains(bodies[0], "[DELETED]") || !strings.Contains(bodies[0], "Buy milk") {
		t.Errorf("slack body: got %s", bodies[0])
	}
}

func TestWebhooks_Teams_MessageCard(t *testing.T) {
	rec := startRecorder(t, "TEST_HOOK_TEAMS")
	w := NewWebhooks([]config.WebhookConfig{{Type: "teams", URLEnv: "TEST_HOOK_TEAMS"}})

	w.Notify(event(Updated))
	w.Wait()

	var card map[string]interface{}
	if err := json.Unmarshal([]byte(rec.got()[0]), &card); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if card["@type"] != "MessageCard" {
		t.Errorf("@type: got %v, want MessageCard", card["@type"])
	}
	if card["themeColor"] != "FFAB40" {
		t.Errorf("themeColor: got %v, want FFAB40", card["themeColor"])
	}
}

func TestWebhooks_EventFilter(t *testing.T) {
	rec := startRecorder(t, "TEST_HOOK_FILTER")
	w := NewWebhooks([]config.WebhookConfig{{
		Type:   "http",
		URLEnv: "TEST_HOOK_FILTER",
		Events: []string{Deleted},
	}})

	w.Notify(event(Created))
	w.Notify(event(Updated))
	w.Notify(event(Deleted))
	w.Wait()

	if n := len(rec.got()); n != 1 {
		t.Errorf("deliveries: got %d, want 1", n)
	}
}

func TestWebhooks_MissingURL_Skipped(t *testing.T) {
	w := NewWebhooks([]config.WebhookConfig{{Type: "http", URLEnv: "TEST_HOOK_UNSET_XYZ"}})
	w.Notify(event(Created))
	w.Wait() // must not hang or panic
}

func TestWebhooks_ErrorStatus_DoesNotPanic(t *testing.T) {
	rec := startRecorder(t, "TEST_HOOK_FAIL")
	rec.status = http.StatusInternalServerError
	w := NewWebhooks([]config.WebhookConfig{{Type: "http", URLEnv: "TEST_HOOK_FAIL"}})

	w.Notify(event(Created))
	w.Wait()

	if n := len(rec.got()); n != 1 {
		t.Errorf("deliveries: got %d, want 1", n)
	}
}

func TestWebhooks_SetTargets(t *testing.T) {
	rec := startRecorder(t, "TEST_HOOK_RELOAD")
	w := NewWebhooks(nil)

	w.Notify(event(Created))
	w.SetTargets([]config.WebhookConfig{{Type: "http", URLEnv: "TEST_HOOK_RELOAD"}})
	w.Notify(event(Created))
	w.Wait()

	if n := len(rec.got()); n != 1 {
		t.Errorf("deliveries: got %d, want 1", n)
	}
}

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify(Event) { c.n++ }

func TestFanout_CallsEveryNotifier(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}
	f := Fanout{a, nil, b}

	f.Notify(event(Created))
	f.Notify(event(Deleted))

	if a.n != 2 || b.n != 2 {
		t.Errorf("counts: got %d/%d, want 2/2", a.n, b.n)
	}
}
