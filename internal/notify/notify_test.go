package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropurl/dropurl/internal/engine"
	"github.com/dropurl/dropurl/internal/storage"
)

type fakeStore struct {
	records map[int64]*storage.CheckRecord
}

func (f *fakeStore) GetCheck(_ context.Context, id int64) (*storage.CheckRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec, nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[int64]*storage.CheckRecord{
		1: {
			Check: storage.Check{ID: 1, Source: "web", URLs: []string{"https://a.test/", "https://b.test/"}},
			Results: []storage.Result{
				{Type: storage.ResultEngine, HasSeoIssues: true},
				{Type: storage.ResultEngine, HasDuplicate: true},
				{Type: storage.ResultAI, Has404: true, AISummary: "ignored"},
			},
		},
		2: {Check: storage.Check{ID: 2, Source: "discord"}},
	}}
}

func TestWebhookNotify(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	hook := NewWebhook(server.URL, newFakeStore(), 5*time.Second)
	if err := hook.Notify(context.Background(), 1); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if len(got.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(got.Embeds))
	}
	e := got.Embeds[0]
	if e.Title != embedTitle || e.Description != "🌐 From Web" || e.Color != embedColor {
		t.Errorf("unexpected embed header %+v", e)
	}
	if len(e.Fields) != 2 || e.Fields[0].Value != "https://a.test/,https://b.test/" {
		t.Fatalf("unexpected fields %+v", e.Fields)
	}
	// Flags come from engine results only, so the AI row's 404 is ignored
	if e.Fields[1].Value != engine.StatusMinor {
		t.Errorf("overall status = %q, want %q", e.Fields[1].Value, engine.StatusMinor)
	}
}

func TestWebhookNotifyErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusBadRequest)
	}))
	defer server.Close()

	hook := NewWebhook(server.URL, newFakeStore(), 5*time.Second)

	if err := hook.Notify(context.Background(), 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := hook.Notify(context.Background(), 2); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
	err := hook.Notify(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestBuildEmbed(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 1000)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		source string
		flags  engine.Flags
		desc   string
		status string
	}{
		{"web", engine.Flags{Has404: true, HasDuplicate: true}, "🌐 From Web", engine.StatusCritical},
		{"discord", engine.Flags{HasSeoIssues: true}, "🤖 From Discord", engine.StatusAttention},
		{"cli", engine.Flags{}, "💻 From CLI", engine.StatusHealthy},
		{"api", engine.Flags{}, "🔌 From API", engine.StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			e := BuildEmbed(storage.Check{Source: tt.source, URLs: []string{long}}, tt.flags, now)
			if e.Description != tt.desc || e.Fields[1].Value != tt.status {
				t.Errorf("got %q / %q", e.Description, e.Fields[1].Value)
			}
			if n := len([]rune(e.Fields[0].Value)); n != maxURLsLength {
				t.Errorf("urls field has %d runes, want %d", n, maxURLsLength)
			}
			if e.Timestamp != "2024-05-01T12:00:00Z" {
				t.Errorf("timestamp = %q", e.Timestamp)
			}
		})
	}
}

type countingNotifier struct {
	calls atomic.Int32
	err   error
}

func (c *countingNotifier) Notify(context.Context, int64) error {
	c.calls.Add(1)
	return c.err
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &countingNotifier{}
	bad := &countingNotifier{err: errors.New("down")}

	err := Multi{bad, ok}.Notify(context.Background(), 7)
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Errorf("expected joined error, got %v", err)
	}
	if ok.calls.Load() != 1 || bad.calls.Load() != 1 {
		t.Error("every notifier should be called")
	}
}

func TestDispatch(t *testing.T) {
	n := &countingNotifier{err: errors.New("ignored")}
	select {
	case <-Dispatch(n, 3, time.Second, nil):
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch did not finish")
	}
	if n.calls.Load() != 1 {
		t.Errorf("expected one call, got %d", n.calls.Load())
	}

	// A nil notifier completes immediately
	<-Dispatch(nil, 3, time.Second, nil)
}

func TestNewRedisPublisherInvalidURL(t *testing.T) {
	if _, err := NewRedisPublisher("http://not-redis", "ch"); err == nil {
		t.Error("expected error for non-redis url")
	}
	p, err := NewRedisPublisher("redis://localhost:6379/0", "ch")
	if err != nil {
		t.Fatalf("NewRedisPublisher failed: %v", err)
	}
	_ = p.Close()
}
