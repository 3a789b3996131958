package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropurl/dropurl/internal/engine"
	"github.com/dropurl/dropurl/internal/storage"
)

const (
	embedTitle    = "✅ DropURL – Check Completed"
	embedColor    = 0x5865f2
	maxURLsLength = 700
)

// Webhook posts a Discord-style embed for each completed check
type Webhook struct {
	URL    string
	Store  CheckGetter
	Client *http.Client
}

// NewWebhook creates a webhook notifier
func NewWebhook(url string, store CheckGetter, timeout time.Duration) *Webhook {
	return &Webhook{URL: url, Store: store, Client: &http.Client{Timeout: timeout}}
}

// EmbedField is one name/value row of an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a Discord message embed
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Timestamp   string       `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []Embed `json:"embeds"`
}

// Notify implements Notifier
func (w *Webhook) Notify(ctx context.Context, checkID int64) error {
	rec, err := w.Store.GetCheck(ctx, checkID)
	if err != nil {
		return err
	}

	var flags engine.Flags
	found := false
	for _, r := range rec.Results {
		if r.Type != storage.ResultEngine {
			continue
		}
		found = true
		flags.Has404 = flags.Has404 || r.Has404
		flags.HasDuplicate = flags.HasDuplicate || r.HasDuplicate
		flags.HasSeoIssues = flags.HasSeoIssues || r.HasSeoIssues
	}
	if !found {
		return fmt.Errorf("%w: %d", ErrNoResults, checkID)
	}

	payload := webhookPayload{Embeds: []Embed{BuildEmbed(rec.Check, flags, time.Now())}}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return nil
}

// BuildEmbed renders the announcement of a check
func BuildEmbed(c storage.Check, flags engine.Flags, now time.Time) Embed {
	var description string
	switch c.Source {
	case "web":
		description = "🌐 From Web"
	case "cli":
		description = "💻 From CLI"
	case "api":
		description = "🔌 From API"
	default:
		description = "🤖 From Discord"
	}

	urls := strings.Join(c.URLs, ",")
	if r := []rune(urls); len(r) > maxURLsLength {
		urls = string(r[:maxURLsLength])
	}

	return Embed{
		Title:       embedTitle,
		Description: description,
		Color:       embedColor,
		Fields: []EmbedField{
			{Name: "🔗 URLs", Value: urls},
			{Name: "🧭 Overall Status", Value: engine.OverallStatus(flags)},
		},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}
