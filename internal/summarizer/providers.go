package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxSummaryTokens = 512

const systemPrompt = "You summarize website audit results concisely for non-technical readers."

// geminiClient uses Gemini's generateContent API.
type geminiClient struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	http     *http.Client
}

// openAIClient uses OpenAI-compatible Chat Completions.
type openAIClient struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	http     *http.Client
}

// anthropicClient uses Anthropic's Messages API.
type anthropicClient struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	http     *http.Client
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type openAIChatRequest struct {
	Model    string              `json:"model"`
	Messages []openAIChatMessage `json:"messages"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                 `json:"role"`
	Content []anthropicTextContent `json:"content"`
}

type anthropicTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicTextContent `json:"content"`
}

// postJSON sends body and decodes a 2xx response into out
func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, body, out any, name string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s failed with status %d", name, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Summarize implements Summarizer
func (c *geminiClient) Summarize(ctx context.Context, meta Meta) (string, error) {
	base := c.baseURL
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta"
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, c.model, url.QueryEscape(c.apiKey))

	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: Prompt(meta, language(meta, c.language))}}}},
	}
	var parsed geminiResponse
	if err := postJSON(ctx, c.http, endpoint, nil, body, &parsed, "gemini generateContent"); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini generateContent returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// Summarize implements Summarizer
func (c *openAIClient) Summarize(ctx context.Context, meta Meta) (string, error) {
	base := c.baseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}

	body := openAIChatRequest{
		Model: c.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: Prompt(meta, language(meta, c.language))},
		},
	}
	var parsed openAIChatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := postJSON(ctx, c.http, base+"/chat/completions", headers, body, &parsed, "openai chat completion"); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai chat completion returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// Summarize implements Summarizer
func (c *anthropicClient) Summarize(ctx context.Context, meta Meta) (string, error) {
	base := c.baseURL
	if base == "" {
		base = "https://api.anthropic.com/v1"
	}

	body := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxSummaryTokens,
		System:    systemPrompt,
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: []anthropicTextContent{{Type: "text", Text: Prompt(meta, language(meta, c.language))}},
		}},
	}
	var parsed anthropicResponse
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}
	if err := postJSON(ctx, c.http, base+"/messages", headers, body, &parsed, "anthropic messages request"); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", errors.New("anthropic messages returned no content")
	}
	return strings.TrimSpace(parsed.Content[0].Text), nil
}
