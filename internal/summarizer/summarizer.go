// Package summarizer turns the flags of a finished check into a short,
// human-readable summary using an LLM provider.
package summarizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dropurl/dropurl/internal/config"
)

// Provider names a summary backend.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

// Meta is what a summary is written from.
type Meta struct {
	URLs         []string
	Has404       bool
	HasDuplicate bool
	HasSeoIssues bool
	Language     string // th or en; empty uses the configured language
}

// Summarizer writes a summary of a check.
type Summarizer interface {
	Summarize(ctx context.Context, meta Meta) (string, error)
}

// Static returns a fixed notice. It stands in when no provider is configured.
type Static struct {
	Language string
}

// Summarize implements Summarizer
func (s Static) Summarize(_ context.Context, meta Meta) (string, error) {
	if language(meta, s.Language) == "en" {
		return "AI is not available (GEMINI_API_KEY is not configured).", nil
	}
	return "ไม่สามารถเรียกใช้ AI ได้ (ยังไม่ได้ตั้งค่า GEMINI_API_KEY)", nil
}

// New builds the summarizer for cfg. Without an API key it returns a
// Static summarizer.
func New(cfg config.SummaryConfig, apiKey string) (Summarizer, error) {
	if apiKey == "" {
		return Static{Language: cfg.Language}, nil
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	lang := cfg.Language

	switch Provider(cfg.Provider) {
	case "", ProviderGemini:
		return &geminiClient{apiKey: apiKey, baseURL: cfg.BaseURL, model: model, language: lang, http: httpClient}, nil
	case ProviderOpenAI:
		return &openAIClient{apiKey: apiKey, baseURL: cfg.BaseURL, model: model, language: lang, http: httpClient}, nil
	case ProviderAnthropic:
		return &anthropicClient{apiKey: apiKey, baseURL: cfg.BaseURL, model: model, language: lang, http: httpClient}, nil
	default:
		return nil, fmt.Errorf("unsupported summary provider: %s", cfg.Provider)
	}
}

func language(meta Meta, fallback string) string {
	if meta.Language != "" {
		return meta.Language
	}
	return fallback
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Prompt renders the instruction sent to the provider.
func Prompt(meta Meta, language string) string {
	urls := strings.Join(meta.URLs, "\n")
	if language == "en" {
		return fmt.Sprintf(`You are an assistant that summarizes website check results for the user.

Checked URLs:
%s

Results:
- 404 issues: %s
- Duplicate content: %s
- SEO issues: %s

Write a summary of 4-6 lines in English.
Point out what needs fixing with a brief recommendation for each.
Keep the language friendly and easy to understand.`,
			urls, yesNo(meta.Has404), yesNo(meta.HasDuplicate), yesNo(meta.HasSeoIssues))
	}

	return fmt.Sprintf(`คุณคือผู้ช่วยที่สรุปผลการตรวจสอบเว็บไซต์ให้ผู้ใช้

URL ที่ตรวจสอบ:
%s

ผลการตรวจสอบ:
- ปัญหา 404: %s
- เนื้อหาซ้ำ: %s
- ปัญหา SEO: %s

ช่วยสรุปเป็นภาษาไทย 4-6 บรรทัด
บอกสิ่งที่ควรแก้ไขพร้อมคำแนะนำสั้นๆ
ใช้ภาษาที่เป็นกันเองและเข้าใจง่าย`,
		urls, yesNo(meta.Has404), yesNo(meta.HasDuplicate), yesNo(meta.HasSeoIssues))
}
