package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dropurl/dropurl/internal/fetcher"
	"github.com/dropurl/dropurl/internal/parser"
	"github.com/dropurl/dropurl/internal/robots"
)

// SEO issue codes
const (
	IssueMissingCharset      = "missing_charset"
	IssueMissingViewport     = "missing_viewport"
	IssueMissingTitle        = "missing_title"
	IssueTitleLength         = "title_length"
	IssueMissingDescription  = "missing_description"
	IssueDescriptionLength   = "description_length"
	IssueMissingCanonical    = "missing_canonical"
	IssueMissingLang         = "missing_lang"
	IssueMissingH1           = "missing_h1"
	IssueMultipleH1          = "multiple_h1"
	IssueLowImageAltCoverage = "low_image_alt_coverage"
)

// SEO inspects the head metadata, headings and crawl hints of every root URL
func (e *Engine) SEO(ctx context.Context, urls []string) *SeoResult {
	if !e.opts.Checks.SEO {
		r := familyError[SeoItem]("SEO inspection is not enabled in this deployment.")
		return &r
	}

	timeout := e.fetchTimeout(len(urls))
	// robots.txt and sitemap.xml are probed once per origin for the whole batch
	presence := robots.NewRobotsParser(e.fetcher, e.opts.UserAgent)

	items, outcome := runChunked(ctx, "seo", urls, e.opts.ChunkSize, e.opts.ChunkTimeout, e.opts.Progress,
		func(ctx context.Context, url string) SeoItem {
			return e.seoOne(ctx, presence, url, timeout)
		})

	r := familyResult(items, outcome)
	return &r
}

func (e *Engine) seoOne(ctx context.Context, presence *robots.RobotsParser, url string, timeout time.Duration) SeoItem {
	item := SeoItem{RootURL: url, Issues: []SeoIssue{}}

	page := e.fetcher.Fetch(ctx, url, fetcher.Options{Method: fetcher.MethodGet, Timeout: timeout})
	item.HTTPStatus = page.HTTPStatus

	status := page.StatusOrZero()
	item.Reachable = page.Error == "" && status >= http.StatusOK && status < http.StatusBadRequest
	if !item.Reachable {
		item.Error = page.Error
		if item.Error == "" {
			item.Error = fmt.Sprintf("HTTP %d", status)
		}
		item.HasIssue = true
		return item
	}

	a, err := parser.Analyze(page.Body, baseURL(page))
	if err != nil {
		item.Error = err.Error()
		item.HasIssue = true
		return item
	}
	meta := a.SEO
	if meta.Priority1.Charset == "" {
		meta.Priority1.Charset = parser.CharsetFromContentType(page.ContentType)
	}

	files, err := presence.Presence(ctx, baseURL(page))
	if err != nil {
		slog.Debug("Skipping robots.txt and sitemap probe", "url", url, "error", err)
	}
	for k, v := range files {
		meta.Other[k] = v
	}

	item.Meta = &meta
	item.Issues = Inspect(&meta)
	item.HasIssue = len(item.Issues) > 0
	return item
}

// Inspect applies the SEO rule set to extracted metadata
func Inspect(meta *parser.SeoMeta) []SeoIssue {
	issues := []SeoIssue{}
	add := func(code, format string, args ...any) {
		issues = append(issues, SeoIssue{Code: code, Message: fmt.Sprintf(format, args...)})
	}
	p1 := meta.Priority1
	h := meta.SeoHints

	if p1.Charset == "" {
		add(IssueMissingCharset, "No charset declared")
	}
	if p1.Viewport == "" {
		add(IssueMissingViewport, "No viewport meta tag")
	}

	switch {
	case p1.Title == "":
		add(IssueMissingTitle, "Missing <title>")
	case !h.TitleLengthOk && h.TitleLength != nil:
		add(IssueTitleLength, "Title is %d characters (recommended %d-%d)",
			*h.TitleLength, parser.TitleMinLength, parser.TitleMaxLength)
	}

	switch {
	case p1.Description == "":
		add(IssueMissingDescription, "Missing meta description")
	case !h.DescriptionLengthOk && h.DescriptionLength != nil:
		add(IssueDescriptionLength, "Meta description is %d characters (recommended %d-%d)",
			*h.DescriptionLength, parser.DescriptionMinLength, parser.DescriptionMaxLength)
	}

	if !h.HasCanonical {
		add(IssueMissingCanonical, "No canonical link")
	}
	if !h.HasHTMLLang {
		add(IssueMissingLang, "No lang attribute on <html>")
	}
	if !h.HasH1 {
		add(IssueMissingH1, "No <h1> heading")
	}
	if h.MultipleH1 {
		add(IssueMultipleH1, "%d <h1> headings found", meta.Headings.H1Count)
	}
	if h.ImageAltCoverage != nil && *h.ImageAltCoverage < parser.MinImageAltCoverage {
		add(IssueLowImageAltCoverage, "Only %d of %d images have alt text",
			h.ImagesWithAlt, h.ImageCount)
	}

	return issues
}
