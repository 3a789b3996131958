// Package engine runs the URL audit checks (404 and asset availability,
// duplicate content, SEO metadata) over batches of URLs, and bounded crawls
// from a seed URL. Per-URL failures are reported as data; only malformed
// requests return errors.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dropurl/dropurl/internal/config"
	"github.com/dropurl/dropurl/internal/crawler"
	"github.com/dropurl/dropurl/internal/fetcher"
	"github.com/dropurl/dropurl/internal/robots"
)

// Options configures an Engine
type Options struct {
	FetchTimeout       time.Duration // Per-fetch timeout for batches
	SingleFetchTimeout time.Duration // Per-fetch timeout for a single URL or a crawl

	ChunkSize              int
	ChunkTimeout           time.Duration
	SubresourceConcurrency int
	MaxSubresources        int
	MaxURLs                int

	UserAgent string
	Checks    config.ChecksConfig

	Crawl             crawler.Options
	CrawlMaxDepth     int
	CrawlDefaultDepth int
	RespectRobots     bool
	RequestDelay      time.Duration

	Progress ProgressFunc
}

// OptionsFromConfig maps application configuration onto engine options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FetchTimeout:           cfg.Fetch.Timeout,
		SingleFetchTimeout:     cfg.Fetch.SingleTimeout,
		ChunkSize:              cfg.Batch.ChunkSize,
		ChunkTimeout:           cfg.Batch.ChunkTimeout,
		SubresourceConcurrency: cfg.Batch.SubresourceConcurrency,
		MaxSubresources:        cfg.Batch.MaxSubresources,
		MaxURLs:                cfg.Batch.MaxURLs,
		UserAgent:              cfg.Fetch.UserAgent,
		Checks:                 cfg.Checks,
		Crawl: crawler.Options{
			MaxNodes:     cfg.Crawl.MaxNodes,
			Timeout:      cfg.Crawl.Timeout,
			Concurrency:  cfg.Crawl.Concurrency,
			FetchTimeout: cfg.Fetch.SingleTimeout,
		},
		CrawlMaxDepth:     cfg.Crawl.MaxDepth,
		CrawlDefaultDepth: cfg.Crawl.DefaultDepth,
		RespectRobots:     cfg.Crawl.RespectRobots,
		RequestDelay:      cfg.Crawl.RequestDelay,
	}
}

// Engine runs checks and crawls through a Fetcher
type Engine struct {
	fetcher fetcher.Fetcher
	opts    Options
}

// New creates an engine
func New(f fetcher.Fetcher, opts Options) *Engine {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 10
	}
	if opts.SubresourceConcurrency <= 0 {
		opts.SubresourceConcurrency = 8
	}
	if opts.CrawlMaxDepth <= 0 || opts.CrawlMaxDepth > crawler.MaxDepth {
		opts.CrawlMaxDepth = crawler.MaxDepth
	}
	if opts.CrawlDefaultDepth < 0 || opts.CrawlDefaultDepth > opts.CrawlMaxDepth {
		opts.CrawlDefaultDepth = 1
	}
	return &Engine{
		fetcher: f,
		opts:    opts,
	}
}

// WithProgress returns a copy of the engine reporting chunk progress to fn
func (e *Engine) WithProgress(fn ProgressFunc) *Engine {
	c := *e
	c.opts.Progress = fn
	return &c
}

func (e *Engine) fetchTimeout(n int) time.Duration {
	if n == 1 && e.opts.SingleFetchTimeout > 0 {
		return e.opts.SingleFetchTimeout
	}
	return e.opts.FetchTimeout
}

// NormalizeURLs trims the input, drops blanks and prefixes https:// where
// no scheme is given. Order is kept; repeated URLs are kept too.
func NormalizeURLs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if u := fetcher.NormalizeInput(r); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// SplitInput splits free-form input on newlines, commas and whitespace
func SplitInput(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// RunChecks runs every requested family over the batch
func (e *Engine) RunChecks(ctx context.Context, req CheckRequest) (*CheckResponse, error) {
	urls := NormalizeURLs(req.URLs)
	if len(urls) == 0 {
		return nil, invalidRequest("at least one URL is required")
	}
	if e.opts.MaxURLs > 0 && len(urls) > e.opts.MaxURLs {
		return nil, invalidRequest("too many URLs: %d (max %d)", len(urls), e.opts.MaxURLs)
	}
	if !req.Checks.Any() {
		return nil, invalidRequest("no checks selected")
	}
	checks := req.Checks.Normalize()

	slog.Info("Running checks",
		"urls", len(urls),
		"check404", checks.Check404,
		"duplicate", checks.Duplicate,
		"seo", checks.SEO)
	start := time.Now()

	resp := &CheckResponse{}
	if checks.Check404 {
		resp.Check404 = e.Check404(ctx, urls)
	}
	if checks.Duplicate {
		resp.Duplicate = e.Duplicate(ctx, urls)
	}
	if checks.SEO {
		resp.SEO = e.SEO(ctx, urls)
	}
	resp.Summary = ChecksFlags(resp)

	slog.Info("Checks finished",
		"urls", len(urls),
		"has404", resp.Summary.Has404,
		"has_duplicate", resp.Summary.HasDuplicate,
		"has_seo_issues", resp.Summary.HasSeoIssues,
		"duration", time.Since(start))

	return resp, nil
}

// RunCrawl crawls from the seed and optionally checks every discovered page
func (e *Engine) RunCrawl(ctx context.Context, req CrawlRequest) (*CrawlResponse, error) {
	seed := fetcher.NormalizeInput(req.SeedURL)
	if seed == "" {
		return nil, invalidRequest("seedUrl is required")
	}
	if _, err := fetcher.Canonicalize(seed); err != nil {
		return nil, invalidRequest("invalid seedUrl: %v", err)
	}

	depth := e.opts.CrawlDefaultDepth
	if req.MaxDepth != nil {
		depth = *req.MaxDepth
	}
	if depth < 0 || depth > e.opts.CrawlMaxDepth {
		return nil, invalidRequest("maxDepth must be between 0 and %d", e.opts.CrawlMaxDepth)
	}

	var robotsChecker crawler.RobotsChecker
	if e.opts.RespectRobots {
		robotsChecker = robots.NewRobotsParser(e.fetcher, e.opts.UserAgent)
	}
	// Pacing and robots state live only as long as this crawl
	c := crawler.NewCrawler(e.fetcher, e.opts.Crawl, robotsChecker, crawler.NewHostLimiter(e.opts.RequestDelay))

	result, err := c.Crawl(ctx, crawler.Request{SeedURL: seed, MaxDepth: depth, SameDomainOnly: req.SameDomainOnly})
	if err != nil {
		if errors.Is(err, crawler.ErrInvalidDepth) || errors.Is(err, crawler.ErrInvalidSeed) {
			return nil, &Error{Kind: InvalidRequest, URL: seed, Message: "invalid crawl request", Cause: err}
		}
		return nil, fmt.Errorf("crawl failed: %w", err)
	}

	resp := &CrawlResponse{
		Nodes: result.Nodes,
		Meta: CrawlMeta{
			SeedURL:        seed,
			MaxDepth:       depth,
			SameDomainOnly: req.SameDomainOnly,
		},
		Truncated: result.Truncated,
		Summary:   CrawlFlags(result.Nodes),
	}

	if req.CheckAssets && len(result.Nodes) > 0 {
		urls := make([]string, len(result.Nodes))
		for i, n := range result.Nodes {
			urls[i] = n.URL
		}
		resp.Check404 = e.Check404(ctx, urls)
	}

	return resp, nil
}
