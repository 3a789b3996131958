// Package crawler walks a site breadth-first from a seed URL, one depth
// level at a time, and records the status of every page it reaches.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropurl/dropurl/internal/fetcher"
	"github.com/dropurl/dropurl/internal/parser"
)

var (
	// ErrInvalidSeed is returned when the seed URL cannot be crawled
	ErrInvalidSeed = errors.New("invalid seed URL")
	// ErrInvalidDepth is returned when the depth is outside 0..MaxDepth
	ErrInvalidDepth = errors.New("invalid crawl depth")
)

const (
	defaultMaxNodes    = 200
	defaultConcurrency = 4
)

// Crawler performs bounded breadth-first crawls
type Crawler struct {
	fetcher fetcher.Fetcher
	robots  RobotsChecker
	limiter Limiter
	opts    Options
}

// NewCrawler creates a crawler. robots and limiter may be nil.
func NewCrawler(f fetcher.Fetcher, opts Options, robots RobotsChecker, limiter Limiter) *Crawler {
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = defaultMaxNodes
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Crawler{
		fetcher: f,
		robots:  robots,
		limiter: limiter,
		opts:    opts,
	}
}

type frontierEntry struct {
	url   string
	depth int
	from  *string
}

// Crawl visits the seed and follows links up to req.MaxDepth. Each URL is
// visited at most once, at the shallowest depth it was discovered. Hitting
// the node budget or the crawl timeout stops the walk and marks the result
// truncated; nodes fetched so far are kept.
func (c *Crawler) Crawl(ctx context.Context, req Request) (*Result, error) {
	if req.MaxDepth < 0 || req.MaxDepth > MaxDepth {
		return nil, fmt.Errorf("%w: %d (allowed 0..%d)", ErrInvalidDepth, req.MaxDepth, MaxDepth)
	}
	seed, err := fetcher.Canonicalize(fetcher.NormalizeInput(req.SeedURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	seedHost := fetcher.Hostname(seed)

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	result := &Result{Nodes: []CrawlNode{}}
	visited := make(map[string]bool)
	frontier := []frontierEntry{{url: seed}}

	slog.Info("Starting crawl", "seed", seed, "max_depth", req.MaxDepth, "same_domain_only", req.SameDomainOnly)

	for depth := 0; len(frontier) > 0; depth++ {
		var level []frontierEntry
		for _, e := range frontier {
			if visited[e.url] {
				continue
			}
			if len(visited) >= c.opts.MaxNodes {
				result.Truncated = true
				break
			}
			visited[e.url] = true
			level = append(level, e)
		}
		if len(level) == 0 {
			break
		}
		if ctx.Err() != nil {
			result.Truncated = true
			break
		}

		nodes := make([]CrawlNode, len(level))
		analyses := make([]*parser.Analysis, len(level))

		var g errgroup.Group
		g.SetLimit(c.opts.Concurrency)
		for i, e := range level {
			g.Go(func() error {
				nodes[i], analyses[i] = c.visit(ctx, e)
				return nil
			})
		}
		_ = g.Wait()

		result.Nodes = append(result.Nodes, nodes...)
		slog.Debug("Crawl level finished", "depth", depth, "pages", len(nodes))

		if ctx.Err() != nil {
			result.Truncated = true
			break
		}
		if depth >= req.MaxDepth {
			break
		}

		frontier = nil
		for i := range nodes {
			a := analyses[i]
			if a == nil {
				continue
			}
			parent := nodes[i].URL
			for _, link := range a.Links {
				u, err := fetcher.Canonicalize(link.URL)
				if err != nil || visited[u] {
					continue
				}
				if req.SameDomainOnly && fetcher.Hostname(u) != seedHost {
					continue
				}
				frontier = append(frontier, frontierEntry{url: u, depth: depth + 1, from: &parent})
			}
		}
	}

	result.Duration = time.Since(start)
	slog.Info("Crawl finished",
		"seed", seed,
		"pages", len(result.Nodes),
		"truncated", result.Truncated,
		"duration", result.Duration)

	return result, nil
}

// visit fetches one URL. The analysis is nil unless the page is a
// successfully loaded HTML document.
func (c *Crawler) visit(ctx context.Context, e frontierEntry) (CrawlNode, *parser.Analysis) {
	node := CrawlNode{URL: e.url, Depth: e.depth, From: e.from}

	if c.robots != nil {
		allowed, err := c.robots.IsAllowed(ctx, e.url)
		if err == nil && !allowed {
			node.Error = errorText(ErrRobotsDisallowed.Error())
			return node, nil
		}
	}
	if c.limiter != nil {
		c.applyCrawlDelay(ctx, e.url)
		if err := c.limiter.Wait(ctx, e.url); err != nil {
			node.Error = errorText(err.Error())
			return node, nil
		}
	}

	res := c.fetcher.Fetch(ctx, e.url, fetcher.Options{Method: fetcher.MethodGet, Timeout: c.opts.FetchTimeout})
	node.Status = res.HTTPStatus
	node.Error = errorText(res.Error)
	if !res.Ok() || !res.IsHTML() {
		return node, nil
	}

	base := res.FinalURL
	if base == "" {
		base = e.url
	}
	a, err := parser.Analyze(res.Body, base)
	if err != nil {
		slog.Warn("Failed to analyze page", "url", e.url, "error", err)
		return node, nil
	}
	node.Title = a.SEO.Priority1.Title
	return node, a
}

// applyCrawlDelay copies a robots.txt crawl-delay into the host limiter
func (c *Crawler) applyCrawlDelay(ctx context.Context, url string) {
	rd, ok := c.robots.(CrawlDelayer)
	if !ok {
		return
	}
	hd, ok := c.limiter.(HostDelayer)
	if !ok {
		return
	}
	if d := rd.CrawlDelay(ctx, url); d > 0 {
		hd.SetHostDelay(fetcher.Hostname(url), d)
	}
}
