// Package robots evaluates robots.txt rules and reports whether a site
// publishes robots.txt and sitemap.xml.
package robots

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/dropurl/dropurl/internal/fetcher"
)

// Presence values reported for robots.txt and sitemap.xml
const (
	Found       = "found"
	Missing     = "missing"
	Unreachable = "unreachable"
)

// Keys used in the SEO "other" map
const (
	RobotsKey  = "robots.txt"
	SitemapKey = "sitemap.xml"
)

// RobotsParser fetches robots.txt once per origin and answers rule and
// presence queries against the cached copy
type RobotsParser struct {
	fetcher   fetcher.Fetcher
	userAgent string

	mu    sync.Mutex
	sites map[string]*siteEntry
}

type siteEntry struct {
	once    sync.Once
	data    *robotstxt.RobotsData
	robots  string
	sitemap string
}

// NewRobotsParser creates a new robots.txt parser
func NewRobotsParser(f fetcher.Fetcher, userAgent string) *RobotsParser {
	return &RobotsParser{
		fetcher:   f,
		userAgent: userAgent,
		sites:     make(map[string]*siteEntry),
	}
}

// IsAllowed checks if a URL is allowed by robots.txt. An unreachable or
// unparseable robots.txt allows everything.
func (r *RobotsParser) IsAllowed(ctx context.Context, urlStr string) (bool, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}

	site, err := r.site(ctx, urlStr)
	if err != nil {
		return false, err
	}
	if site.data == nil {
		return true, nil
	}

	path := parsedURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsedURL.RawQuery != "" {
		path += "?" + parsedURL.RawQuery
	}

	return site.data.FindGroup(r.userAgent).Test(path), nil
}

// CrawlDelay returns the crawl-delay robots.txt sets for our user agent,
// or zero when there is none
func (r *RobotsParser) CrawlDelay(ctx context.Context, urlStr string) time.Duration {
	site, err := r.site(ctx, urlStr)
	if err != nil || site.data == nil {
		return 0
	}
	return site.data.FindGroup(r.userAgent).CrawlDelay
}

// Presence reports robots.txt and sitemap.xml availability for the origin
// of urlStr, keyed by RobotsKey and SitemapKey
func (r *RobotsParser) Presence(ctx context.Context, urlStr string) (map[string]string, error) {
	site, err := r.site(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		RobotsKey:  site.robots,
		SitemapKey: site.sitemap,
	}, nil
}

func (r *RobotsParser) site(ctx context.Context, urlStr string) (*siteEntry, error) {
	origin, err := fetcher.Origin(urlStr)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	entry, ok := r.sites[origin]
	if !ok {
		entry = &siteEntry{}
		r.sites[origin] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		r.load(ctx, origin, entry)
	})
	return entry, nil
}

func (r *RobotsParser) load(ctx context.Context, origin string, entry *siteEntry) {
	res := r.fetcher.Fetch(ctx, origin+"/robots.txt", fetcher.Options{Method: fetcher.MethodGet})
	switch {
	case res.HTTPStatus == nil:
		entry.robots = Unreachable
	case *res.HTTPStatus == 200:
		data, err := robotstxt.FromStatusAndBytes(*res.HTTPStatus, res.Body)
		if err == nil {
			entry.data = data
			entry.robots = Found
		} else {
			entry.robots = Missing
		}
	default:
		entry.robots = Missing
	}

	// A Sitemap directive counts as a published sitemap
	if entry.data != nil && len(entry.data.Sitemaps) > 0 {
		entry.sitemap = Found
		return
	}

	sm := r.fetcher.Fetch(ctx, origin+"/sitemap.xml", fetcher.Options{Method: fetcher.MethodHead})
	switch {
	case sm.HTTPStatus == nil:
		entry.sitemap = Unreachable
	case sm.Ok():
		entry.sitemap = Found
	default:
		entry.sitemap = Missing
	}
}

// Describe renders a presence value for display
func Describe(value string) string {
	switch strings.ToLower(value) {
	case Found:
		return "found"
	case Unreachable:
		return "could not be checked"
	default:
		return "not found"
	}
}
