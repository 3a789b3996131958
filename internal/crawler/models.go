package crawler

import (
	"errors"
	"fmt"
	"time"
)

// MaxDepth is the deepest crawl a request may ask for
const MaxDepth = 2

// ErrRobotsDisallowed is recorded on nodes skipped because of robots.txt
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// CrawlNode is one visited URL. From is nil only for the seed.
type CrawlNode struct {
	URL    string  `json:"url"`
	Status *int    `json:"status"`
	Depth  int     `json:"depth"`
	From   *string `json:"from"`
	Error  *string `json:"error"`
	Title  string  `json:"title,omitempty"`
}

// HasIssue reports an error or an HTTP status of 400 and above
func (n CrawlNode) HasIssue() bool {
	return n.Error != nil || (n.Status != nil && *n.Status >= 400)
}

// Summary is the one-line description shown next to the node
func (n CrawlNode) Summary() string {
	switch {
	case n.Error != nil:
		return *n.Error
	case n.Status != nil && *n.Status != 0:
		return fmt.Sprintf("HTTP %d", *n.Status)
	default:
		return "No response"
	}
}

// errorText returns nil for an empty message
func errorText(msg string) *string {
	if msg == "" {
		return nil
	}
	return &msg
}

// Request describes a single crawl
type Request struct {
	SeedURL        string
	MaxDepth       int
	SameDomainOnly bool
}

// Result is the outcome of a crawl. Nodes are in visit order.
type Result struct {
	Nodes     []CrawlNode
	Truncated bool
	Duration  time.Duration
}

// Tree builds the parent/child view of the result
func (r *Result) Tree() *Tree {
	return BuildTree(r.Nodes)
}

// Options bounds a crawl
type Options struct {
	MaxNodes     int           // Stop after N visited URLs
	Timeout      time.Duration // Wall clock budget
	Concurrency  int           // Parallel fetches per level
	FetchTimeout time.Duration // Per-fetch timeout, 0 uses the fetcher default
}
