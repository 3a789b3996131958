package crawler

import (
	"strings"
	"testing"

	"github.com/dropurl/dropurl/internal/fetcher"
)

func strPtr(s string) *string { return &s }

func TestBuildTree(t *testing.T) {
	nodes := []CrawlNode{
		{URL: "https://a.test/", Status: fetcher.Status(200), Depth: 0},
		{URL: "https://a.test/x", Status: fetcher.Status(200), Depth: 1, From: strPtr("https://a.test/")},
		{URL: "https://a.test/y", Status: fetcher.Status(404), Depth: 1, From: strPtr("https://a.test/")},
		{URL: "https://a.test/x/1", Depth: 2, From: strPtr("https://a.test/x"), Error: strPtr("timeout")},
		{URL: "https://a.test/orphan", Depth: 2, From: strPtr("https://gone.test/")},
	}

	tree := BuildTree(nodes)
	if tree.Root != 0 {
		t.Fatalf("Root = %d, want 0", tree.Root)
	}
	if len(tree.Nodes[0].Children) != 2 {
		t.Errorf("root children = %v", tree.Nodes[0].Children)
	}

	var order []string
	for _, n := range tree.Flatten() {
		order = append(order, n.URL)
	}
	want := "https://a.test/,https://a.test/x,https://a.test/x/1,https://a.test/y"
	if strings.Join(order, ",") != want {
		t.Errorf("pre-order = %v, want %s", order, want)
	}

	if n, ok := tree.Lookup("https://a.test/y"); !ok || !n.HasIssue() {
		t.Errorf("Lookup(/y) = %+v, %v", n, ok)
	}
	if _, ok := tree.Lookup("https://nope.test/"); ok {
		t.Error("Lookup should miss unknown URLs")
	}
}

func TestBuildTreeWithoutRoot(t *testing.T) {
	tree := BuildTree([]CrawlNode{{URL: "https://a.test/x", From: strPtr("https://a.test/")}})
	if tree.Root != -1 {
		t.Errorf("Root = %d, want -1", tree.Root)
	}
	if got := tree.Flatten(); len(got) != 0 {
		t.Errorf("Flatten() = %v, want empty", got)
	}
}

func TestCrawlNodeSummary(t *testing.T) {
	tests := []struct {
		node     CrawlNode
		summary  string
		hasIssue bool
	}{
		{CrawlNode{Error: strPtr("disallowed by robots.txt")}, "disallowed by robots.txt", true},
		{CrawlNode{Status: fetcher.Status(200)}, "HTTP 200", false},
		{CrawlNode{Status: fetcher.Status(503)}, "HTTP 503", true},
		{CrawlNode{}, "No response", false},
	}
	for _, tt := range tests {
		if got := tt.node.Summary(); got != tt.summary {
			t.Errorf("Summary() = %q, want %q", got, tt.summary)
		}
		if got := tt.node.HasIssue(); got != tt.hasIssue {
			t.Errorf("HasIssue() for %q = %v, want %v", tt.summary, got, tt.hasIssue)
		}
	}
}
