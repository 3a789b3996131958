package engine

import (
	"strings"
	"testing"

	"github.com/dropurl/dropurl/internal/crawler"
	"github.com/dropurl/dropurl/internal/fetcher"
)

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		flags Flags
		want  string
	}{
		{Flags{Has404: true, HasDuplicate: true, HasSeoIssues: true}, StatusCritical},
		{Flags{HasDuplicate: true, HasSeoIssues: true}, StatusMinor},
		{Flags{HasSeoIssues: true}, StatusAttention},
		{Flags{}, StatusHealthy},
	}
	for _, tt := range tests {
		if got := OverallStatus(tt.flags); got != tt.want {
			t.Errorf("OverallStatus(%+v) = %q, want %q", tt.flags, got, tt.want)
		}
	}
}

func TestChecksFlags(t *testing.T) {
	resp := &CheckResponse{
		Check404: &Check404Result{Results: []Check404Item{{URL: "https://a.test/", PageStatus: fetcher.Status(200)}}},
		Duplicate: &DuplicateResult{
			FamilyResult: FamilyResult[DuplicateItem]{Results: []DuplicateItem{{BannerURL: "https://a.test/", Error: "HTTP 500", HasIssue: true}}},
		},
		SEO: &SeoResult{Results: []SeoItem{{RootURL: "https://a.test/", HasIssue: true}}},
	}
	f := ChecksFlags(resp)
	if f.Has404 {
		t.Error("a healthy page is not a 404")
	}
	if f.HasDuplicate {
		t.Error("a failed duplicate fetch is not a duplicate")
	}
	if !f.HasSeoIssues {
		t.Error("expected SEO issues")
	}

	resp.Duplicate.CrossPage = []DuplicateGroup{{Hash: "h", URLs: []string{"x", "y"}}}
	if !ChecksFlags(resp).HasDuplicate {
		t.Error("cross-page groups count as duplicates")
	}

	env := NewBatchResult(&CheckResponse{Summary: Flags{HasSeoIssues: true}})
	if env.Type != ResultTypeBatch || env.Flags() != (Flags{HasSeoIssues: true}) {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestRows(t *testing.T) {
	resp := &CheckResponse{
		Check404: &Check404Result{Results: []Check404Item{
			{URL: "https://a.test/", PageStatus: fetcher.Status(404), HasIssue: true},
			{URL: "https://b.test/", Error: "dial tcp: connection refused", HasIssue: true},
			{URL: "https://c.test/", PageStatus: fetcher.Status(200), Iframe404s: []SubResourceFailure{{URL: "https://c.test/f"}}, HasIssue: true},
		}},
		Duplicate: &DuplicateResult{FamilyResult: FamilyResult[DuplicateItem]{Results: []DuplicateItem{
			{BannerURL: "https://a.test/", Duplicates: []string{"https://cdn.test/img/1.html", "https://cdn.test/img/2.html", "https://other.test/"}, HasIssue: true},
			{BannerURL: "https://b.test/", Duplicates: []string{}},
		}}},
		SEO: &SeoResult{Results: []SeoItem{
			{RootURL: "https://a.test/", Reachable: false, Error: "HTTP 404", HasIssue: true},
		}},
	}

	rows := Rows(resp)
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(rows))
	}

	if rows[0].ID != "404-0" || rows[0].IssueSummary != "Main page returns 404." {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if !strings.HasPrefix(rows[1].IssueSummary, "Fetch error: ") {
		t.Errorf("row 1 summary = %q", rows[1].IssueSummary)
	}
	if rows[2].IssueSummary != "HTTP 200 | Found 1 iframe(s) with errors." {
		t.Errorf("row 2 summary = %q", rows[2].IssueSummary)
	}

	dup := rows[3]
	if !strings.HasPrefix(dup.ID, "DUP-0-") || dup.TestType != TestTypeDuplicate {
		t.Errorf("dup row = %+v", dup)
	}
	want := "cdn.test:\n- 1.html\n- 2.html\n\nother.test:\n- /"
	if dup.IssueSummary != want {
		t.Errorf("dup summary = %q, want %q", dup.IssueSummary, want)
	}
	if rows[4].IssueSummary != "No duplicated frames detected." || rows[4].HasIssue {
		t.Errorf("row 4 = %+v", rows[4])
	}
	if rows[5].IssueSummary != "URL not reachable: HTTP 404" {
		t.Errorf("seo row = %+v", rows[5])
	}

	if Rows(resp)[3].ID != dup.ID {
		t.Error("row ids must be stable")
	}
}

func TestCrawlRows(t *testing.T) {
	root, timeout := "https://a.test/", "timeout"
	nodes := []crawler.CrawlNode{
		{URL: root, Status: fetcher.Status(200)},
		{URL: "https://a.test/x", Status: fetcher.Status(404), Depth: 1, From: &root},
		{URL: "https://a.test/y", Depth: 1, From: &root, Error: &timeout},
	}

	rows := CrawlRows(nodes)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].ID != "CRAWL-https://a.test/" || rows[0].HasIssue || rows[0].IssueSummary != "HTTP 200" {
		t.Errorf("root row = %+v", rows[0])
	}
	if rows[1].Depth == nil || *rows[1].Depth != 1 || !rows[1].HasIssue {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if rows[2].IssueSummary != "timeout" {
		t.Errorf("row 2 = %+v", rows[2])
	}
	if flags := CrawlFlags(nodes); !flags.Has404 || flags.HasDuplicate {
		t.Errorf("CrawlFlags = %+v", flags)
	}
}
