package engine

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/dropurl/dropurl/internal/crawler"
)

// Row test types
const (
	TestType404       = "404"
	TestTypeDuplicate = "DUPLICATE"
	TestTypeSEO       = "SEO"
	TestTypeCrawl     = "CRAWL"
)

// ResultRow is one line of tabular output
type ResultRow struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	TestType     string `json:"testType"`
	HasIssue     bool   `json:"hasIssue"`
	IssueSummary string `json:"issueSummary"`
	Depth        *int   `json:"depth,omitempty"`
}

// rowKey is a short list identity for a URL, not a content hash
func rowKey(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}

// Rows flattens a batch response into table rows, family by family
func Rows(resp *CheckResponse) []ResultRow {
	rows := []ResultRow{}
	if resp.Check404 != nil {
		for i, it := range resp.Check404.Results {
			rows = append(rows, ResultRow{
				ID:           fmt.Sprintf("404-%d", i),
				URL:          it.URL,
				TestType:     TestType404,
				HasIssue:     it.HasIssue,
				IssueSummary: check404Summary(it),
			})
		}
	}
	if resp.Duplicate != nil {
		for i, it := range resp.Duplicate.Results {
			rows = append(rows, ResultRow{
				ID:           fmt.Sprintf("DUP-%d-%s", i, rowKey(it.BannerURL)),
				URL:          it.BannerURL,
				TestType:     TestTypeDuplicate,
				HasIssue:     it.HasIssue,
				IssueSummary: duplicateSummary(it),
			})
		}
	}
	if resp.SEO != nil {
		for i, it := range resp.SEO.Results {
			rows = append(rows, ResultRow{
				ID:           fmt.Sprintf("SEO-%d", i),
				URL:          it.RootURL,
				TestType:     TestTypeSEO,
				HasIssue:     it.HasIssue,
				IssueSummary: seoSummary(it),
			})
		}
	}
	return rows
}

// CrawlRows flattens crawl nodes in tree pre-order
func CrawlRows(nodes []crawler.CrawlNode) []ResultRow {
	rows := []ResultRow{}
	crawler.BuildTree(nodes).Walk(func(n crawler.CrawlNode) {
		depth := n.Depth
		rows = append(rows, ResultRow{
			ID:           "CRAWL-" + n.URL,
			URL:          n.URL,
			TestType:     TestTypeCrawl,
			HasIssue:     n.HasIssue(),
			IssueSummary: n.Summary(),
			Depth:        &depth,
		})
	})
	return rows
}

func check404Summary(it Check404Item) string {
	var problems []string
	switch {
	case it.PageStatus == nil && it.Error != "":
		problems = append(problems, "Fetch error: "+it.Error)
	case it.PageStatus == nil:
		problems = append(problems, "No HTTP response (pageStatus=null).")
	case *it.PageStatus == 404:
		problems = append(problems, "Main page returns 404.")
	default:
		problems = append(problems, fmt.Sprintf("HTTP %d", *it.PageStatus))
	}
	if n := len(it.Iframe404s); n > 0 {
		problems = append(problems, fmt.Sprintf("Found %d iframe(s) with errors.", n))
	}
	if n := len(it.AssetFailures); n > 0 {
		problems = append(problems, fmt.Sprintf("Found %d asset(s) with errors.", n))
	}
	if it.Skipped > 0 {
		problems = append(problems, fmt.Sprintf("%d sub-resource(s) not checked.", it.Skipped))
	}
	return strings.Join(problems, " | ")
}

// duplicateSummary lists duplicated files grouped by host
func duplicateSummary(it DuplicateItem) string {
	if it.Error != "" {
		return "Server reported error: " + it.Error
	}
	if len(it.Duplicates) == 0 {
		return "No duplicated frames detected."
	}

	var hosts []string
	files := make(map[string][]string)
	for _, raw := range it.Duplicates {
		host, file := "unknown", raw
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			host = u.Hostname()
			file = path.Base(u.Path)
			if file == "." || file == "/" {
				file = "/"
			}
		}
		if _, ok := files[host]; !ok {
			hosts = append(hosts, host)
		}
		files[host] = append(files[host], file)
	}

	var b strings.Builder
	for i, h := range hosts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(h + ":")
		for _, f := range files[h] {
			b.WriteString("\n- " + f)
		}
	}
	return b.String()
}

func seoSummary(it SeoItem) string {
	if !it.Reachable {
		msg := "URL not reachable"
		if it.Error != "" {
			msg += ": " + it.Error
		}
		return msg
	}
	if len(it.Issues) == 0 {
		return "-"
	}
	msgs := make([]string, len(it.Issues))
	for i, is := range it.Issues {
		msgs[i] = is.Message
	}
	return strings.Join(msgs, " | ")
}
