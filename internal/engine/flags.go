package engine

import "github.com/dropurl/dropurl/internal/crawler"

// Flags summarizes a run for storage and notifications
type Flags struct {
	Has404       bool `json:"has404"`
	HasDuplicate bool `json:"hasDuplicate"`
	HasSeoIssues bool `json:"hasSeoIssues"`
}

// Overall status labels, most severe first
const (
	StatusCritical  = "🔴 Critical – 404 issues found"
	StatusMinor     = "🟠 Minor Issues – Duplicate detected"
	StatusAttention = "🟡 Needs Attention – SEO issues"
	StatusHealthy   = "🟢 Healthy – No major issues"
)

// OverallStatus picks the most severe label that applies
func OverallStatus(f Flags) string {
	switch {
	case f.Has404:
		return StatusCritical
	case f.HasDuplicate:
		return StatusMinor
	case f.HasSeoIssues:
		return StatusAttention
	default:
		return StatusHealthy
	}
}

// ChecksFlags derives the summary of a batch response
func ChecksFlags(resp *CheckResponse) Flags {
	var f Flags
	if resp.Check404 != nil {
		for _, it := range resp.Check404.Results {
			if it.HasIssue {
				f.Has404 = true
				break
			}
		}
	}
	if resp.Duplicate != nil {
		f.HasDuplicate = len(resp.Duplicate.CrossPage) > 0
		for _, it := range resp.Duplicate.Results {
			if len(it.Duplicates) > 0 {
				f.HasDuplicate = true
				break
			}
		}
	}
	if resp.SEO != nil {
		for _, it := range resp.SEO.Results {
			if it.HasIssue {
				f.HasSeoIssues = true
				break
			}
		}
	}
	return f
}

// CrawlFlags derives the summary of a crawl. Only page statuses count.
func CrawlFlags(nodes []crawler.CrawlNode) Flags {
	var f Flags
	for _, n := range nodes {
		if n.Status != nil && *n.Status == 404 {
			f.Has404 = true
			break
		}
	}
	return f
}

// Result types stored with an engine result
const (
	ResultTypeBatch = "batch"
	ResultTypeCrawl = "crawl"
)

// EngineResult is the persisted envelope of a run
type EngineResult struct {
	Type         string `json:"type"`
	Has404       bool   `json:"has404"`
	HasDuplicate bool   `json:"hasDuplicate"`
	HasSeoIssues bool   `json:"hasSeoIssues"`
	Raw          any    `json:"raw"`
}

// Flags returns the summary flags of the envelope
func (r EngineResult) Flags() Flags {
	return Flags{Has404: r.Has404, HasDuplicate: r.HasDuplicate, HasSeoIssues: r.HasSeoIssues}
}

// NewBatchResult wraps a batch response for persistence
func NewBatchResult(resp *CheckResponse) EngineResult {
	return EngineResult{
		Type:         ResultTypeBatch,
		Has404:       resp.Summary.Has404,
		HasDuplicate: resp.Summary.HasDuplicate,
		HasSeoIssues: resp.Summary.HasSeoIssues,
		Raw:          resp,
	}
}

// NewCrawlResult wraps a crawl response for persistence
func NewCrawlResult(resp *CrawlResponse) EngineResult {
	return EngineResult{
		Type:         ResultTypeCrawl,
		Has404:       resp.Summary.Has404,
		HasDuplicate: false,
		HasSeoIssues: false,
		Raw:          resp,
	}
}
