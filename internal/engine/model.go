package engine

import (
	"github.com/dropurl/dropurl/internal/crawler"
	"github.com/dropurl/dropurl/internal/parser"
)

// Status discriminates the outcome of a check family
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// FamilyResult is the envelope every check family returns
type FamilyResult[T any] struct {
	Status       Status   `json:"status"`
	Error        bool     `json:"error"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	Partial      bool     `json:"partial,omitempty"`
	Message      string   `json:"message,omitempty"`
	Pending      []string `json:"pending,omitempty"`
	Results      []T      `json:"results"`
}

func familyError[T any](msg string) FamilyResult[T] {
	return FamilyResult[T]{
		Status:       StatusError,
		Error:        true,
		ErrorMessage: msg,
		Results:      []T{},
	}
}

func familyResult[T any](results []T, outcome chunkOutcome) FamilyResult[T] {
	if results == nil {
		results = []T{}
	}
	r := FamilyResult[T]{Status: StatusOK, Results: results}
	if outcome.partial {
		r.Status = StatusPartial
		r.Partial = true
		r.Message = outcome.message
		r.Pending = outcome.pending
	}
	return r
}

// SubResourceFailure is an iframe or asset that did not load
type SubResourceFailure struct {
	URL    string              `json:"url"`
	Kind   parser.ResourceKind `json:"kind"`
	Status *int                `json:"status"`
	Error  string              `json:"error,omitempty"`
}

// Check404Item is the 404/asset outcome for one root URL
type Check404Item struct {
	URL           string               `json:"url"`
	PageStatus    *int                 `json:"pageStatus"`
	Iframe404s    []SubResourceFailure `json:"iframe404s"`
	AssetFailures []SubResourceFailure `json:"assetFailures"`
	Skipped       int                  `json:"skippedSubresources,omitempty"`
	Error         string               `json:"error,omitempty"`
	ErrorKind     string               `json:"errorKind,omitempty"`
	HasIssue      bool                 `json:"hasIssue"`
}

// Check404Result is the 404/asset family result
type Check404Result = FamilyResult[Check404Item]

// DuplicateFrame is one fingerprinted iframe of a page
type DuplicateFrame struct {
	FrameURL      string   `json:"frameUrl"`
	Hash          string   `json:"hash"`
	DuplicateURLs []string `json:"duplicateUrls"`
	Error         string   `json:"error,omitempty"`
}

// DuplicateItem is the duplicate-content outcome for one root URL
type DuplicateItem struct {
	BannerURL  string           `json:"bannerUrl"`
	PageHash   string           `json:"pageHash,omitempty"`
	Frames     []DuplicateFrame `json:"frames"`
	Duplicates []string         `json:"duplicates"`
	Error      string           `json:"error,omitempty"`
	HasIssue   bool             `json:"hasIssue"`
}

// DuplicateGroup lists distinct URLs serving identical content
type DuplicateGroup struct {
	Hash string   `json:"hash"`
	URLs []string `json:"urls"`
}

// DuplicateResult is the duplicate family result plus cross-page groups
type DuplicateResult struct {
	FamilyResult[DuplicateItem]
	CrossPage []DuplicateGroup `json:"crossPage"`
}

// SeoIssue is one failed SEO rule
type SeoIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SeoItem is the SEO outcome for one root URL
type SeoItem struct {
	RootURL    string          `json:"rootUrl"`
	Reachable  bool            `json:"reachable"`
	HTTPStatus *int            `json:"httpStatus"`
	Meta       *parser.SeoMeta `json:"meta,omitempty"`
	Issues     []SeoIssue      `json:"issues"`
	Error      string          `json:"error,omitempty"`
	HasIssue   bool            `json:"hasIssue"`
}

// SeoResult is the SEO family result
type SeoResult = FamilyResult[SeoItem]

// Checks selects the families to run. All expands to every family.
type Checks struct {
	All       bool `json:"all,omitempty"`
	Check404  bool `json:"check404,omitempty"`
	Duplicate bool `json:"duplicate,omitempty"`
	SEO       bool `json:"seo,omitempty"`
}

// Normalize expands All into the individual families
func (c Checks) Normalize() Checks {
	return Checks{
		All:       c.All,
		Check404:  c.All || c.Check404,
		Duplicate: c.All || c.Duplicate,
		SEO:       c.All || c.SEO,
	}
}

// Any reports whether at least one family is selected
func (c Checks) Any() bool {
	n := c.Normalize()
	return n.Check404 || n.Duplicate || n.SEO
}

// CheckRequest is a batch check request
type CheckRequest struct {
	URLs   []string `json:"urls"`
	Checks Checks   `json:"checks"`
}

// CheckResponse aggregates the selected families
type CheckResponse struct {
	Check404  *Check404Result  `json:"check404,omitempty"`
	Duplicate *DuplicateResult `json:"duplicate,omitempty"`
	SEO       *SeoResult       `json:"seo,omitempty"`
	Summary   Flags            `json:"summary"`
}

// CrawlRequest is a crawl-mode request
type CrawlRequest struct {
	SeedURL        string `json:"seedUrl"`
	MaxDepth       *int   `json:"maxDepth,omitempty"`
	SameDomainOnly bool   `json:"sameDomainOnly"`
	CheckAssets    bool   `json:"checkAssets,omitempty"`
}

// CrawlMeta echoes the effective crawl parameters
type CrawlMeta struct {
	SeedURL        string `json:"seedUrl"`
	MaxDepth       int    `json:"maxDepth"`
	SameDomainOnly bool   `json:"sameDomainOnly"`
}

// CrawlResponse is the crawl-mode result
type CrawlResponse struct {
	Nodes     []crawler.CrawlNode `json:"crawlResults"`
	Meta      CrawlMeta           `json:"crawlMeta"`
	Truncated bool                `json:"truncated,omitempty"`
	Check404  *Check404Result     `json:"check404,omitempty"`
	Summary   Flags               `json:"summary"`
}
