package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropurl/dropurl/internal/fetcher"
	"github.com/dropurl/dropurl/internal/parser"
)

const duplicateDisabledMessage = "Duplicate scanning is not supported in this deployment."

// Duplicate fingerprints every page and its iframes and reports identical
// content both within a page and across the batch
func (e *Engine) Duplicate(ctx context.Context, urls []string) *DuplicateResult {
	if !e.opts.Checks.Duplicate {
		return &DuplicateResult{FamilyResult: familyError[DuplicateItem](duplicateDisabledMessage), CrossPage: []DuplicateGroup{}}
	}

	timeout := e.fetchTimeout(len(urls))
	items, outcome := runChunked(ctx, "duplicate", urls, e.opts.ChunkSize, e.opts.ChunkTimeout, e.opts.Progress,
		func(ctx context.Context, url string) DuplicateItem {
			return e.duplicateOne(ctx, url, timeout)
		})

	return &DuplicateResult{
		FamilyResult: familyResult(items, outcome),
		CrossPage:    CrossPageGroups(items),
	}
}

// errBodyTooLarge marks content that exceeded the fetch size limit and so
// cannot be fingerprinted reliably
const errBodyTooLarge = "response body exceeds the size limit"

func (e *Engine) duplicateOne(ctx context.Context, url string, timeout time.Duration) DuplicateItem {
	item := DuplicateItem{BannerURL: url, Frames: []DuplicateFrame{}, Duplicates: []string{}}

	page := e.fetcher.Fetch(ctx, url, fetcher.Options{Method: fetcher.MethodGet, Timeout: timeout})
	switch {
	case page.HTTPStatus == nil:
		item.Error = page.Error
		item.HasIssue = true
		return item
	case *page.HTTPStatus >= http.StatusBadRequest:
		item.Error = fmt.Sprintf("HTTP %d", *page.HTTPStatus)
		item.HasIssue = true
		return item
	case page.Error != "":
		item.Error = page.Error
		item.HasIssue = true
		return item
	case page.Truncated:
		item.Error = errBodyTooLarge
		item.HasIssue = true
		return item
	case len(page.Body) == 0:
		item.Error = "empty response body"
		item.HasIssue = true
		return item
	}
	item.PageHash = Fingerprint(page.Body)

	var frames []parser.Resource
	if page.IsHTML() {
		if a, err := parser.Analyze(page.Body, baseURL(page)); err == nil {
			frames = distinctResources(a.Iframes())
		}
	}

	results := make([]DuplicateFrame, len(frames))
	var g errgroup.Group
	g.SetLimit(e.opts.SubresourceConcurrency)
	for i, f := range frames {
		g.Go(func() error {
			results[i] = e.fingerprintFrame(ctx, f.URL, timeout)
			return nil
		})
	}
	_ = g.Wait()

	groups := newHashGroups()
	groups.add(item.PageHash, url)
	for _, f := range results {
		if f.Hash != "" {
			groups.add(f.Hash, f.FrameURL)
		}
	}

	inDuplicate := make(map[string]bool)
	for _, grp := range groups.colliding() {
		for _, u := range grp.URLs {
			if !inDuplicate[u] {
				inDuplicate[u] = true
				item.Duplicates = append(item.Duplicates, u)
			}
		}
	}
	for i := range results {
		if results[i].Hash != "" {
			results[i].DuplicateURLs = groups.urls[results[i].Hash]
		}
	}

	item.Frames = results
	item.HasIssue = len(item.Duplicates) > 0
	return item
}

func (e *Engine) fingerprintFrame(ctx context.Context, url string, timeout time.Duration) DuplicateFrame {
	frame := DuplicateFrame{FrameURL: url, DuplicateURLs: []string{}}

	res := e.fetcher.Fetch(ctx, url, fetcher.Options{Method: fetcher.MethodGet, Timeout: timeout})
	switch {
	case res.HTTPStatus == nil:
		frame.Error = res.Error
	case *res.HTTPStatus >= http.StatusBadRequest:
		frame.Error = fmt.Sprintf("HTTP %d", *res.HTTPStatus)
	case res.Error != "":
		frame.Error = res.Error
	case res.Truncated:
		frame.Error = errBodyTooLarge
	case len(res.Body) == 0:
		frame.Error = "empty response body"
	default:
		frame.Hash = Fingerprint(res.Body)
	}
	return frame
}

// CrossPageGroups groups every fingerprinted page and frame of the
// non-error items and returns the groups shared by more than one URL
func CrossPageGroups(items []DuplicateItem) []DuplicateGroup {
	groups := newHashGroups()
	for _, item := range items {
		if item.Error != "" || item.PageHash == "" {
			continue
		}
		groups.add(item.PageHash, item.BannerURL)
		for _, f := range item.Frames {
			if f.Hash != "" {
				groups.add(f.Hash, f.FrameURL)
			}
		}
	}
	return groups.colliding()
}

func distinctResources(in []parser.Resource) []parser.Resource {
	seen := make(map[string]bool, len(in))
	out := make([]parser.Resource, 0, len(in))
	for _, r := range in {
		if !seen[r.URL] {
			seen[r.URL] = true
			out = append(out, r)
		}
	}
	return out
}

func baseURL(res *fetcher.Result) string {
	if res.FinalURL != "" {
		return res.FinalURL
	}
	return res.URL
}
