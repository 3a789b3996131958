package engine

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropurl/dropurl/internal/fetcher"
	"github.com/dropurl/dropurl/internal/parser"
)

// Check404 verifies every root URL and, for pages that load, the iframes
// and assets they embed
func (e *Engine) Check404(ctx context.Context, urls []string) *Check404Result {
	if !e.opts.Checks.Check404 {
		r := familyError[Check404Item]("404 checking is not enabled in this deployment.")
		return &r
	}

	timeout := e.fetchTimeout(len(urls))
	items, outcome := runChunked(ctx, "check404", urls, e.opts.ChunkSize, e.opts.ChunkTimeout, e.opts.Progress,
		func(ctx context.Context, url string) Check404Item {
			return e.check404One(ctx, url, timeout)
		})

	r := familyResult(items, outcome)
	return &r
}

func (e *Engine) check404One(ctx context.Context, url string, timeout time.Duration) Check404Item {
	item := Check404Item{
		URL:           url,
		Iframe404s:    []SubResourceFailure{},
		AssetFailures: []SubResourceFailure{},
	}

	page := e.fetcher.Fetch(ctx, url, fetcher.Options{Method: fetcher.MethodGet, Timeout: timeout})
	item.PageStatus = page.HTTPStatus
	if page.HTTPStatus == nil {
		item.Error = page.Error
		item.ErrorKind = string(page.ErrorKind)
		item.HasIssue = true
		return item
	}
	if *page.HTTPStatus == http.StatusNotFound {
		item.HasIssue = true
		return item
	}
	// A status arrived but the body could not be read
	if page.Error != "" {
		item.Error = page.Error
		item.ErrorKind = string(page.ErrorKind)
		item.HasIssue = true
		return item
	}
	if !page.IsHTML() {
		return item
	}

	a, err := parser.Analyze(page.Body, baseURL(page))
	if err != nil {
		item.Error = err.Error()
		item.ErrorKind = ParseFailure.String()
		item.HasIssue = true
		return item
	}

	resources := distinctResources(a.Resources)
	if limit := e.opts.MaxSubresources; limit > 0 && len(resources) > limit {
		item.Skipped = len(resources) - limit
		resources = resources[:limit]
	}

	failures := make([]*SubResourceFailure, len(resources))
	var g errgroup.Group
	g.SetLimit(e.opts.SubresourceConcurrency)
	for i, r := range resources {
		g.Go(func() error {
			failures[i] = e.probe(ctx, r, timeout)
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range failures {
		if f == nil {
			continue
		}
		if f.Kind == parser.KindIframe {
			item.Iframe404s = append(item.Iframe404s, *f)
		} else {
			item.AssetFailures = append(item.AssetFailures, *f)
		}
	}

	item.HasIssue = len(item.Iframe404s) > 0 || len(item.AssetFailures) > 0
	return item
}

// probe returns a failure record when the sub-resource does not load
func (e *Engine) probe(ctx context.Context, r parser.Resource, timeout time.Duration) *SubResourceFailure {
	res := e.fetcher.Fetch(ctx, r.URL, fetcher.Options{Method: fetcher.MethodHead, Timeout: timeout})
	if res.HTTPStatus != nil && *res.HTTPStatus < http.StatusBadRequest {
		return nil
	}
	return &SubResourceFailure{
		URL:    r.URL,
		Kind:   r.Kind,
		Status: res.HTTPStatus,
		Error:  res.Error,
	}
}
