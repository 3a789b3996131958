// Package parser analyzes HTML documents. It extracts embedded resources,
// outgoing links and SEO metadata without touching the network.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ResourceKind identifies the element a sub-resource was discovered on
type ResourceKind string

const (
	KindIframe     ResourceKind = "iframe"
	KindImage      ResourceKind = "img"
	KindScript     ResourceKind = "script"
	KindStylesheet ResourceKind = "stylesheet"
)

// Resource is an embedded sub-resource in discovery order
type Resource struct {
	URL  string       `json:"url"`
	Kind ResourceKind `json:"kind"`
}

// Link represents a parsed link
type Link struct {
	URL          string `json:"url"`
	AnchorText   string `json:"anchorText,omitempty"`
	RelAttribute string `json:"rel,omitempty"`
	IsExternal   bool   `json:"isExternal"`
}

// Analysis is the result of analyzing one document
type Analysis struct {
	// Resources holds iframes, images, scripts and stylesheets in document order
	Resources []Resource
	Links     []Link
	SEO       SeoMeta
}

// Iframes returns the iframe resources in document order
func (a *Analysis) Iframes() []Resource {
	var out []Resource
	for _, r := range a.Resources {
		if r.Kind == KindIframe {
			out = append(out, r)
		}
	}
	return out
}

// Assets returns the non-iframe resources in document order
func (a *Analysis) Assets() []Resource {
	var out []Resource
	for _, r := range a.Resources {
		if r.Kind != KindIframe {
			out = append(out, r)
		}
	}
	return out
}

// HTMLParser extracts resources, links and metadata relative to a base URL
type HTMLParser struct {
	baseURL        *url.URL
	allowedSchemes []string
}

// NewHTMLParser creates a new HTML parser with default allowed schemes
func NewHTMLParser(baseURL string) (*HTMLParser, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !parsedURL.IsAbs() {
		return nil, fmt.Errorf("invalid base URL: %q is not absolute", baseURL)
	}

	return &HTMLParser{
		baseURL:        parsedURL,
		allowedSchemes: []string{"https", "http"},
	}, nil
}

// Analyze is a convenience wrapper around NewHTMLParser and Parse
func Analyze(htmlContent []byte, baseURL string) (*Analysis, error) {
	p, err := NewHTMLParser(baseURL)
	if err != nil {
		return nil, err
	}
	return p.Parse(htmlContent), nil
}

// Parse analyzes htmlContent. Malformed markup degrades to whatever the
// HTML5 parser recovers, so Parse never fails.
func (p *HTMLParser) Parse(htmlContent []byte) *Analysis {
	root, err := html.Parse(bytes.NewReader(htmlContent))
	if err != nil {
		// html.Parse only fails on reader errors
		root = &html.Node{Type: html.DocumentNode}
	}
	doc := goquery.NewDocumentFromNode(root)

	base := p.baseURL
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = p.baseURL.ResolveReference(u)
		}
	}

	result := &Analysis{
		Resources: []Resource{},
		Links:     []Link{},
	}
	p.extractResources(doc, base, result)
	p.extractLinks(doc, base, result)
	result.SEO = extractSEO(doc, base, result.Links)

	return result
}

func (p *HTMLParser) extractResources(doc *goquery.Document, base *url.URL, result *Analysis) {
	seen := make(map[Resource]bool)

	doc.Find("iframe[src], img[src], script[src], link[href]").Each(func(_ int, s *goquery.Selection) {
		var kind ResourceKind
		var ref string

		switch goquery.NodeName(s) {
		case "iframe":
			kind, ref = KindIframe, s.AttrOr("src", "")
		case "img":
			kind, ref = KindImage, s.AttrOr("src", "")
		case "script":
			kind, ref = KindScript, s.AttrOr("src", "")
		case "link":
			if !hasToken(s.AttrOr("rel", ""), "stylesheet") {
				return
			}
			kind, ref = KindStylesheet, s.AttrOr("href", "")
		default:
			return
		}

		abs, ok := p.resolve(base, ref)
		if !ok {
			return
		}
		res := Resource{URL: abs, Kind: kind}
		if seen[res] {
			return
		}
		seen[res] = true
		result.Resources = append(result.Resources, res)
	})
}

func (p *HTMLParser) extractLinks(doc *goquery.Document, base *url.URL, result *Analysis) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		abs, ok := p.resolve(base, href)
		if !ok {
			return
		}
		parsed, err := url.Parse(abs)
		if err != nil {
			return
		}
		parsed.Fragment = ""
		abs = parsed.String()

		result.Links = append(result.Links, Link{
			URL:          abs,
			AnchorText:   strings.Join(strings.Fields(s.Text()), " "),
			RelAttribute: s.AttrOr("rel", ""),
			IsExternal:   !strings.EqualFold(parsed.Hostname(), p.baseURL.Hostname()),
		})
	})
}

// resolve turns ref into an absolute URL with an allowed scheme
func (p *HTMLParser) resolve(base *url.URL, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	// Scheme-bearing refs such as data:, javascript:, mailto: or tel: are dropped early
	if u.Scheme != "" && !p.isAllowedScheme(u.Scheme) {
		return "", false
	}

	resolved := base.ResolveReference(u)
	if !p.isAllowedScheme(resolved.Scheme) || resolved.Host == "" {
		return "", false
	}
	return resolved.String(), true
}

func (p *HTMLParser) isAllowedScheme(scheme string) bool {
	for _, s := range p.allowedSchemes {
		if strings.EqualFold(scheme, s) {
			return true
		}
	}
	return false
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(strings.ToLower(list)) {
		if f == token {
			return true
		}
	}
	return false
}
