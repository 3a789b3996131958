package parser

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Recommended ranges, inclusive, counted in characters
const (
	TitleMinLength       = 30
	TitleMaxLength       = 60
	DescriptionMinLength = 120
	DescriptionMaxLength = 160
	// MinImageAltCoverage is the fraction of images that must carry alt text
	MinImageAltCoverage = 0.70
)

// Canonical link states
const (
	CanonicalMissing = "missing"
	CanonicalSelf    = "self"
	CanonicalOther   = "other"
)

// Priority1 holds the basic head metadata
type Priority1 struct {
	Charset     string `json:"charset"`
	Viewport    string `json:"viewport"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Robots      string `json:"robots"`
}

// Canonical describes the rel=canonical link
type Canonical struct {
	Status string `json:"status"`
	Href   string `json:"href,omitempty"`
}

// Lang holds the document language
type Lang struct {
	HTMLLang string `json:"htmlLang"`
}

// Headings counts heading tags
type Headings struct {
	H1Count int `json:"h1Count"`
	H2Count int `json:"h2Count"`
	H3Count int `json:"h3Count"`
}

// Schema lists JSON-LD @type values
type Schema struct {
	Types []string `json:"types"`
}

// LinkStats counts anchors by destination
type LinkStats struct {
	Total    int `json:"total"`
	Internal int `json:"internal"`
	External int `json:"external"`
}

// SeoHints are derived quality signals
type SeoHints struct {
	TitleLength         *int     `json:"titleLength"`
	TitleLengthOk       bool     `json:"titleLengthOk"`
	DescriptionLength   *int     `json:"descriptionLength"`
	DescriptionLengthOk bool     `json:"descriptionLengthOk"`
	HasCanonical        bool     `json:"hasCanonical"`
	HasHTMLLang         bool     `json:"hasHtmlLang"`
	HasH1               bool     `json:"hasH1"`
	MultipleH1          bool     `json:"multipleH1"`
	HasOpenGraph        bool     `json:"hasOpenGraph"`
	HasTwitterCard      bool     `json:"hasTwitterCard"`
	HasSchema           bool     `json:"hasSchema"`
	ImageCount          int      `json:"imageCount"`
	ImagesWithAlt       int      `json:"imagesWithAlt"`
	ImageAltCoverage    *float64 `json:"imageAltCoverage"`
}

// SeoMeta is the SEO metadata of one page
type SeoMeta struct {
	Priority1 Priority1         `json:"priority1"`
	Canonical Canonical         `json:"canonical"`
	Lang      Lang              `json:"lang"`
	Other     map[string]string `json:"other"`
	Headings  Headings          `json:"headings"`
	OpenGraph map[string]string `json:"openGraph"`
	Twitter   map[string]string `json:"twitter"`
	Schema    Schema            `json:"schema"`
	Links     LinkStats         `json:"links"`
	SeoHints  SeoHints          `json:"seoHints"`
}

func extractSEO(doc *goquery.Document, base *url.URL, links []Link) SeoMeta {
	meta := SeoMeta{
		Other:     map[string]string{},
		OpenGraph: map[string]string{},
		Twitter:   map[string]string{},
		Schema:    Schema{Types: []string{}},
	}

	meta.Priority1.Title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		if cs, ok := s.Attr("charset"); ok && meta.Priority1.Charset == "" {
			meta.Priority1.Charset = strings.TrimSpace(cs)
		}
		if strings.EqualFold(s.AttrOr("http-equiv", ""), "content-type") && meta.Priority1.Charset == "" {
			meta.Priority1.Charset = CharsetFromContentType(s.AttrOr("content", ""))
		}

		content := strings.TrimSpace(s.AttrOr("content", ""))
		name := strings.ToLower(strings.TrimSpace(s.AttrOr("name", "")))
		property := strings.ToLower(strings.TrimSpace(s.AttrOr("property", "")))

		switch name {
		case "viewport":
			meta.Priority1.Viewport = content
		case "description":
			meta.Priority1.Description = content
		case "robots":
			meta.Priority1.Robots = content
		}

		if strings.HasPrefix(property, "og:") && content != "" {
			if _, exists := meta.OpenGraph[property]; !exists {
				meta.OpenGraph[property] = content
			}
		}
		// Twitter cards are published under name= but property= is common too
		for _, key := range []string{name, property} {
			if strings.HasPrefix(key, "twitter:") && content != "" {
				if _, exists := meta.Twitter[key]; !exists {
					meta.Twitter[key] = content
				}
			}
		}
	})

	meta.Canonical = extractCanonical(doc, base)
	meta.Lang.HTMLLang = strings.TrimSpace(doc.Find("html").First().AttrOr("lang", ""))

	meta.Headings = Headings{
		H1Count: doc.Find("h1").Length(),
		H2Count: doc.Find("h2").Length(),
		H3Count: doc.Find("h3").Length(),
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		meta.Schema.Types = append(meta.Schema.Types, schemaTypes(s.Text())...)
	})
	meta.Schema.Types = uniqueSorted(meta.Schema.Types)

	for _, l := range links {
		meta.Links.Total++
		if l.IsExternal {
			meta.Links.External++
		} else {
			meta.Links.Internal++
		}
	}

	images := doc.Find("img")
	meta.SeoHints.ImageCount = images.Length()
	images.Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.AttrOr("alt", "")) != "" {
			meta.SeoHints.ImagesWithAlt++
		}
	})

	ComputeHints(&meta)
	return meta
}

func extractCanonical(doc *goquery.Document, base *url.URL) Canonical {
	var href string
	doc.Find("link[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if hasToken(s.AttrOr("rel", ""), "canonical") {
			href = strings.TrimSpace(s.AttrOr("href", ""))
			return false
		}
		return true
	})
	if href == "" {
		return Canonical{Status: CanonicalMissing}
	}

	abs := href
	if u, err := url.Parse(href); err == nil {
		abs = base.ResolveReference(u).String()
	}

	if sameDocument(abs, base.String()) {
		return Canonical{Status: CanonicalSelf, Href: abs}
	}
	return Canonical{Status: CanonicalOther, Href: abs}
}

// ComputeHints derives SeoHints from the extracted fields. Image counts
// must already be set.
func ComputeHints(meta *SeoMeta) {
	h := &meta.SeoHints

	h.TitleLength = nil
	h.TitleLengthOk = false
	if title := meta.Priority1.Title; title != "" {
		n := utf8.RuneCountInString(title)
		h.TitleLength = &n
		h.TitleLengthOk = n >= TitleMinLength && n <= TitleMaxLength
	}

	h.DescriptionLength = nil
	h.DescriptionLengthOk = false
	if desc := meta.Priority1.Description; desc != "" {
		n := utf8.RuneCountInString(desc)
		h.DescriptionLength = &n
		h.DescriptionLengthOk = n >= DescriptionMinLength && n <= DescriptionMaxLength
	}

	h.HasCanonical = meta.Canonical.Status != "" && meta.Canonical.Status != CanonicalMissing
	h.HasHTMLLang = meta.Lang.HTMLLang != ""
	h.HasH1 = meta.Headings.H1Count > 0
	h.MultipleH1 = meta.Headings.H1Count > 1
	h.HasOpenGraph = len(meta.OpenGraph) > 0
	h.HasTwitterCard = meta.Twitter["twitter:card"] != ""
	h.HasSchema = len(meta.Schema.Types) > 0

	h.ImageAltCoverage = nil
	if h.ImageCount > 0 {
		coverage := float64(h.ImagesWithAlt) / float64(h.ImageCount)
		h.ImageAltCoverage = &coverage
	}
}

// CharsetFromContentType extracts the charset parameter of a Content-Type value
func CharsetFromContentType(ct string) string {
	for _, part := range strings.Split(ct, ";") {
		part = strings.TrimSpace(part)
		if k, v, ok := strings.Cut(part, "="); ok && strings.EqualFold(strings.TrimSpace(k), "charset") {
			return strings.Trim(strings.TrimSpace(v), `"'`)
		}
	}
	return ""
}

// sameDocument compares two absolute URLs ignoring fragments, host case
// and a trailing slash
func sameDocument(a, b string) bool {
	norm := func(s string) string {
		u, err := url.Parse(s)
		if err != nil {
			return s
		}
		u.Fragment = ""
		u.Host = strings.ToLower(u.Host)
		u.Scheme = strings.ToLower(u.Scheme)
		if len(u.Path) > 1 {
			u.Path = strings.TrimRight(u.Path, "/")
		}
		if u.Path == "" {
			u.Path = "/"
		}
		return u.String()
	}
	return norm(a) == norm(b)
}
