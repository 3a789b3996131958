package parser

import (
	"reflect"
	"strings"
	"testing"
)

const fullSEOPage = `<!DOCTYPE html>
<html lang="th">
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>Test Page Title</title>
	<meta name="description" content="This is a test description">
	<meta name="robots" content="index,follow">
	<link rel="canonical" href="https://example.com/test-page/">
	<meta property="og:title" content="OG Title">
	<meta property="og:image" content="https://example.com/og.png">
	<meta name="twitter:card" content="summary_large_image">
	<meta property="twitter:title" content="Tw Title">
	<script type="application/ld+json">
	{"@context":"https://schema.org","@graph":[{"@type":"Organization"},{"@type":["WebPage","ItemPage"],"author":{"@type":"Person"}}]}
	</script>
	<script type="application/ld+json">{not json</script>
	<script type="application/ld+json">{"@type":"Organization"}</script>
</head>
<body>
	<h1>Main</h1><h2>a</h2><h2>b</h2><h3>c</h3>
	<img src="/1.png" alt="one"><img src="/2.png" alt=" "><img src="/3.png" alt="three"><img src="/4.png">
</body>
</html>`

func TestExtractSEO(t *testing.T) {
	result, err := Analyze([]byte(fullSEOPage), "https://example.com/test-page")
	if err != nil {
		t.Fatalf("Failed to analyze: %v", err)
	}
	meta := result.SEO

	want := Priority1{
		Charset:     "utf-8",
		Viewport:    "width=device-width, initial-scale=1",
		Title:       "Test Page Title",
		Description: "This is a test description",
		Robots:      "index,follow",
	}
	if meta.Priority1 != want {
		t.Errorf("Priority1 = %+v, want %+v", meta.Priority1, want)
	}

	if meta.Canonical.Status != CanonicalSelf {
		t.Errorf("Expected self canonical, got %q (%s)", meta.Canonical.Status, meta.Canonical.Href)
	}
	if meta.Lang.HTMLLang != "th" {
		t.Errorf("Expected html lang th, got %q", meta.Lang.HTMLLang)
	}
	if meta.Headings != (Headings{H1Count: 1, H2Count: 2, H3Count: 1}) {
		t.Errorf("Unexpected headings %+v", meta.Headings)
	}
	if meta.OpenGraph["og:title"] != "OG Title" || meta.OpenGraph["og:image"] == "" {
		t.Errorf("Unexpected open graph %+v", meta.OpenGraph)
	}
	if meta.Twitter["twitter:card"] != "summary_large_image" || meta.Twitter["twitter:title"] != "Tw Title" {
		t.Errorf("Unexpected twitter %+v", meta.Twitter)
	}

	wantTypes := []string{"ItemPage", "Organization", "Person", "WebPage"}
	if !reflect.DeepEqual(meta.Schema.Types, wantTypes) {
		t.Errorf("Schema types = %v, want %v", meta.Schema.Types, wantTypes)
	}

	h := meta.SeoHints
	if h.ImageCount != 4 || h.ImagesWithAlt != 2 {
		t.Errorf("Expected 2 of 4 images with alt, got %d of %d", h.ImagesWithAlt, h.ImageCount)
	}
	if h.ImageAltCoverage == nil || *h.ImageAltCoverage != 0.5 {
		t.Errorf("Expected alt coverage 0.5, got %v", h.ImageAltCoverage)
	}
	if !h.HasCanonical || !h.HasHTMLLang || !h.HasH1 || h.MultipleH1 || !h.HasOpenGraph || !h.HasTwitterCard || !h.HasSchema {
		t.Errorf("Unexpected boolean hints %+v", h)
	}
	if h.TitleLength == nil || *h.TitleLength != 15 || h.TitleLengthOk {
		t.Errorf("Expected short title of 15 chars flagged, got %+v", h)
	}
}

func TestCanonicalStates(t *testing.T) {
	tests := []struct {
		name   string
		head   string
		status string
	}{
		{"missing", ``, CanonicalMissing},
		{"relative self", `<link rel="canonical" href="/page">`, CanonicalSelf},
		{"other page", `<link rel="canonical" href="https://example.com/elsewhere">`, CanonicalOther},
		{"case insensitive rel", `<link rel="Canonical" href="https://EXAMPLE.com/page#x">`, CanonicalSelf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "<html><head>" + tt.head + "</head></html>"
			result, err := Analyze([]byte(doc), "https://example.com/page")
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if result.SEO.Canonical.Status != tt.status {
				t.Errorf("Expected canonical %q, got %q", tt.status, result.SEO.Canonical.Status)
			}
		})
	}
}

func TestComputeHintsTitleBoundaries(t *testing.T) {
	tests := []struct {
		length int
		ok     bool
	}{
		{TitleMinLength - 1, false},
		{TitleMinLength, true},
		{TitleMinLength + 1, true},
		{TitleMaxLength - 1, true},
		{TitleMaxLength, true},
		{TitleMaxLength + 1, false},
	}

	for _, tt := range tests {
		meta := SeoMeta{Priority1: Priority1{Title: strings.Repeat("ก", tt.length)}}
		ComputeHints(&meta)
		if meta.SeoHints.TitleLengthOk != tt.ok {
			t.Errorf("title length %d: ok = %v, want %v", tt.length, meta.SeoHints.TitleLengthOk, tt.ok)
		}
		if *meta.SeoHints.TitleLength != tt.length {
			t.Errorf("title length counted as %d, want %d", *meta.SeoHints.TitleLength, tt.length)
		}
	}
}

func TestComputeHintsDescriptionBoundaries(t *testing.T) {
	tests := []struct {
		length int
		ok     bool
	}{
		{DescriptionMinLength - 1, false},
		{DescriptionMinLength, true},
		{DescriptionMinLength + 1, true},
		{DescriptionMaxLength - 1, true},
		{DescriptionMaxLength, true},
		{DescriptionMaxLength + 1, false},
	}

	for _, tt := range tests {
		meta := SeoMeta{Priority1: Priority1{Description: strings.Repeat("d", tt.length)}}
		ComputeHints(&meta)
		if meta.SeoHints.DescriptionLengthOk != tt.ok {
			t.Errorf("description length %d: ok = %v, want %v", tt.length, meta.SeoHints.DescriptionLengthOk, tt.ok)
		}
	}
}

func TestComputeHintsNoImages(t *testing.T) {
	meta := SeoMeta{}
	ComputeHints(&meta)
	if meta.SeoHints.ImageAltCoverage != nil {
		t.Errorf("Expected nil alt coverage without images, got %v", *meta.SeoHints.ImageAltCoverage)
	}
	if meta.SeoHints.TitleLength != nil {
		t.Errorf("Expected nil title length without a title")
	}
	if meta.SeoHints.HasSchema {
		t.Error("Expected hasSchema false without schema types")
	}
}

func TestSchemaTypes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"single", `{"@type":"Article"}`, []string{"Article"}},
		{"array root", `[{"@type":"A"},{"@type":"B"}]`, []string{"A", "B"}},
		{"invalid", `{"@type":`, nil},
		{"no type", `{"name":"x"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schemaTypes(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("schemaTypes(%s) = %v, want %v", tt.raw, got, tt.want)
			}

			meta := SeoMeta{Schema: Schema{Types: got}}
			ComputeHints(&meta)
			if meta.SeoHints.HasSchema != (len(tt.want) > 0) {
				t.Errorf("hasSchema = %v for types %v", meta.SeoHints.HasSchema, got)
			}
		})
	}
}

func TestCharsetFromHTTPEquiv(t *testing.T) {
	doc := `<html><head><meta http-equiv="Content-Type" content="text/html; charset=windows-874"></head></html>`
	result, _ := Analyze([]byte(doc), "https://example.com/")
	if result.SEO.Priority1.Charset != "windows-874" {
		t.Errorf("Expected charset windows-874, got %q", result.SEO.Priority1.Charset)
	}
}
