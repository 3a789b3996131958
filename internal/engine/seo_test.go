package engine

import (
	"strings"
	"testing"

	"github.com/dropurl/dropurl/internal/parser"
)

func goodMeta() parser.SeoMeta {
	meta := parser.SeoMeta{
		Priority1: parser.Priority1{
			Charset:     "utf-8",
			Viewport:    "width=device-width",
			Title:       strings.Repeat("t", 45),
			Description: strings.Repeat("d", 140),
		},
		Canonical: parser.Canonical{Status: parser.CanonicalSelf},
		Lang:      parser.Lang{HTMLLang: "en"},
		Headings:  parser.Headings{H1Count: 1},
		Other:     map[string]string{},
	}
	meta.SeoHints.ImageCount = 4
	meta.SeoHints.ImagesWithAlt = 3
	parser.ComputeHints(&meta)
	return meta
}

func codes(issues []SeoIssue) string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return strings.Join(out, ",")
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name   string
		modify func(m *parser.SeoMeta)
		want   string
	}{
		{"healthy", func(m *parser.SeoMeta) {}, ""},
		{"title 59", func(m *parser.SeoMeta) { m.Priority1.Title = strings.Repeat("t", 59) }, ""},
		{"title 60", func(m *parser.SeoMeta) { m.Priority1.Title = strings.Repeat("t", 60) }, ""},
		{"title 61", func(m *parser.SeoMeta) { m.Priority1.Title = strings.Repeat("t", 61) }, IssueTitleLength},
		{"title 29", func(m *parser.SeoMeta) { m.Priority1.Title = strings.Repeat("t", 29) }, IssueTitleLength},
		{"description 160", func(m *parser.SeoMeta) { m.Priority1.Description = strings.Repeat("d", 160) }, ""},
		{"description 161", func(m *parser.SeoMeta) { m.Priority1.Description = strings.Repeat("d", 161) }, IssueDescriptionLength},
		{"description 119", func(m *parser.SeoMeta) { m.Priority1.Description = strings.Repeat("d", 119) }, IssueDescriptionLength},
		{"no title", func(m *parser.SeoMeta) { m.Priority1.Title = "" }, IssueMissingTitle},
		{"no description", func(m *parser.SeoMeta) { m.Priority1.Description = "" }, IssueMissingDescription},
		{"no charset or viewport", func(m *parser.SeoMeta) {
			m.Priority1.Charset = ""
			m.Priority1.Viewport = ""
		}, IssueMissingCharset + "," + IssueMissingViewport},
		{"no canonical", func(m *parser.SeoMeta) { m.Canonical.Status = parser.CanonicalMissing }, IssueMissingCanonical},
		{"no lang", func(m *parser.SeoMeta) { m.Lang.HTMLLang = "" }, IssueMissingLang},
		{"no h1", func(m *parser.SeoMeta) { m.Headings.H1Count = 0 }, IssueMissingH1},
		{"two h1", func(m *parser.SeoMeta) { m.Headings.H1Count = 2 }, IssueMultipleH1},
		{"alt coverage 0.5", func(m *parser.SeoMeta) { m.SeoHints.ImagesWithAlt = 2 }, IssueLowImageAltCoverage},
		{"no images", func(m *parser.SeoMeta) {
			m.SeoHints.ImageCount = 0
			m.SeoHints.ImagesWithAlt = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := goodMeta()
			tt.modify(&meta)
			parser.ComputeHints(&meta)
			if got := codes(Inspect(&meta)); got != tt.want {
				t.Errorf("Inspect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInspectReturnsEmptySlice(t *testing.T) {
	meta := goodMeta()
	if issues := Inspect(&meta); issues == nil {
		t.Error("Inspect should return an empty slice, not nil")
	}
}
