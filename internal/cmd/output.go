package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dropurl/dropurl/internal/crawler"
	"github.com/dropurl/dropurl/internal/engine"
	"github.com/dropurl/dropurl/internal/storage"
)

// Output formats
const (
	outputJSON  = "json"
	outputTable = "table"
)

func validateOutput(format string) error {
	switch format {
	case outputJSON, outputTable:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want json or table)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeRows(w io.Writer, rows []engine.ResultRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tURL\tDEPTH\tISSUE\tSUMMARY")
	for _, r := range rows {
		depth := "-"
		if r.Depth != nil {
			depth = fmt.Sprint(*r.Depth)
		}
		issue := "ok"
		if r.HasIssue {
			issue = "ISSUE"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.TestType, r.URL, depth, issue, r.IssueSummary)
	}
	return tw.Flush()
}

func writeFlags(w io.Writer, f engine.Flags) {
	fmt.Fprintf(w, "\nOverall: %s\n", engine.OverallStatus(f))
}

// writeTree prints the crawl as an indented tree
func writeTree(w io.Writer, t *crawler.Tree) {
	if t.Root < 0 {
		fmt.Fprintln(w, "(empty crawl)")
		return
	}
	seen := make([]bool, len(t.Nodes))
	var walk func(i, level int)
	walk = func(i, level int) {
		if seen[i] {
			return
		}
		seen[i] = true
		n := t.Nodes[i].Node
		marker := "✓"
		if n.HasIssue() {
			marker = "✗"
		}
		fmt.Fprintf(w, "%s%s %s (%s)\n", strings.Repeat("  ", level), marker, n.URL, n.Summary())
		for _, c := range t.Nodes[i].Children {
			walk(c, level+1)
		}
	}
	walk(t.Root, 0)
}

func writeHistory(w io.Writer, checks []storage.CheckSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tURLS\tSTATUS")
	for _, c := range checks {
		status := c.OverallStatus
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.CreatedAt.Format("2006-01-02 15:04"), c.Source, shorten(strings.Join(c.URLs, ","), 60), status)
	}
	return tw.Flush()
}

func writeRecord(w io.Writer, rec *storage.CheckRecord) {
	fmt.Fprintf(w, "Check #%d (%s, %s)\n", rec.ID, rec.Source, rec.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, u := range rec.URLs {
		fmt.Fprintf(w, "  %s\n", u)
	}
	if eng := rec.Engine(); eng != nil {
		fmt.Fprintf(w, "\nOverall: %s\n", eng.OverallStatus)
	}
	if ai := rec.AI(); ai != nil {
		fmt.Fprintf(w, "\nSummary:\n%s\n", ai.AISummary)
	}
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
