package parser

import (
	"encoding/json"
	"sort"
	"strings"
)

// schemaTypes collects every @type value from a JSON-LD block, descending
// into @graph and nested objects. Invalid JSON yields nothing.
func schemaTypes(raw string) []string {
	var doc any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err != nil {
		return nil
	}
	var types []string
	collectTypes(doc, &types)
	return types
}

func collectTypes(v any, out *[]string) {
	switch node := v.(type) {
	case map[string]any:
		switch t := node["@type"].(type) {
		case string:
			if t != "" {
				*out = append(*out, t)
			}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok && s != "" {
					*out = append(*out, s)
				}
			}
		}
		for key, child := range node {
			if key == "@type" || key == "@context" {
				continue
			}
			collectTypes(child, out)
		}
	case []any:
		for _, item := range node {
			collectTypes(item, out)
		}
	}
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
