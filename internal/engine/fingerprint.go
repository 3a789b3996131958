package engine

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex SHA-256 digest of content. It depends on the
// bytes only, never on the URL they came from.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// hashGroups groups URLs by fingerprint. Groups keep first-appearance order
// and each URL is listed once.
type hashGroups struct {
	order []string
	urls  map[string][]string
	seen  map[string]bool
}

func newHashGroups() *hashGroups {
	return &hashGroups{
		urls: make(map[string][]string),
		seen: make(map[string]bool),
	}
}

func (g *hashGroups) add(hash, url string) {
	key := hash + " " + url
	if g.seen[key] {
		return
	}
	g.seen[key] = true
	if _, ok := g.urls[hash]; !ok {
		g.order = append(g.order, hash)
	}
	g.urls[hash] = append(g.urls[hash], url)
}

// colliding returns the groups with more than one distinct URL
func (g *hashGroups) colliding() []DuplicateGroup {
	out := []DuplicateGroup{}
	for _, h := range g.order {
		if len(g.urls[h]) > 1 {
			out = append(out, DuplicateGroup{Hash: h, URLs: g.urls[h]})
		}
	}
	return out
}
