package fetcher

import (
	"net/netip"
	"testing"
)

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/path  ", "https://example.com/path"},
		{"http://example.com", "http://example.com"},
		{"HTTPS://Example.com", "HTTPS://Example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeInput(tt.input); got != tt.expected {
				t.Errorf("NormalizeInput(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"lowercases host", "https://Example.COM/Path", "https://example.com/Path", false},
		{"drops default https port", "https://example.com:443/a", "https://example.com/a", false},
		{"drops default http port", "http://example.com:80/", "http://example.com/", false},
		{"keeps custom port", "http://example.com:8080/a/", "http://example.com:8080/a", false},
		{"strips trailing slash", "https://example.com/docs/", "https://example.com/docs", false},
		{"keeps root slash", "https://example.com", "https://example.com/", false},
		{"drops fragment", "https://example.com/a#section", "https://example.com/a", false},
		{"sorts query", "https://example.com/s?b=2&a=1", "https://example.com/s?a=1&b=2", false},
		{"rejects mailto", "mailto:someone@example.com", "", true},
		{"rejects relative", "/just/a/path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Canonicalize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"https://Example.com:443/a/b/?z=1&y=2#top",
		"http://example.com",
	}
	for _, in := range inputs {
		first, err := Canonicalize(in)
		if err != nil {
			t.Fatalf("Canonicalize(%q) failed: %v", in, err)
		}
		second, err := Canonicalize(first)
		if err != nil {
			t.Fatalf("Canonicalize(%q) failed: %v", first, err)
		}
		if first != second {
			t.Errorf("Canonicalize not idempotent: %q -> %q", first, second)
		}
	}
}

func TestOriginAndHostname(t *testing.T) {
	origin, err := Origin("https://Example.com:8443/a/b?c=d")
	if err != nil {
		t.Fatalf("Origin failed: %v", err)
	}
	if origin != "https://example.com:8443" {
		t.Errorf("Expected https://example.com:8443, got %s", origin)
	}

	if _, err := Origin("/relative"); err == nil {
		t.Errorf("Expected error for relative URL")
	}

	if h := Hostname("https://WWW.Example.com/x"); h != "www.example.com" {
		t.Errorf("Expected www.example.com, got %s", h)
	}
}

func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		addr    string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"192.168.0.10", true},
		{"169.254.169.254", true},
		{"100.64.0.1", true},
		{"::1", true},
		{"::ffff:127.0.0.1", true},
		{"0.0.0.0", true},
		{"8.8.8.8", false},
		{"2606:4700:4700::1111", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := isBlockedIP(netip.MustParseAddr(tt.addr)); got != tt.blocked {
				t.Errorf("isBlockedIP(%s) = %v, want %v", tt.addr, got, tt.blocked)
			}
		})
	}
}
