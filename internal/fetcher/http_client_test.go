package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func newTestClient() *HTTPClient {
	return NewHTTPClient(ClientOptions{UserAgent: "Test-Checker/1.0", Timeout: 5 * time.Second})
}

func TestHTTPClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "Test-Checker/1.0" {
			t.Errorf("Expected User-Agent 'Test-Checker/1.0', got '%s'", ua)
		}
		if r.Header.Get("X-Audit") != "yes" {
			t.Errorf("Expected custom header X-Audit")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Test Page</body></html>"))
	}))
	defer server.Close()

	client := NewHTTPClient(ClientOptions{
		UserAgent: "Test-Checker/1.0",
		Headers:   map[string]string{"X-Audit": "yes"},
	})
	defer client.Close()

	res := client.Fetch(context.Background(), server.URL, Options{Method: MethodGet})

	if res.StatusOrZero() != 200 {
		t.Errorf("Expected status 200, got %d (error %q)", res.StatusOrZero(), res.Error)
	}
	if !res.Ok() {
		t.Errorf("Expected Ok() for 200 response")
	}
	if string(res.Body) != "<html><body>Test Page</body></html>" {
		t.Errorf("Unexpected body %q", string(res.Body))
	}
	if !res.IsHTML() {
		t.Errorf("Expected HTML content")
	}
	if res.Method != http.MethodGet {
		t.Errorf("Expected method GET, got %s", res.Method)
	}
}

func TestHTTPClientHeadFallsBackOn405(t *testing.T) {
	var heads, gets int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			atomic.AddInt32(&heads, 1)
			w.WriteHeader(http.StatusMethodNotAllowed)
		case http.MethodGet:
			atomic.AddInt32(&gets, 1)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	client := newTestClient()
	defer client.Close()

	res := client.Fetch(context.Background(), server.URL, Options{Method: MethodHead})

	if res.StatusOrZero() != 200 {
		t.Errorf("Expected status 200 after GET retry, got %d", res.StatusOrZero())
	}
	if res.Method != http.MethodGet {
		t.Errorf("Expected final method GET, got %s", res.Method)
	}
	if atomic.LoadInt32(&heads) != 1 || atomic.LoadInt32(&gets) != 1 {
		t.Errorf("Expected exactly one HEAD and one GET, got %d HEAD and %d GET", heads, gets)
	}
}

func TestHTTPClientHeadKeepsOtherStatuses(t *testing.T) {
	var gets int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&gets, 1)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient()
	defer client.Close()

	res := client.Fetch(context.Background(), server.URL, Options{Method: MethodHead})

	if res.StatusOrZero() != 404 {
		t.Errorf("Expected status 404, got %d", res.StatusOrZero())
	}
	if res.Ok() {
		t.Errorf("404 must not be Ok()")
	}
	if res.Body != nil {
		t.Errorf("HEAD result should carry no body")
	}
	if atomic.LoadInt32(&gets) != 0 {
		t.Errorf("GET must only follow a 405, got %d GETs", gets)
	}
}

func TestHTTPClientDecodesBodies(t *testing.T) {
	const page = "<html><body>compressed</body></html>"

	var brBody, gzBody bytes.Buffer
	bw := brotli.NewWriter(&brBody)
	_, _ = bw.Write([]byte(page))
	_ = bw.Close()
	gw := gzip.NewWriter(&gzBody)
	_, _ = gw.Write([]byte(page))
	_ = gw.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(brBody.Bytes())
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(gzBody.Bytes())
		default:
			_, _ = w.Write([]byte(page))
		}
	}))
	defer server.Close()

	client := newTestClient()
	defer client.Close()

	for _, path := range []string{"/br", "/gzip", "/plain"} {
		t.Run(path, func(t *testing.T) {
			res := client.Fetch(context.Background(), server.URL+path, Options{Method: MethodGet})
			if res.Error != "" {
				t.Fatalf("Unexpected error: %s", res.Error)
			}
			if string(res.Body) != page {
				t.Errorf("Expected decoded body %q, got %q", page, string(res.Body))
			}
		})
	}
}

func TestHTTPClientBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), 4096))
	}))
	defer server.Close()

	client := NewHTTPClient(ClientOptions{MaxBodyBytes: 100})
	defer client.Close()

	res := client.Fetch(context.Background(), server.URL, Options{Method: MethodGet})
	if len(res.Body) != 100 {
		t.Errorf("Expected body truncated to 100 bytes, got %d", len(res.Body))
	}
	if !res.Truncated {
		t.Error("Expected truncated flag for an oversized body")
	}

	small := NewHTTPClient(ClientOptions{MaxBodyBytes: 4096})
	defer small.Close()
	res = small.Fetch(context.Background(), server.URL, Options{Method: MethodGet})
	if len(res.Body) != 4096 || res.Truncated {
		t.Errorf("Body at the limit should be complete, got %d bytes truncated=%v", len(res.Body), res.Truncated)
	}
}

func TestHTTPClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := newTestClient()
	defer client.Close()

	res := client.Fetch(context.Background(), server.URL, Options{Method: MethodGet, Timeout: 50 * time.Millisecond})

	if res.HTTPStatus != nil {
		t.Errorf("Expected no status on timeout, got %d", *res.HTTPStatus)
	}
	if res.ErrorKind != KindTimeout {
		t.Errorf("Expected timeout error kind, got %q (%s)", res.ErrorKind, res.Error)
	}
	if res.Ok() {
		t.Errorf("Timed out fetch must not be Ok()")
	}
}

func TestHTTPClientConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient()
	defer client.Close()

	res := client.Fetch(context.Background(), url, Options{Method: MethodHead})

	if res.HTTPStatus != nil {
		t.Errorf("Expected nil status, got %d", *res.HTTPStatus)
	}
	if res.ErrorKind != KindConnection {
		t.Errorf("Expected connection error kind, got %q (%s)", res.ErrorKind, res.Error)
	}
}

func TestHTTPClientTooManyRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer server.Close()

	client := NewHTTPClient(ClientOptions{MaxRedirects: 3})
	defer client.Close()

	res := client.Fetch(context.Background(), server.URL, Options{Method: MethodGet})
	if res.ErrorKind != KindRedirect {
		t.Errorf("Expected redirect error kind, got %q (%s)", res.ErrorKind, res.Error)
	}
}

func TestHTTPClientInvalidURL(t *testing.T) {
	client := newTestClient()
	defer client.Close()

	res := client.Fetch(context.Background(), "http://[::1", Options{Method: MethodGet})
	if res.ErrorKind != KindInvalidURL {
		t.Errorf("Expected invalid URL kind, got %q", res.ErrorKind)
	}
}

func TestSafeDialerBlocksLoopback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(ClientOptions{BlockPrivateNetworks: true})
	defer client.Close()

	res := client.Fetch(context.Background(), server.URL, Options{Method: MethodGet})
	if res.HTTPStatus != nil {
		t.Errorf("Expected loopback request to be blocked, got status %d", *res.HTTPStatus)
	}
	if res.ErrorKind != KindBlocked {
		t.Errorf("Expected blocked error kind, got %q (%s)", res.ErrorKind, res.Error)
	}
}
