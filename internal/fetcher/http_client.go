package fetcher

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// ClientOptions configures an HTTPClient
type ClientOptions struct {
	UserAgent            string
	Timeout              time.Duration
	MaxBodyBytes         int64
	MaxRedirects         int
	Headers              map[string]string
	BlockPrivateNetworks bool
}

// HTTPClient is the production Fetcher
type HTTPClient struct {
	client        *http.Client
	userAgent     string
	timeout       time.Duration
	maxBodyBytes  int64
	customHeaders map[string]string
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(opts ClientOptions) *HTTPClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		// Encodings are negotiated and decoded by the client itself
		DisableCompression: true,
	}
	if opts.BlockPrivateNetworks {
		transport.Proxy = nil
		transport.DialContext = safeDialer().DialContext
	}

	return newHTTPClient(transport, opts)
}

func newHTTPClient(transport http.RoundTripper, opts ClientOptions) *HTTPClient {
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}
	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "DropURL/1.0"
	}

	headers := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &HTTPClient{
		client:        client,
		userAgent:     opts.UserAgent,
		timeout:       opts.Timeout,
		maxBodyBytes:  opts.MaxBodyBytes,
		customHeaders: headers,
	}
}

// Fetch retrieves url. With MethodHead the request is retried exactly once
// with GET when the server answers 405.
func (h *HTTPClient) Fetch(ctx context.Context, url string, opts Options) *Result {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = h.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	var res *Result
	switch opts.Method {
	case MethodHead:
		res = h.do(ctx, http.MethodHead, url)
		if res.StatusOrZero() == http.StatusMethodNotAllowed {
			slog.Debug("HEAD not allowed, retrying with GET", "url", url)
			res = h.do(ctx, http.MethodGet, url)
		}
	default:
		res = h.do(ctx, http.MethodGet, url)
	}

	res.ElapsedMs = time.Since(start).Milliseconds()
	return res
}

func (h *HTTPClient) do(ctx context.Context, method, url string) *Result {
	res := &Result{URL: url, Method: method}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		res.Error = fmt.Sprintf("invalid URL: %v", err)
		res.ErrorKind = KindInvalidURL
		return res
	}

	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, br")
	for name, value := range h.customHeaders {
		req.Header.Set(name, value)
	}

	var firstByte time.Time
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			firstByte = time.Now()
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		res.Error = err.Error()
		res.ErrorKind = ClassifyError(err)
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	res.HTTPStatus = Status(resp.StatusCode)
	res.ContentType = resp.Header.Get("Content-Type")
	res.FinalURL = resp.Request.URL.String()

	if !firstByte.IsZero() {
		slog.Debug("Response received", "url", url, "method", method, "status", resp.StatusCode, "ttfb_ms", firstByte.Sub(start).Milliseconds())
	}

	if method == http.MethodHead {
		return res
	}

	body, truncated, err := h.readBody(resp)
	if err != nil {
		res.Error = fmt.Sprintf("failed to read response body: %v", err)
		res.ErrorKind = ClassifyError(err)
		if res.ErrorKind == KindOther {
			res.ErrorKind = KindBody
		}
		return res
	}
	res.Body = body
	res.Truncated = truncated
	if truncated {
		slog.Debug("Response body truncated", "url", url, "limit", h.maxBodyBytes)
	}

	return res
}

// readBody decodes the negotiated content encoding and enforces the size
// limit. truncated reports a body longer than the limit.
func (h *HTTPClient) readBody(resp *http.Response) (body []byte, truncated bool, err error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, false, err
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	body, err = io.ReadAll(io.LimitReader(reader, h.maxBodyBytes+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > h.maxBodyBytes {
		return body[:h.maxBodyBytes], true, nil
	}
	return body, false, nil
}

// Close releases idle connections
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}
