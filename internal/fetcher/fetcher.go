// Package fetcher retrieves pages and sub-resources over HTTP and reports
// every outcome, including failures, as data.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// Method selects how a URL is requested
type Method string

const (
	// MethodHead probes with HEAD and retries once with GET on 405
	MethodHead Method = "HEAD"
	// MethodGet always issues GET and reads the body
	MethodGet Method = "GET"
)

// Options tunes a single fetch
type Options struct {
	Method  Method
	Timeout time.Duration // 0 uses the client default
}

// ErrorKind classifies a failed fetch
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindTimeout    ErrorKind = "timeout"
	KindCanceled   ErrorKind = "canceled"
	KindDNS        ErrorKind = "dns"
	KindConnection ErrorKind = "connection"
	KindTLS        ErrorKind = "tls"
	KindRedirect   ErrorKind = "redirect"
	KindBlocked    ErrorKind = "blocked"
	KindInvalidURL ErrorKind = "invalid_url"
	KindBody       ErrorKind = "body"
	KindOther      ErrorKind = "other"
)

// Result is the outcome of one fetch. A nil HTTPStatus means no response
// was received.
type Result struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"finalUrl,omitempty"`
	HTTPStatus  *int      `json:"httpStatus"`
	ContentType string    `json:"contentType,omitempty"`
	Method      string    `json:"method"`
	Error       string    `json:"error,omitempty"`
	ErrorKind   ErrorKind `json:"errorKind,omitempty"`
	ElapsedMs   int64     `json:"elapsedMs"`
	Truncated   bool      `json:"truncated,omitempty"` // Body was cut at the client's size limit
	Body        []byte    `json:"-"`
}

// Fetcher is the transport seam used by every check. Implementations never
// return Go errors; failures are recorded on the Result.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts Options) *Result
}

// StatusOrZero returns the HTTP status or 0 when there was no response
func (r *Result) StatusOrZero() int {
	if r == nil || r.HTTPStatus == nil {
		return 0
	}
	return *r.HTTPStatus
}

// Ok reports whether a response arrived without error and with status < 400
func (r *Result) Ok() bool {
	return r != nil && r.Error == "" && r.HTTPStatus != nil && *r.HTTPStatus < 400
}

// IsHTML reports whether the body should be treated as an HTML document
func (r *Result) IsHTML() bool {
	if r == nil || len(r.Body) == 0 {
		return false
	}
	ct := strings.ToLower(r.ContentType)
	if ct == "" {
		ct = strings.ToLower(http.DetectContentType(r.Body))
	}
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// Status builds a status pointer, mostly for tests and fakes
func Status(code int) *int {
	return &code
}

var errTooManyRedirects = errors.New("too many redirects")

// ClassifyError maps a transport error onto an ErrorKind
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, errBlockedAddress) {
		return KindBlocked
	}
	if errors.Is(err, errTooManyRedirects) {
		return KindRedirect
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) {
		return KindTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}

	return KindOther
}
