package engine

import (
	"errors"
	"fmt"
)

// Kind categorizes failures recorded by the engine
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidRequest means the request itself was malformed.
	InvalidRequest
	// Unreachable means no HTTP status was received for a URL.
	Unreachable
	// NotFound means a root URL answered 404.
	NotFound
	// PartialSubresource means some sub-resources failed while the page loaded.
	PartialSubresource
	// ParseFailure means a body could not be analyzed.
	ParseFailure
	// ChunkTimeout means a chunk exceeded its deadline.
	ChunkTimeout
	// Configuration means a check family cannot run in this deployment.
	Configuration
)

func (k Kind) String() string {
	switch k {
	case InvalidRequest:
		return "invalid_request"
	case Unreachable:
		return "unreachable"
	case NotFound:
		return "not_found"
	case PartialSubresource:
		return "partial_subresource"
	case ParseFailure:
		return "parse_failure"
	case ChunkTimeout:
		return "chunk_timeout"
	case Configuration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error carries a category, the URL involved and the original cause
type Error struct {
	Kind    Kind
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.URL != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.URL)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of err, or Unknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func invalidRequest(format string, args ...any) error {
	return &Error{Kind: InvalidRequest, Message: fmt.Sprintf(format, args...)}
}
