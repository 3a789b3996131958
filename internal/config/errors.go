package config

import "errors"

var (
	// ErrInvalidConcurrency is returned when a concurrency setting is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
	// ErrInvalidTimeout is returned when a timeout is not greater than 0
	ErrInvalidTimeout = errors.New("timeout must be greater than 0")
	// ErrInvalidRedirects is returned when max_redirects is negative
	ErrInvalidRedirects = errors.New("max_redirects cannot be negative")
	// ErrInvalidChunkSize is returned when chunk_size is not greater than 0
	ErrInvalidChunkSize = errors.New("chunk_size must be greater than 0")
	// ErrInvalidChunkTimeout is returned when chunk_timeout is not greater than 0
	ErrInvalidChunkTimeout = errors.New("chunk_timeout must be greater than 0")
	// ErrInvalidDepth is returned when a crawl depth is outside 0..2
	ErrInvalidDepth = errors.New("crawl depth must be between 0 and 2")
	// ErrInvalidMaxNodes is returned when max_nodes is not greater than 0
	ErrInvalidMaxNodes = errors.New("max_nodes must be greater than 0")
	// ErrEmptyDSN is returned when a storage driver is set without a DSN
	ErrEmptyDSN = errors.New("storage dsn cannot be empty")
	// ErrUnknownDriver is returned for an unsupported storage driver
	ErrUnknownDriver = errors.New("unknown storage driver")
	// ErrUnknownProvider is returned for an unsupported summary provider
	ErrUnknownProvider = errors.New("unknown summary provider")
	// ErrUnknownLanguage is returned for an unsupported summary language
	ErrUnknownLanguage = errors.New("unknown summary language")
	// ErrInvalidHeader is returned when a header is not in "Name: Value" form
	ErrInvalidHeader = errors.New("invalid header format")
)
