// Package config provides configuration management for the check engine.
// It defines configuration structures and default values for fetching,
// batching, crawling and the collaborators around the engine.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// FetchConfig controls how pages and sub-resources are retrieved
type FetchConfig struct {
	Timeout              time.Duration `mapstructure:"timeout" yaml:"timeout"`                               // Per-fetch timeout in batch mode
	SingleTimeout        time.Duration `mapstructure:"single_timeout" yaml:"single_timeout"`                 // Per-fetch timeout for single URL and crawl mode
	UserAgent            string        `mapstructure:"user_agent" yaml:"user_agent"`                         // HTTP User-Agent header
	Headers              []string      `mapstructure:"headers" yaml:"headers"`                               // Extra headers in "Name: Value" form
	MaxBodyBytes         int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`                 // Response bodies are truncated at this size
	MaxRedirects         int           `mapstructure:"max_redirects" yaml:"max_redirects"`                   // Redirect chain limit
	BlockPrivateNetworks bool          `mapstructure:"block_private_networks" yaml:"block_private_networks"` // Refuse to dial private/reserved addresses
}

// BatchConfig controls chunked batch execution
type BatchConfig struct {
	ChunkSize              int           `mapstructure:"chunk_size" yaml:"chunk_size"`                           // URLs per chunk
	ChunkTimeout           time.Duration `mapstructure:"chunk_timeout" yaml:"chunk_timeout"`                     // Deadline for one chunk
	SubresourceConcurrency int           `mapstructure:"subresource_concurrency" yaml:"subresource_concurrency"` // Parallel sub-resource probes per page
	MaxSubresources        int           `mapstructure:"max_subresources" yaml:"max_subresources"`               // Sub-resources inspected per page
	MaxURLs                int           `mapstructure:"max_urls" yaml:"max_urls"`                               // Upper bound on URLs per request (0=unlimited)
}

// CrawlConfig controls the bounded crawler
type CrawlConfig struct {
	MaxDepth      int           `mapstructure:"max_depth" yaml:"max_depth"`           // Hard cap on requested depth
	DefaultDepth  int           `mapstructure:"default_depth" yaml:"default_depth"`   // Depth used when a request omits it
	MaxNodes      int           `mapstructure:"max_nodes" yaml:"max_nodes"`           // Stop after N fetched pages
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`               // Wall clock budget for a crawl
	Concurrency   int           `mapstructure:"concurrency" yaml:"concurrency"`       // Parallel fetches per BFS level
	RequestDelay  time.Duration `mapstructure:"request_delay" yaml:"request_delay"`   // Per-host delay between requests
	RespectRobots bool          `mapstructure:"respect_robots" yaml:"respect_robots"` // Whether to respect robots.txt
}

// ChecksConfig toggles individual check families
type ChecksConfig struct {
	Check404  bool `mapstructure:"check404" yaml:"check404"`
	Duplicate bool `mapstructure:"duplicate" yaml:"duplicate"`
	SEO       bool `mapstructure:"seo" yaml:"seo"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // sqlite, postgres or none
	DSN    string `mapstructure:"dsn" yaml:"dsn"`       // File path for sqlite, connection string for postgres
}

// SummaryConfig configures the natural-language summary provider
type SummaryConfig struct {
	Provider  string        `mapstructure:"provider" yaml:"provider"` // gemini, openai, anthropic or empty
	APIKey    string        `mapstructure:"api_key" yaml:"api_key"`
	APIKeyEnv string        `mapstructure:"api_key_env" yaml:"api_key_env"` // Environment variable holding the key
	Model     string        `mapstructure:"model" yaml:"model"`
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	Language  string        `mapstructure:"language" yaml:"language"` // th or en
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NotifyConfig configures completion notifications
type NotifyConfig struct {
	WebhookURL   string        `mapstructure:"webhook_url" yaml:"webhook_url"`
	RedisURL     string        `mapstructure:"redis_url" yaml:"redis_url"`
	RedisChannel string        `mapstructure:"redis_channel" yaml:"redis_channel"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Config holds the complete application configuration
type Config struct {
	Fetch   FetchConfig   `mapstructure:"fetch" yaml:"fetch"`
	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch"`
	Crawl   CrawlConfig   `mapstructure:"crawl" yaml:"crawl"`
	Checks  ChecksConfig  `mapstructure:"checks" yaml:"checks"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Summary SummaryConfig `mapstructure:"summary" yaml:"summary"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Fetch: FetchConfig{
			Timeout:       10 * time.Second,
			SingleTimeout: 30 * time.Second,
			UserAgent:     "DropURL/1.0",
			MaxBodyBytes:  10 << 20,
			MaxRedirects:  10,
		},
		Batch: BatchConfig{
			ChunkSize:              10,
			ChunkTimeout:           60 * time.Second,
			SubresourceConcurrency: 8,
			MaxSubresources:        200,
			MaxURLs:                500,
		},
		Crawl: CrawlConfig{
			MaxDepth:      2,
			DefaultDepth:  1,
			MaxNodes:      200,
			Timeout:       2 * time.Minute,
			Concurrency:   4,
			RequestDelay:  100 * time.Millisecond,
			RespectRobots: true,
		},
		Checks: ChecksConfig{
			Check404:  true,
			Duplicate: true,
			SEO:       true,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "./dropurl.db",
		},
		Summary: SummaryConfig{
			Provider: "",
			Model:    "gemini-2.5-flash",
			Language: "th",
			Timeout:  30 * time.Second,
		},
		Notify: NotifyConfig{
			RedisChannel: "dropurl:checks",
			Timeout:      10 * time.Second,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Fetch.Timeout <= 0 || c.Fetch.SingleTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Fetch.MaxRedirects < 0 {
		return ErrInvalidRedirects
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		c.Fetch.MaxBodyBytes = 10 << 20
	}

	if c.Batch.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if c.Batch.ChunkTimeout <= 0 {
		return ErrInvalidChunkTimeout
	}
	if c.Batch.SubresourceConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Batch.MaxSubresources <= 0 {
		c.Batch.MaxSubresources = 200
	}

	if c.Crawl.MaxDepth < 0 || c.Crawl.MaxDepth > MaxCrawlDepth {
		return ErrInvalidDepth
	}
	if c.Crawl.DefaultDepth < 0 || c.Crawl.DefaultDepth > c.Crawl.MaxDepth {
		return ErrInvalidDepth
	}
	if c.Crawl.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Crawl.MaxNodes <= 0 {
		return ErrInvalidMaxNodes
	}
	if c.Crawl.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	// Keep a floor on politeness toward crawled hosts
	if c.Crawl.RequestDelay < 10*time.Millisecond {
		c.Crawl.RequestDelay = 10 * time.Millisecond
	}

	switch c.Storage.Driver {
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return ErrEmptyDSN
		}
	case "", "none":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDriver, c.Storage.Driver)
	}

	switch c.Summary.Provider {
	case "", "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, c.Summary.Provider)
	}
	switch c.Summary.Language {
	case "th", "en":
	case "":
		c.Summary.Language = "th"
	default:
		return fmt.Errorf("%w: %s", ErrUnknownLanguage, c.Summary.Language)
	}

	for _, h := range c.Fetch.Headers {
		if _, _, ok := ParseHeader(h); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidHeader, h)
		}
	}

	return nil
}

// MaxCrawlDepth is the deepest crawl a request may ask for
const MaxCrawlDepth = 2

// SummaryAPIKey returns the summary provider key, resolving the
// environment variable if one is configured
func (c *Config) SummaryAPIKey() string {
	if c.Summary.APIKeyEnv != "" {
		return os.Getenv(c.Summary.APIKeyEnv)
	}
	return c.Summary.APIKey
}

// HeaderMap parses the configured extra headers
func (c *Config) HeaderMap() map[string]string {
	headers := make(map[string]string, len(c.Fetch.Headers))
	for _, h := range c.Fetch.Headers {
		if name, value, ok := ParseHeader(h); ok {
			headers[name] = value
		}
	}
	return headers
}

// ParseHeader splits a "Name: Value" header string
func ParseHeader(h string) (name, value string, ok bool) {
	idx := strings.Index(h, ":")
	if idx <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(h[:idx])
	value = strings.TrimSpace(h[idx+1:])
	if name == "" || value == "" {
		return "", "", false
	}
	return name, value, true
}
