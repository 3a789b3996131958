package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Batch.ChunkSize != 10 {
		t.Errorf("Expected chunk size 10, got %d", cfg.Batch.ChunkSize)
	}

	if cfg.Fetch.Timeout != 10*time.Second {
		t.Errorf("Expected batch timeout 10s, got %v", cfg.Fetch.Timeout)
	}

	if cfg.Fetch.SingleTimeout <= cfg.Fetch.Timeout {
		t.Errorf("Expected single timeout longer than batch timeout, got %v <= %v", cfg.Fetch.SingleTimeout, cfg.Fetch.Timeout)
	}

	if cfg.Crawl.MaxDepth != 2 {
		t.Errorf("Expected max depth 2, got %d", cfg.Crawl.MaxDepth)
	}

	if !cfg.Checks.Check404 || !cfg.Checks.Duplicate || !cfg.Checks.SEO {
		t.Errorf("Expected all check families enabled, got %+v", cfg.Checks)
	}

	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Expected sqlite driver, got %s", cfg.Storage.Driver)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name:    "zero chunk size",
			modify:  func(c *Config) { c.Batch.ChunkSize = 0 },
			wantErr: ErrInvalidChunkSize,
		},
		{
			name:    "zero chunk timeout",
			modify:  func(c *Config) { c.Batch.ChunkTimeout = 0 },
			wantErr: ErrInvalidChunkTimeout,
		},
		{
			name:    "zero fetch timeout",
			modify:  func(c *Config) { c.Fetch.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "depth above cap",
			modify:  func(c *Config) { c.Crawl.MaxDepth = 3 },
			wantErr: ErrInvalidDepth,
		},
		{
			name:    "default depth above max",
			modify:  func(c *Config) { c.Crawl.MaxDepth = 1; c.Crawl.DefaultDepth = 2 },
			wantErr: ErrInvalidDepth,
		},
		{
			name:    "zero crawl concurrency",
			modify:  func(c *Config) { c.Crawl.Concurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "sqlite without dsn",
			modify:  func(c *Config) { c.Storage.DSN = "" },
			wantErr: ErrEmptyDSN,
		},
		{
			name:    "storage disabled without dsn",
			modify:  func(c *Config) { c.Storage.Driver = "none"; c.Storage.DSN = "" },
			wantErr: nil,
		},
		{
			name:    "unknown driver",
			modify:  func(c *Config) { c.Storage.Driver = "mysql" },
			wantErr: ErrUnknownDriver,
		},
		{
			name:    "unknown provider",
			modify:  func(c *Config) { c.Summary.Provider = "cohere" },
			wantErr: ErrUnknownProvider,
		},
		{
			name:    "bad header",
			modify:  func(c *Config) { c.Fetch.Headers = []string{"NoColonHere"} },
			wantErr: ErrInvalidHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClampsRequestDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Crawl.RequestDelay = time.Millisecond

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Crawl.RequestDelay != 10*time.Millisecond {
		t.Errorf("Expected request delay clamped to 10ms, got %v", cfg.Crawl.RequestDelay)
	}
}

func TestHeaderMap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fetch.Headers = []string{"X-Token: abc", "Accept-Language:  th-TH ", "broken"}

	headers := cfg.HeaderMap()
	if headers["X-Token"] != "abc" {
		t.Errorf("Expected X-Token abc, got %q", headers["X-Token"])
	}
	if headers["Accept-Language"] != "th-TH" {
		t.Errorf("Expected trimmed Accept-Language, got %q", headers["Accept-Language"])
	}
	if len(headers) != 2 {
		t.Errorf("Expected 2 headers, got %d", len(headers))
	}
}

func TestSummaryAPIKeyFromEnv(t *testing.T) {
	t.Setenv("DROPURL_TEST_KEY", "from-env")

	cfg := DefaultConfig()
	cfg.Summary.APIKey = "inline"
	if got := cfg.SummaryAPIKey(); got != "inline" {
		t.Errorf("Expected inline key, got %q", got)
	}

	cfg.Summary.APIKeyEnv = "DROPURL_TEST_KEY"
	if got := cfg.SummaryAPIKey(); got != "from-env" {
		t.Errorf("Expected env key, got %q", got)
	}
}
