package crawler

import (
	"context"
	"time"
)

// RobotsChecker decides whether a URL may be fetched
type RobotsChecker interface {
	IsAllowed(ctx context.Context, url string) (bool, error)
}

// Limiter paces requests per host
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// CrawlDelayer is implemented by robots checkers that report a crawl-delay
type CrawlDelayer interface {
	CrawlDelay(ctx context.Context, url string) time.Duration
}

// HostDelayer is implemented by limiters that accept a per-host delay
type HostDelayer interface {
	SetHostDelay(host string, delay time.Duration)
}
