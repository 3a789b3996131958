package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dropurl/dropurl/internal/fetcher"
)

// HostLimiter spaces requests to the same host by a fixed delay.
// A zero delay disables pacing.
type HostLimiter struct {
	delay time.Duration

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewHostLimiter creates a per-host limiter
func NewHostLimiter(delay time.Duration) *HostLimiter {
	return &HostLimiter{
		delay: delay,
		hosts: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to rawURL's host may proceed
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if l == nil {
		return ctx.Err()
	}
	lim := l.limiter(fetcher.Hostname(rawURL))
	if lim == nil {
		return ctx.Err()
	}
	return lim.Wait(ctx)
}

// SetHostDelay overrides the delay for one host. Setting the delay a host
// already has keeps its current pacing state.
func (l *HostLimiter) SetHostDelay(host string, delay time.Duration) {
	if delay <= 0 {
		delay = l.delay
	}
	if delay <= 0 {
		return
	}
	every := rate.Every(delay)

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.hosts[host]; ok && lim.Limit() == every {
		return
	}
	l.hosts[host] = rate.NewLimiter(every, 1)
}

// limiter returns nil when the host has no delay
func (l *HostLimiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.hosts[host]
	if !ok {
		if l.delay <= 0 {
			return nil
		}
		lim = rate.NewLimiter(rate.Every(l.delay), 1)
		l.hosts[host] = lim
	}
	return lim
}
