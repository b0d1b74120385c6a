package cache

import (
	"time"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/ports"
	"github.com/rs/zerolog"
)

const (
	DefaultRetention   = 5 * time.Minute
	defaultBaseBackoff = 200 * time.Millisecond
	defaultMaxBackoff  = 5 * time.Second
)

type Option func(*Cache)

// WithRetention sets how long an entry without subscribers is kept. Zero
// evicts it as soon as the last subscriber leaves.
func WithRetention(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.retention = d
		}
	}
}

// WithRetry retries failed fetches up to attempts extra times with
// exponential backoff between base and max.
func WithRetry(attempts int, base, max time.Duration) Option {
	return func(c *Cache) {
		if attempts < 0 {
			attempts = 0
		}
		if base <= 0 {
			base = defaultBaseBackoff
		}
		if max < base {
			max = defaultMaxBackoff
		}
		c.retry.attempts = attempts
		c.retry.base = base
		c.retry.max = max
	}
}

// WithRetryIf replaces the predicate deciding which fetch errors are retried.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Cache) {
		if fn != nil {
			c.retry.retryIf = fn
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithClock(clock ports.Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
	retryIf  func(error) bool
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		base:    defaultBaseBackoff,
		max:     defaultMaxBackoff,
		retryIf: domain.IsRecoverable,
	}
}

// QueryOption configures one subscription.
type QueryOption func(*Subscription)

// WithEnabled gates the subscription. A disabled subscription never fetches.
func WithEnabled(enabled bool) QueryOption {
	return func(s *Subscription) {
		s.enabled = enabled
	}
}

// WithStaleTime marks cached data stale once it is older than d. Zero keeps
// data fresh until it is invalidated.
func WithStaleTime(d time.Duration) QueryOption {
	return func(s *Subscription) {
		if d >= 0 {
			s.staleTime = d
		}
	}
}
