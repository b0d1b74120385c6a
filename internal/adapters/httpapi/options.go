package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the underlying http.Client. Its transport gets
// wrapped, so the passed client must not be shared with unrelated callers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client is nil")
		}
		c.http = hc
		return nil
	}
}

func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return errors.New("http timeout must not be negative")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging dumps every request and response at debug level.
func WithDebugLogging(logger zerolog.Logger) Option {
	return func(c *Client) error {
		c.debug = &logger
		return nil
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		ua = strings.TrimSpace(ua)
		if ua == "" {
			return errors.New("user agent is empty")
		}
		c.userAgent = ua
		return nil
	}
}
